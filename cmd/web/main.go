package main

import (
	"crypto/rsa"
	"log"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"dictophone-api/internal/dao"
	"dictophone-api/internal/helper"
	"dictophone-api/internal/route"
	"dictophone-api/internal/service"
)

func main() {
	// Set Gin to production mode
	gin.SetMode(gin.ReleaseMode)

	// Connect to the database
	helper.ConnectDB()
	db := helper.DB

	// External services
	keycloak := service.NewKeycloakService(
		helper.GetConfig("KEYCLOAK_SERVER_URL"),
		helper.GetConfig("KEYCLOAK_REALM"),
		helper.GetConfig("KEYCLOAK_CLIENT_ID"),
		helper.GetConfig("KEYCLOAK_CLIENT_SECRET"),
		helper.GetConfig("KEYCLOAK_ADMIN_USERNAME"),
		helper.GetConfig("KEYCLOAK_ADMIN_PASSWORD"),
	)

	blobs, err := service.NewS3Service(
		helper.GetConfig("S3_ENDPOINT"),
		helper.GetConfigDefault("S3_REGION", "us-east-1"),
		helper.GetConfig("S3_ACCESS_KEY"),
		helper.GetConfig("S3_SECRET_KEY"),
		helper.GetConfig("S3_BUCKET"),
	)
	if err != nil {
		log.Fatal("Failed to configure S3 client: ", err)
	}

	tasks := service.NewRabbitMQService(
		helper.GetConfigDefault("RABBITMQ_HOST", "localhost"),
		helper.GetConfigDefault("RABBITMQ_PORT", "5672"),
		helper.GetConfig("RABBITMQ_USERNAME"),
		helper.GetConfig("RABBITMQ_PASSWORD"),
		helper.GetConfigDefault("RABBITMQ_QUEUE", "audio-transcription"),
	)
	defer tasks.Close()

	api := &route.API{
		Folders:        dao.NewFolderDAO(db),
		Records:        dao.NewRecordDAO(db),
		Transcriptions: dao.NewTranscriptionDAO(db),
		Identity:       keycloak,
		Blobs:          blobs,
		Tasks:          tasks,
		PDF:            service.NewPDFService(),
		APIKey:         helper.GetConfig("API_KEY"),
	}

	if helper.GetConfig("SMTP_HOST") != "" {
		api.Mailer = helper.NewMailerFromConfig()
	}

	app := gin.New()
	app.Use(gin.Logger(), gin.Recovery())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization", "X-API-Key"},
	}))

	route.Register(app, api, route.AuthRequired(realmKey(keycloak), allowedIssuers()))

	if err := app.Run(":" + helper.GetConfigDefault("PORT", "8080")); err != nil {
		log.Fatal(err)
	}
}

// realmKey fetches the Keycloak realm signing key at startup. Without it
// every authenticated endpoint answers 401 until restart; the process
// still comes up so the public endpoints and the worker callback keep
// working.
func realmKey(keycloak *service.KeycloakService) *rsa.PublicKey {
	raw, err := keycloak.RealmPublicKey()
	if err != nil {
		log.Println("Failed to retrieve Keycloak public key:", err)
		return nil
	}

	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(service.WrapPublicKeyPEM(raw)))
	if err != nil {
		log.Println("Failed to parse Keycloak public key:", err)
		return nil
	}

	log.Println("Configured JWT verification with Keycloak realm key")
	return key
}

// allowedIssuers builds the issuer allow-list. The realm is reachable
// under the internal service URL and, when configured, a public URL;
// tokens carry whichever base the client authenticated against.
func allowedIssuers() []string {
	serverURL := strings.TrimSuffix(helper.GetConfig("KEYCLOAK_SERVER_URL"), "/")
	realm := helper.GetConfig("KEYCLOAK_REALM")

	issuers := []string{serverURL + "/realms/" + realm}
	if publicURL := strings.TrimSuffix(helper.GetConfig("KEYCLOAK_PUBLIC_URL"), "/"); publicURL != "" && publicURL != serverURL {
		issuers = append(issuers, publicURL+"/realms/"+realm)
	}
	return issuers
}
