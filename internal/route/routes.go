package route

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Register wires all handlers onto the engine. authRequired guards the
// user-facing resources; the transcribe callback stays outside it and
// checks the service API key itself.
func Register(app *gin.Engine, api *API, authRequired gin.HandlerFunc) {
	app.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "Endpoint not found")
	})

	app.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Smart Dictophone API v1.0 (Keycloak Integration)\n\nAPI Documentation: /openapi.json")
	})

	app.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	app.GET("/openapi.json", openAPIDocument)

	app.POST("/register", api.register)
	app.POST("/login", api.login)
	app.POST("/refresh", api.refresh)

	app.POST("/records/:id/transcribe", api.transcribe)

	authed := app.Group("", authRequired)
	{
		authed.POST("/loginOnToken", api.loginOnToken)
		authed.GET("/recordInfo", api.recordInfo)

		authed.GET("/folders", api.listFolders)
		authed.POST("/folders", api.createFolder)
		authed.PUT("/folders/:id", api.updateFolder)
		authed.DELETE("/folders/:id", api.deleteFolder)

		authed.GET("/records", api.listRecords)
		authed.POST("/records", api.createRecord)
		authed.GET("/records/:id/audio", api.getRecordAudio)
		authed.GET("/records/:id/pdf", api.getRecordPDF)
		authed.GET("/records/:id/subtitles", api.getRecordSubtitles)
		authed.DELETE("/records/:id", api.deleteRecord)
	}
}
