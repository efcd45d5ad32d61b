package helper

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
	"gopkg.in/gomail.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"dictophone-api/internal/model"
)

var loadEnv sync.Once

// GetConfig returns a configuration value from the environment,
// loading .env on first use.
func GetConfig(key string) string {
	loadEnv.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Print("Error loading .env file")
		}
	})
	return os.Getenv(key)
}

// GetConfigDefault is GetConfig with a fallback for unset keys.
func GetConfigDefault(key, def string) string {
	if v := GetConfig(key); v != "" {
		return v
	}
	return def
}

var DB *gorm.DB

func ConnectDB() {
	var err error
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		GetConfigDefault("DB_HOST", "localhost"),
		GetConfigDefault("DB_PORT", "5432"),
		GetConfig("DB_USER"),
		GetConfig("DB_PASSWORD"),
		GetConfig("DB_NAME"))

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})

	if err != nil {
		panic("failed to connect database")
	}

	fmt.Println("Connection Opened to Database")
	Migrate(DB)
	fmt.Println("Database Migrated")
}

// Migrate keeps the schema up to date without dropping data.
func Migrate(db *gorm.DB) {
	if err := db.AutoMigrate(&model.Folder{}, &model.Record{}, &model.TranscriptionSegment{}); err != nil {
		log.Println("Migration failed:", err)
	}
}

// Mailer sends notification mail over SMTP.
type Mailer struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

func NewMailerFromConfig() *Mailer {
	port, _ := strconv.Atoi(GetConfigDefault("SMTP_PORT", "587"))
	return &Mailer{
		Host:     GetConfig("SMTP_HOST"),
		Port:     port,
		User:     GetConfig("SMTP_USER"),
		Password: GetConfig("SMTP_PASSWORD"),
		From:     GetConfigDefault("SMTP_FROM", "Smart Dictophone <noreply@localhost>"),
	}
}

func (m *Mailer) SendEmail(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("[Smart Dictophone] %v", subject))
	msg.SetBody("text/html", body)

	d := gomail.NewDialer(m.Host, m.Port, m.User, m.Password)

	if err := d.DialAndSend(msg); err != nil {
		return err
	}

	return nil
}
