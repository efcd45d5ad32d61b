package route

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"

	"dictophone-api/internal/dao"
	"dictophone-api/internal/model"
	"dictophone-api/internal/service"
)

// Identity is the slice of the Keycloak gateway the handlers need.
type Identity interface {
	Login(username, password string) (*service.KeycloakTokens, error)
	RefreshToken(refreshToken string) (*service.KeycloakTokens, error)
	RegisterUser(username, email, password, firstName, lastName string) (string, error)
	GetUserByID(userID string) (*service.KeycloakUser, error)
}

// BlobStore abstracts the object store holding audio blobs.
type BlobStore interface {
	UploadFile(ctx context.Context, r io.Reader, size int64, fileName, contentType string) (string, error)
	DownloadFile(ctx context.Context, blobURL string) ([]byte, error)
	DeleteFileByURL(ctx context.Context, blobURL string)
}

// TaskQueue dispatches transcription work to the external ML worker.
type TaskQueue interface {
	SendTranscriptionTask(recordID int64) error
}

// Notifier sends transcription-ready mail. May be left nil to disable
// notifications.
type Notifier interface {
	SendEmail(to, subject, body string) error
}

// API bundles the handlers' dependencies.
type API struct {
	Folders        *dao.FolderDAO
	Records        *dao.RecordDAO
	Transcriptions *dao.TranscriptionDAO
	Identity       Identity
	Blobs          BlobStore
	Tasks          TaskQueue
	PDF            *service.PDFService
	Mailer         Notifier
	APIKey         string
}

// Context keys populated by the auth middleware.
const (
	ctxUserID   = "keycloakUserId"
	ctxEmail    = "email"
	ctxUsername = "username"
	ctxFullName = "fullName"
)

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, model.ErrorResponse{Message: message, Status: status})
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
