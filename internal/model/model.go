package model

import (
	"strings"
	"time"
)

// Folder groups a user's recordings. Ownership is the Keycloak subject id;
// there is no local user table.
type Folder struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	KeycloakUserID string    `gorm:"size:255;index;not null" json:"keycloakUserId"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Description    *string   `json:"description"`
	IsDefault      bool      `gorm:"not null;default:false" json:"isDefault"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Record is one uploaded recording. Description caches the concatenated
// transcript once segments arrive. A record without a folder belongs to
// nobody and is never served.
type Record struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	FolderID    *int64    `json:"folderId"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description *string   `json:"description"`
	Datetime    time.Time `gorm:"not null" json:"datetime"`
	Latitude    *float32  `json:"latitude"`
	Longitude   *float32  `json:"longitude"`
	Duration    int       `gorm:"not null" json:"duration"`
	Category    string    `gorm:"size:20;not null" json:"category"`
	AudioURL    string    `gorm:"size:512;not null" json:"audioUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TranscriptionSegment is one timed span of recognized speech.
type TranscriptionSegment struct {
	ID       int64   `gorm:"primaryKey" json:"id"`
	RecordID int64   `gorm:"index;not null" json:"recordId"`
	Start    float32 `gorm:"not null" json:"start"`
	End      float32 `gorm:"not null" json:"end"`
	Text     string  `json:"text"`
}

// Record categories, matched case-insensitively on input.
const (
	CategoryWork     = "Work"
	CategoryStudy    = "Study"
	CategoryPersonal = "Personal"
)

var Categories = []string{CategoryWork, CategoryStudy, CategoryPersonal}

// ParseCategory resolves a client-supplied category name to its canonical
// form. The second value reports whether the name is known.
func ParseCategory(s string) (string, bool) {
	for _, c := range Categories {
		if strings.EqualFold(c, s) {
			return c, true
		}
	}
	return "", false
}

// Default folders seeded per user on first use.
var DefaultFolderNames = []string{"Работа", "Учёба", "Личное"}

type CreateFolderRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type UpdateFolderRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type TranscriptionSegmentInput struct {
	Start float32 `json:"start"`
	End   float32 `json:"end"`
	Text  string  `json:"text"`
}

type TranscribeRequest struct {
	Segments []TranscriptionSegmentInput `json:"segments"`
}

type PaginatedRecords struct {
	Content       []Record `json:"content"`
	TotalElements int64    `json:"totalElements"`
	TotalPages    int      `json:"totalPages"`
}

type UserInfo struct {
	KeycloakUserID string  `json:"keycloakUserId"`
	Username       string  `json:"username"`
	Email          *string `json:"email"`
	FullName       *string `json:"fullName"`
	CountRecords   int     `json:"countRecords"`
	CountMinutes   int     `json:"countMinutes"`
}

// ErrorResponse is the envelope for every non-2xx reply.
type ErrorResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}
