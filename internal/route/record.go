package route

import (
	"errors"
	"fmt"
	"log"
	"mime"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"dictophone-api/internal/dao"
	"dictophone-api/internal/model"
	"dictophone-api/internal/service"
)

// listRecords pages through the caller's records, newest first.
func (api *API) listRecords(c *gin.Context) {
	userID := c.GetString(ctxUserID)

	search := c.Query("search")

	var folderID *int64
	if raw := c.Query("folderId"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			folderID = &id
		}
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		page = 0
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "20"))
	if err != nil || size < 1 {
		size = 20
	}

	records, total, err := api.Records.Search(userID, search, folderID, page, size)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to list records")
		return
	}

	if records == nil {
		records = []model.Record{}
	}

	c.JSON(http.StatusOK, model.PaginatedRecords{
		Content:       records,
		TotalElements: total,
		TotalPages:    int((total + int64(size) - 1) / int64(size)),
	})
}

// createRecord ingests a multipart upload: metadata fields plus the audio
// file. The blob goes to the object store first; the row is only written
// once a locator exists, and the transcription task is dispatched last,
// fire-and-forget.
func (api *API) createRecord(c *gin.Context) {
	userID := c.GetString(ctxUserID)

	title := c.PostForm("title")
	if title == "" {
		title = c.PostForm("name")
	}

	datetime, haveDatetime := parseDatetime(c.PostForm("datetime"))
	category, haveCategory := model.ParseCategory(c.PostForm("category"))

	file, fileErr := c.FormFile("recordFile")

	if !haveDatetime || strings.TrimSpace(title) == "" || !haveCategory || fileErr != nil {
		respondError(c, http.StatusBadRequest, "Required fields: datetime, title, category, recordFile")
		return
	}

	rawFolderID := c.PostForm("folderId")
	if rawFolderID == "" {
		respondError(c, http.StatusBadRequest, "Folder ID is required")
		return
	}
	folderID, err := strconv.ParseInt(rawFolderID, 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Folder ID is required")
		return
	}

	folder, err := api.Folders.FindByID(folderID)
	if errors.Is(err, dao.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Folder not found")
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to load folder")
		return
	}
	if folder.KeycloakUserID != userID {
		respondError(c, http.StatusForbidden, "You don't have access to this folder")
		return
	}

	// "place" is "lat,lon"; malformed values are dropped, not rejected.
	latitude, longitude := parsePlace(c.PostForm("place"))

	src, err := file.Open()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to read audio file")
		return
	}
	defer src.Close()

	audioURL, err := api.Blobs.UploadFile(c.Request.Context(), src, file.Size, file.Filename, "audio/m4a")
	if err != nil {
		log.Println("Failed to upload audio file:", err)
		respondError(c, http.StatusInternalServerError, "Failed to upload audio file")
		return
	}

	record := model.Record{
		FolderID:  &folderID,
		Title:     title,
		Datetime:  datetime,
		Latitude:  latitude,
		Longitude: longitude,
		Duration:  0, // filled by the worker once the audio is processed
		Category:  category,
		AudioURL:  audioURL,
	}
	if err := api.Records.Create(&record); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to create record")
		return
	}

	if err := api.Tasks.SendTranscriptionTask(record.ID); err != nil {
		log.Printf("Failed to send transcription task for record ID %d: %v", record.ID, err)
	}

	c.JSON(http.StatusCreated, record)
}

func (api *API) getRecordAudio(c *gin.Context) {
	record := api.loadOwnedRecord(c)
	if record == nil {
		return
	}

	data, err := api.Blobs.DownloadFile(c.Request.Context(), record.AudioURL)
	if err != nil {
		respondError(c, http.StatusNotFound, "Audio file not found")
		return
	}

	c.Data(http.StatusOK, "audio/mp4", data)
}

func (api *API) getRecordPDF(c *gin.Context) {
	record := api.loadOwnedRecord(c)
	if record == nil {
		return
	}

	segments, err := api.Transcriptions.FindByRecordID(record.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to load transcription")
		return
	}
	if len(segments) == 0 {
		respondError(c, http.StatusNotFound, "No transcription available")
		return
	}

	data, err := api.PDF.GenerateTranscriptionPDF(record.Title, record.Datetime, segments)
	if err != nil {
		log.Println("Failed to generate PDF:", err)
		respondError(c, http.StatusInternalServerError, "Failed to generate PDF")
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": record.Title + ".pdf"}))
	c.Data(http.StatusOK, "application/pdf", data)
}

// getRecordSubtitles exports the transcript as SRT (default) or WebVTT.
func (api *API) getRecordSubtitles(c *gin.Context) {
	record := api.loadOwnedRecord(c)
	if record == nil {
		return
	}

	segments, err := api.Transcriptions.FindByRecordID(record.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to load transcription")
		return
	}
	if len(segments) == 0 {
		respondError(c, http.StatusNotFound, "No transcription available")
		return
	}

	format := c.DefaultQuery("format", "srt")
	data, contentType, err := service.RenderSubtitles(segments, format)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Unsupported subtitle format")
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": record.Title + "." + format}))
	c.Data(http.StatusOK, contentType, data)
}

func (api *API) deleteRecord(c *gin.Context) {
	record := api.loadOwnedRecord(c)
	if record == nil {
		return
	}

	if err := api.Records.DeleteCascade(record.ID); err != nil {
		respondError(c, http.StatusInternalServerError, fmt.Sprintf("Failed to delete record %d", record.ID))
		return
	}
	if strings.TrimSpace(record.AudioURL) != "" {
		api.Blobs.DeleteFileByURL(c.Request.Context(), record.AudioURL)
	}

	c.Status(http.StatusNoContent)
}

// transcribe is the ML worker's callback, authenticated by the service
// API key rather than a user token. It is the only writer of a record's
// description after creation.
func (api *API) transcribe(c *gin.Context) {
	if c.GetHeader("X-API-Key") != api.APIKey {
		respondError(c, http.StatusUnauthorized, "Invalid API key")
		return
	}

	recordID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid record ID")
		return
	}

	record, err := api.Records.FindByID(recordID)
	if errors.Is(err, dao.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Record not found")
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to load record")
		return
	}

	var req model.TranscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}
	if len(req.Segments) == 0 {
		respondError(c, http.StatusBadRequest, "Segments are required")
		return
	}

	if _, err := api.Transcriptions.CreateBatch(recordID, req.Segments); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to save transcription")
		return
	}

	if err := api.Records.UpdateDescription(recordID, transcriptText(req.Segments)); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to update record")
		return
	}

	api.notifyTranscriptionReady(record)

	c.JSON(http.StatusOK, gin.H{"message": "Transcription saved successfully"})
}

// notifyTranscriptionReady mails the record's owner, best effort.
func (api *API) notifyTranscriptionReady(record *model.Record) {
	if api.Mailer == nil || record.FolderID == nil {
		return
	}

	folder, err := api.Folders.FindByID(*record.FolderID)
	if err != nil {
		return
	}

	user, err := api.Identity.GetUserByID(folder.KeycloakUserID)
	if err != nil || user == nil || user.Email == "" {
		return
	}

	body := fmt.Sprintf("The transcription for \"%s\" is ready.", record.Title)
	if err := api.Mailer.SendEmail(user.Email, "Transcription Notification", body); err != nil {
		log.Println("Failed to send email:", err)
	}
}

// transcriptText rebuilds the record description from a callback's
// segments: ascending start order, single-space join.
func transcriptText(segments []model.TranscriptionSegmentInput) string {
	sorted := make([]model.TranscriptionSegmentInput, len(segments))
	copy(sorted, segments)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	texts := make([]string, 0, len(sorted))
	for _, s := range sorted {
		texts = append(texts, s.Text)
	}
	return strings.Join(texts, " ")
}

// loadOwnedRecord resolves :id and enforces ownership through the owning
// folder. A record without a folder is inaccessible to everyone,
// including whoever uploaded it.
func (api *API) loadOwnedRecord(c *gin.Context) *model.Record {
	recordID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid record ID")
		return nil
	}

	record, err := api.Records.FindByID(recordID)
	if errors.Is(err, dao.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Record not found")
		return nil
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to load record")
		return nil
	}

	if record.FolderID == nil {
		respondError(c, http.StatusForbidden, "You don't have access to this record")
		return nil
	}

	folder, err := api.Folders.FindByID(*record.FolderID)
	if err != nil || folder.KeycloakUserID != c.GetString(ctxUserID) {
		respondError(c, http.StatusForbidden, "You don't have access to this record")
		return nil
	}

	return record
}

func parseDatetime(raw string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parsePlace(raw string) (*float32, *float32) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return nil, nil
	}

	lat, latErr := strconv.ParseFloat(strings.TrimSpace(parts[0]), 32)
	lon, lonErr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 32)
	if latErr != nil || lonErr != nil {
		return nil, nil
	}

	latitude := float32(lat)
	longitude := float32(lon)
	return &latitude, &longitude
}
