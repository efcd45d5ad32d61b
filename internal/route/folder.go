package route

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"dictophone-api/internal/dao"
	"dictophone-api/internal/model"
)

// listFolders returns all of the caller's folders, seeding the default
// set first when this is the user's first visit.
func (api *API) listFolders(c *gin.Context) {
	userID := c.GetString(ctxUserID)

	if err := api.Folders.EnsureDefaults(userID); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to prepare folders")
		return
	}

	folders, err := api.Folders.FindByUser(userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to list folders")
		return
	}

	c.JSON(http.StatusOK, folders)
}

func (api *API) createFolder(c *gin.Context) {
	userID := c.GetString(ctxUserID)

	var req model.CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		respondError(c, http.StatusBadRequest, "Folder name is required")
		return
	}

	folder, err := api.Folders.Create(userID, req.Name, req.Description, false)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Failed to create folder")
		return
	}

	c.JSON(http.StatusCreated, folder)
}

func (api *API) updateFolder(c *gin.Context) {
	userID := c.GetString(ctxUserID)

	folderID, ok := folderIDParam(c)
	if !ok {
		return
	}

	existing, err := api.Folders.FindByID(folderID)
	if errors.Is(err, dao.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Folder not found")
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to load folder")
		return
	}

	if existing.KeycloakUserID != userID {
		respondError(c, http.StatusForbidden, "You don't have permission to update this folder")
		return
	}

	var req model.UpdateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		respondError(c, http.StatusBadRequest, "Folder name is required")
		return
	}

	folder, err := api.Folders.Update(folderID, req.Name, req.Description)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Failed to update folder")
		return
	}

	c.JSON(http.StatusOK, folder)
}

// deleteFolder removes a folder and everything in it. Each contained
// record is cleaned up in its own transaction, blobs afterwards and best
// effort; a database failure mid-loop aborts with records processed so
// far already gone. There is no compensating rollback across records.
func (api *API) deleteFolder(c *gin.Context) {
	userID := c.GetString(ctxUserID)

	folderID, ok := folderIDParam(c)
	if !ok {
		return
	}

	existing, err := api.Folders.FindByID(folderID)
	if errors.Is(err, dao.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Folder not found")
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to load folder")
		return
	}

	if existing.KeycloakUserID != userID {
		respondError(c, http.StatusForbidden, "You don't have permission to delete this folder")
		return
	}

	records, err := api.Records.FindByFolderID(folderID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to enumerate folder records")
		return
	}

	for _, record := range records {
		if err := api.Records.DeleteCascade(record.ID); err != nil {
			respondError(c, http.StatusInternalServerError, fmt.Sprintf("Failed to delete record %d", record.ID))
			return
		}
		if strings.TrimSpace(record.AudioURL) != "" {
			api.Blobs.DeleteFileByURL(c.Request.Context(), record.AudioURL)
		}
	}

	if err := api.Folders.Delete(folderID); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to delete folder")
		return
	}

	c.Status(http.StatusNoContent)
}

func folderIDParam(c *gin.Context) (int64, bool) {
	folderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid folder ID")
		return 0, false
	}
	return folderID, true
}
