package route

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dictophone-api/internal/model"
)

// recordInfo returns the caller's profile plus recording statistics.
// Like the folder listing, it seeds the default folders on first contact.
func (api *API) recordInfo(c *gin.Context) {
	userID := c.GetString(ctxUserID)

	if err := api.Folders.EnsureDefaults(userID); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to prepare folders")
		return
	}

	countRecords, err := api.Records.CountByUser(userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to load statistics")
		return
	}

	totalSeconds, err := api.Records.SumDurationByUser(userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to load statistics")
		return
	}

	c.JSON(http.StatusOK, model.UserInfo{
		KeycloakUserID: userID,
		Username:       c.GetString(ctxUsername),
		Email:          nilIfEmpty(c.GetString(ctxEmail)),
		FullName:       nilIfEmpty(c.GetString(ctxFullName)),
		CountRecords:   int(countRecords),
		CountMinutes:   int(totalSeconds / 60),
	})
}
