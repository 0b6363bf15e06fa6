package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/davidkych/cursus-backend/internal/jsonstore"
)

type LogPayload struct {
	Tag         string `json:"tag" binding:"required"`
	TertiaryTag string `json:"tertiary_tag"`
	Base        string `json:"base" binding:"required"`
	Message     string `json:"message" binding:"required"`
}

// AppendLog handles POST /api/log, appending one entry to today's log
// document for the tag.
func AppendLog(store *jsonstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload LogPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := dbContext()
		defer cancel()

		logID, entries, err := store.AppendLog(ctx, payload.Tag, payload.TertiaryTag, payload.Base, payload.Message)
		if err != nil {
			log.Println("[LOG] [ERROR] append failed:", err)
			respondWithError(c, http.StatusInternalServerError, "LOG", "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"log_id":  logID,
			"entries": entries,
		})
	}
}
