package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/davidkych/cursus-backend/internal/jsonstore"
)

type JSONPayload struct {
	Tag           string      `json:"tag" binding:"required"`
	SecondaryTag  string      `json:"secondary_tag"`
	TertiaryTag   string      `json:"tertiary_tag"`
	QuaternaryTag string      `json:"quaternary_tag"`
	QuinaryTag    string      `json:"quinary_tag"`
	Year          *int        `json:"year"`
	Month         *int        `json:"month"`
	Day           *int        `json:"day"`
	Data          interface{} `json:"data" binding:"required"`
}

func (p JSONPayload) key() jsonstore.Key {
	return jsonstore.Key{
		Tag:           p.Tag,
		SecondaryTag:  p.SecondaryTag,
		TertiaryTag:   p.TertiaryTag,
		QuaternaryTag: p.QuaternaryTag,
		QuinaryTag:    p.QuinaryTag,
		Year:          p.Year,
		Month:         p.Month,
		Day:           p.Day,
	}
}

func validateDateParts(year, month, day *int) error {
	if year != nil && *year < 1900 {
		return fmt.Errorf("year must be >= 1900")
	}
	if month != nil && (*month < 1 || *month > 12) {
		return fmt.Errorf("month must be between 1 and 12")
	}
	if day != nil && (*day < 1 || *day > 31) {
		return fmt.Errorf("day must be between 1 and 31")
	}
	return nil
}

// UploadJSON handles POST /api/json.
func UploadJSON(store *jsonstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload JSONPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			respondValidationError(c, err)
			return
		}
		if err := validateDateParts(payload.Year, payload.Month, payload.Day); err != nil {
			respondWithError(c, http.StatusBadRequest, "JSON", err.Error())
			return
		}

		ctx, cancel := dbContext()
		defer cancel()

		id, err := store.Upsert(ctx, payload.key(), payload.Data)
		if err != nil {
			log.Println("[JSON] [ERROR] upsert failed:", err)
			respondWithError(c, http.StatusInternalServerError, "JSON", "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "success", "id": id})
	}
}

func keyFromQuery(c *gin.Context) (jsonstore.Key, error) {
	key := jsonstore.Key{
		Tag:           c.Query("tag"),
		SecondaryTag:  c.Query("secondary_tag"),
		TertiaryTag:   c.Query("tertiary_tag"),
		QuaternaryTag: c.Query("quaternary_tag"),
		QuinaryTag:    c.Query("quinary_tag"),
	}
	if key.Tag == "" {
		return key, fmt.Errorf("tag is required")
	}

	for _, part := range []struct {
		name string
		dst  **int
	}{
		{"year", &key.Year},
		{"month", &key.Month},
		{"day", &key.Day},
	} {
		raw := c.Query(part.name)
		if raw == "" {
			continue
		}
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return key, fmt.Errorf("%s must be an integer", part.name)
		}
		*part.dst = &parsed
	}

	return key, validateDateParts(key.Year, key.Month, key.Day)
}

// DownloadJSON handles GET /api/json.
func DownloadJSON(store *jsonstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, err := keyFromQuery(c)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "JSON", err.Error())
			return
		}

		ctx, cancel := dbContext()
		defer cancel()

		data, err := store.Fetch(ctx, key)
		if err == jsonstore.ErrNotFound {
			respondWithError(c, http.StatusNotFound, "JSON", "item not found")
			return
		}
		if err != nil {
			log.Println("[JSON] [ERROR] fetch failed:", err)
			respondWithError(c, http.StatusInternalServerError, "JSON", "db error")
			return
		}

		c.JSON(http.StatusOK, data)
	}
}

// DeleteJSON handles GET /api/json/delete (delete via GET for easy browser
// use, mirroring the dashboard workflow).
func DeleteJSON(store *jsonstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, err := keyFromQuery(c)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "JSON", err.Error())
			return
		}

		ctx, cancel := dbContext()
		defer cancel()

		if err := store.Delete(ctx, key); err != nil {
			if err == jsonstore.ErrNotFound {
				respondWithError(c, http.StatusNotFound, "JSON", "item not found")
				return
			}
			log.Println("[JSON] [ERROR] delete failed:", err)
			respondWithError(c, http.StatusInternalServerError, "JSON", "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "deleted", "id": key.ID()})
	}
}

// DownloadJSONFile handles GET /api/json/download and serves the payload as
// a pretty-printed attachment.
func DownloadJSONFile(store *jsonstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, err := keyFromQuery(c)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "JSON", err.Error())
			return
		}

		ctx, cancel := dbContext()
		defer cancel()

		data, err := store.Fetch(ctx, key)
		if err == jsonstore.ErrNotFound {
			respondWithError(c, http.StatusNotFound, "JSON", "item not found")
			return
		}
		if err != nil {
			log.Println("[JSON] [ERROR] download fetch failed:", err)
			respondWithError(c, http.StatusInternalServerError, "JSON", "db error")
			return
		}

		body, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, "JSON", "encode error")
			return
		}

		filename := key.ID() + ".json"
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Header("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		c.Data(http.StatusOK, "application/json", body)
	}
}
