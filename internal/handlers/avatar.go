package handlers

import (
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/davidkych/cursus-backend/internal/blobstore"
	"github.com/davidkych/cursus-backend/internal/middleware"
	"github.com/davidkych/cursus-backend/internal/models"
)

// maxAvatarBytes caps custom avatar uploads for non-admin users.
const maxAvatarBytes = 512 * 1024

var avatarContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// checkAvatarUpload applies the membership gating rules: admins upload
// anything, premium members get JPEG/PNG up to the size cap, everyone else
// is refused outright.
func checkAvatarUpload(user *models.User, size int64, contentType string) (int, string) {
	if !user.IsAdmin && !user.IsPremiumMember {
		return http.StatusForbidden, "custom avatars require premium membership"
	}
	if user.IsAdmin {
		return 0, ""
	}
	if size > maxAvatarBytes {
		return http.StatusRequestEntityTooLarge, "file exceeds 512 KiB limit"
	}
	if !avatarContentTypes[contentType] {
		return http.StatusUnsupportedMediaType, "only JPEG and PNG avatars are accepted"
	}
	return 0, ""
}

// readAvatarUpload reads the upload body. Admins get the whole file; for
// everyone else reading stops just past the size cap, which is enough for
// checkAvatarUpload to reject the overage without buffering arbitrary input.
func readAvatarUpload(user *models.User, r io.Reader) ([]byte, error) {
	if user.IsAdmin {
		return io.ReadAll(r)
	}
	return io.ReadAll(io.LimitReader(r, maxAvatarBytes+1))
}

type SelectAvatarRequest struct {
	ProfilePicID int `json:"profile_pic_id" binding:"required,min=1"`
}

// UploadAvatar handles POST /api/auth/avatar (multipart field "file").
// Admins may upload any image type or size; premium members are limited
// to JPEG/PNG up to 512 KiB; everyone else gets 403.
func UploadAvatar(db *mongo.Database, avatars *blobstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := dbContext()
		defer cancel()

		user, err := findUserByUsername(ctx, db, middleware.Username(c))
		if err != nil {
			log.Println("[AVATAR] [ERROR] lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, "AVATAR", "db error")
			return
		}
		if user == nil {
			respondWithError(c, http.StatusNotFound, "AVATAR", "user not found")
			return
		}
		fileHeader, err := c.FormFile("file")
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "AVATAR", "file is required")
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			log.Println("[AVATAR] [ERROR] open upload failed:", err)
			respondWithError(c, http.StatusInternalServerError, "AVATAR", "could not read upload")
			return
		}
		defer file.Close()

		data, err := readAvatarUpload(user, file)
		if err != nil {
			log.Println("[AVATAR] [ERROR] read upload failed:", err)
			respondWithError(c, http.StatusInternalServerError, "AVATAR", "could not read upload")
			return
		}

		contentType := http.DetectContentType(data)
		if status, msg := checkAvatarUpload(user, int64(len(data)), contentType); status != 0 {
			respondWithError(c, status, "AVATAR", msg)
			return
		}

		// One blob per account, overwritten on every upload.
		key := user.Username
		if err := avatars.Put(ctx, key, contentType, data); err != nil {
			log.Println("[AVATAR] [ERROR] blob upload failed:", err)
			respondWithError(c, http.StatusInternalServerError, "AVATAR", "upload failed")
			return
		}

		now := time.Now().UTC()
		avatar := models.CustomAvatar{Blob: key, ContentType: contentType, UpdatedAt: now}
		_, err = db.Collection("users").UpdateOne(ctx,
			bson.M{"_id": user.ID},
			bson.M{"$set": bson.M{
				"customAvatar":   avatar,
				"profilePicType": "custom",
				"updatedAt":      now,
			}},
		)
		if err != nil {
			log.Println("[AVATAR] [ERROR] profile update failed:", err)
			respondWithError(c, http.StatusInternalServerError, "AVATAR", "db error")
			return
		}

		log.Println("[AVATAR] [INFO] custom avatar stored for", user.Username)
		c.JSON(http.StatusOK, gin.H{"status": "success", "profile_pic_type": "custom"})
	}
}

// SelectAvatar handles POST /api/auth/avatar/select, switching the
// account back to one of the built-in profile pictures.
func SelectAvatar(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SelectAvatarRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := dbContext()
		defer cancel()

		res, err := db.Collection("users").UpdateOne(ctx,
			bson.M{"_id": middleware.Username(c)},
			bson.M{"$set": bson.M{
				"profilePicId":   req.ProfilePicID,
				"profilePicType": "default",
				"updatedAt":      time.Now().UTC(),
			}},
		)
		if err != nil {
			log.Println("[AVATAR] [ERROR] select update failed:", err)
			respondWithError(c, http.StatusInternalServerError, "AVATAR", "db error")
			return
		}
		if res.MatchedCount == 0 {
			respondWithError(c, http.StatusNotFound, "AVATAR", "user not found")
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "success", "profile_pic_id": req.ProfilePicID, "profile_pic_type": "default"})
	}
}
