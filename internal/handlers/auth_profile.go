package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/davidkych/cursus-backend/internal/middleware"
)

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=100"`
}

type ChangeEmailRequest struct {
	Password string `json:"password" binding:"required"`
	NewEmail string `json:"new_email" binding:"required,email"`
}

// ChangePassword handles POST /api/auth/change-password.
func ChangePassword(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ChangePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := dbContext()
		defer cancel()

		user, err := findUserByUsername(ctx, db, middleware.Username(c))
		if err != nil {
			log.Println("[AUTH] [ERROR] change-password lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, "AUTH", "db error")
			return
		}
		if user == nil {
			respondWithError(c, http.StatusNotFound, "AUTH", "user not found")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
			respondWithError(c, http.StatusUnauthorized, "AUTH", "current password is incorrect")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			log.Println("[AUTH] [ERROR] change-password hash failed:", err)
			respondWithError(c, http.StatusInternalServerError, "AUTH", "password hash failed")
			return
		}

		_, err = db.Collection("users").UpdateOne(ctx,
			bson.M{"_id": user.ID},
			bson.M{"$set": bson.M{"passwordHash": string(hash), "updatedAt": time.Now().UTC()}},
		)
		if err != nil {
			log.Println("[AUTH] [ERROR] change-password update failed:", err)
			respondWithError(c, http.StatusInternalServerError, "AUTH", "db error")
			return
		}

		log.Println("[AUTH] [INFO] password changed:", user.Username)
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	}
}

// ChangeEmail handles POST /api/auth/change-email.
func ChangeEmail(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ChangeEmailRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := dbContext()
		defer cancel()

		user, err := findUserByUsername(ctx, db, middleware.Username(c))
		if err != nil {
			log.Println("[AUTH] [ERROR] change-email lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, "AUTH", "db error")
			return
		}
		if user == nil {
			respondWithError(c, http.StatusNotFound, "AUTH", "user not found")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			respondWithError(c, http.StatusUnauthorized, "AUTH", "password is incorrect")
			return
		}

		newEmail := strings.ToLower(strings.TrimSpace(req.NewEmail))
		if newEmail == user.Email {
			respondWithError(c, http.StatusBadRequest, "AUTH", "new email matches the current one")
			return
		}

		count, err := db.Collection("users").CountDocuments(ctx, bson.M{"email": newEmail})
		if err != nil {
			log.Println("[AUTH] [ERROR] change-email db error:", err)
			respondWithError(c, http.StatusInternalServerError, "AUTH", "db error")
			return
		}
		if count > 0 {
			respondWithError(c, http.StatusConflict, "AUTH", "email already in use")
			return
		}

		_, err = db.Collection("users").UpdateOne(ctx,
			bson.M{"_id": user.ID},
			bson.M{"$set": bson.M{"email": newEmail, "updatedAt": time.Now().UTC()}},
		)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondWithError(c, http.StatusConflict, "AUTH", "email already in use")
				return
			}
			log.Println("[AUTH] [ERROR] change-email update failed:", err)
			respondWithError(c, http.StatusInternalServerError, "AUTH", "db error")
			return
		}

		log.Println("[AUTH] [INFO] email changed:", user.Username)
		c.JSON(http.StatusOK, gin.H{"status": "success", "email": newEmail})
	}
}
