package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/davidkych/cursus-backend/internal/config"
	"github.com/davidkych/cursus-backend/internal/middleware"
	"github.com/davidkych/cursus-backend/internal/models"
)

type ImpersonateRequest struct {
	Username   string `json:"username" binding:"required"`
	TTLMinutes int    `json:"ttl_minutes"`
}

func requireAdmin(c *gin.Context, db *mongo.Database) *models.User {
	ctx, cancel := dbContext()
	defer cancel()

	caller, err := findUserByUsername(ctx, db, middleware.Username(c))
	if err != nil {
		log.Println("[ADMIN] [ERROR] caller lookup failed:", err)
		respondWithError(c, http.StatusInternalServerError, "ADMIN", "db error")
		return nil
	}
	if caller == nil || !caller.IsAdmin {
		respondWithError(c, http.StatusForbidden, "ADMIN", "admin only")
		return nil
	}
	return caller
}

// ListUsers handles GET /api/auth/admin/users (admin only).
func ListUsers(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if requireAdmin(c, db) == nil {
			return
		}

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "ADMIN", err.Error())
			return
		}

		filter := bson.M{}
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			filter["$or"] = []bson.M{
				{"username": bson.M{"$regex": search, "$options": "i"}},
				{"email": bson.M{"$regex": search, "$options": "i"}},
			}
		}

		ctx, cancel := dbContext()
		defer cancel()

		total, err := db.Collection("users").CountDocuments(ctx, filter)
		if err != nil {
			log.Println("[ADMIN] [ERROR] user count failed:", err)
			respondWithError(c, http.StatusInternalServerError, "ADMIN", "db error")
			return
		}

		findOpts := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip((page - 1) * limit).
			SetLimit(limit)

		cursor, err := db.Collection("users").Find(ctx, filter, findOpts)
		if err != nil {
			log.Println("[ADMIN] [ERROR] user listing failed:", err)
			respondWithError(c, http.StatusInternalServerError, "ADMIN", "db error")
			return
		}
		defer cursor.Close(ctx)

		var users []models.User
		if err := cursor.All(ctx, &users); err != nil {
			log.Println("[ADMIN] [ERROR] user decode failed:", err)
			respondWithError(c, http.StatusInternalServerError, "ADMIN", "db error")
			return
		}

		items := make([]userPublic, 0, len(users))
		for i := range users {
			items = append(items, publicProfile(&users[i], ""))
		}

		c.JSON(http.StatusOK, gin.H{
			"users": items,
			"page":  page,
			"limit": limit,
			"total": total,
		})
	}
}

// Impersonate handles POST /api/auth/admin/impersonate (admin only).
// The issued token carries sub=target plus imp/act markers so requests
// made with it act as the target while staying attributable.
func Impersonate(db *mongo.Database, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := requireAdmin(c, db)
		if caller == nil {
			return
		}

		var req ImpersonateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		target := strings.TrimSpace(req.Username)
		if target == caller.Username {
			respondWithError(c, http.StatusBadRequest, "ADMIN", "cannot impersonate yourself")
			return
		}

		ctx, cancel := dbContext()
		defer cancel()

		targetUser, err := findUserByUsername(ctx, db, target)
		if err != nil {
			log.Println("[ADMIN] [ERROR] impersonation target lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, "ADMIN", "db error")
			return
		}
		if targetUser == nil {
			respondWithError(c, http.StatusNotFound, "ADMIN", "user not found")
			return
		}

		ttl := cfg.ImpersonateTTLDefault
		if req.TTLMinutes > 0 {
			ttl = time.Duration(req.TTLMinutes) * time.Minute
		}
		if ttl < cfg.ImpersonateTTLMin {
			ttl = cfg.ImpersonateTTLMin
		}
		if ttl > cfg.ImpersonateTTLMax {
			ttl = cfg.ImpersonateTTLMax
		}

		token, err := issueToken(targetUser.Username, cfg.JWTSecret, ttl, jwt.MapClaims{
			"imp": true,
			"act": caller.Username,
		})
		if err != nil {
			log.Println("[ADMIN] [ERROR] impersonation token generation failed:", err)
			respondWithError(c, http.StatusInternalServerError, "ADMIN", "token generation failed")
			return
		}

		log.Println("[ADMIN] [INFO]", caller.Username, "impersonating", targetUser.Username, "for", ttl)
		c.JSON(http.StatusOK, gin.H{
			"access_token": token,
			"token_type":   "bearer",
			"expires_in":   int64(ttl.Seconds()),
			"impersonated": targetUser.Username,
		})
	}
}
