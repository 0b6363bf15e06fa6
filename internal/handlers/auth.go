package handlers

import (
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/davidkych/cursus-backend/internal/blobstore"
	"github.com/davidkych/cursus-backend/internal/middleware"
	"github.com/davidkych/cursus-backend/internal/models"
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_\-.]{3,40}$`)

type RegisterRequest struct {
	Username     string `json:"username" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8,max=100"`
	Gender       string `json:"gender"`
	DOB          string `json:"dob"`
	Country      string `json:"country"`
	ProfilePicID int    `json:"profile_pic_id"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// userPublic is the /api/auth/me response shape.
type userPublic struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Gender          string `json:"gender,omitempty"`
	DOB             string `json:"dob,omitempty"`
	Country         string `json:"country,omitempty"`
	ProfilePicID    int    `json:"profile_pic_id"`
	ProfilePicType  string `json:"profile_pic_type"`
	ProfilePicURL   string `json:"profile_pic_url,omitempty"`
	IsAdmin         bool   `json:"is_admin"`
	IsPremiumMember bool   `json:"is_premium_member"`
	CreatedAt       string `json:"created_at"`
}

// Register handles POST /api/auth/register.
func Register(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		username := strings.TrimSpace(req.Username)
		email := strings.ToLower(strings.TrimSpace(req.Email))
		if !usernameRe.MatchString(username) {
			respondWithError(c, http.StatusBadRequest, "AUTH", "username must be 3-40 characters [A-Za-z0-9_-.]")
			return
		}

		ctx, cancel := dbContext()
		defer cancel()

		count, err := db.Collection("users").CountDocuments(ctx, bson.M{
			"$or": []bson.M{
				{"username": username},
				{"email": email},
			},
		})
		if err != nil {
			log.Println("[AUTH] [ERROR] register db error:", err)
			respondWithError(c, http.StatusInternalServerError, "AUTH", "db error")
			return
		}
		if count > 0 {
			log.Println("[AUTH] [ERROR] register duplicate:", username)
			respondWithError(c, http.StatusConflict, "AUTH", "username or email already exists")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Println("[AUTH] [ERROR] register password hash failed:", err)
			respondWithError(c, http.StatusInternalServerError, "AUTH", "password hash failed")
			return
		}

		now := time.Now().UTC()
		profilePicID := req.ProfilePicID
		if profilePicID < 1 {
			profilePicID = 1
		}
		user := models.User{
			ID:             username,
			Username:       username,
			Email:          email,
			PasswordHash:   string(hash),
			Gender:         strings.TrimSpace(req.Gender),
			DOB:            strings.TrimSpace(req.DOB),
			Country:        strings.TrimSpace(req.Country),
			ProfilePicID:   profilePicID,
			ProfilePicType: "default",
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		if _, err := db.Collection("users").InsertOne(ctx, user); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondWithError(c, http.StatusConflict, "AUTH", "username or email already exists")
				return
			}
			log.Println("[AUTH] [ERROR] register insert failed:", err)
			respondWithError(c, http.StatusInternalServerError, "AUTH", "db error")
			return
		}

		log.Println("[AUTH] [INFO] user registered:", username)
		c.JSON(http.StatusCreated, publicProfile(&user, ""))
	}
}

// Login handles POST /api/auth/login and issues an HS256 access token.
func Login(db *mongo.Database, jwtSecret string, accessTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, "AUTH", "invalid body")
			return
		}

		ctx, cancel := dbContext()
		defer cancel()

		user, err := findUserByUsername(ctx, db, strings.TrimSpace(req.Username))
		if err != nil {
			log.Println("[AUTH] [ERROR] login lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, "AUTH", "db error")
			return
		}
		if user == nil {
			respondWithError(c, http.StatusUnauthorized, "AUTH", "invalid credentials")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			log.Println("[AUTH] [ERROR] login invalid credentials for", user.Username)
			respondWithError(c, http.StatusUnauthorized, "AUTH", "invalid credentials")
			return
		}

		token, err := issueToken(user.Username, jwtSecret, accessTTL, nil)
		if err != nil {
			log.Println("[AUTH] [ERROR] login token generation failed:", err)
			respondWithError(c, http.StatusInternalServerError, "AUTH", "token generation failed")
			return
		}

		log.Println("[AUTH] [INFO] login succeeded:", user.Username)
		c.JSON(http.StatusOK, gin.H{
			"access_token": token,
			"token_type":   "bearer",
			"expires_in":   int64(accessTTL.Seconds()),
		})
	}
}

// GetMe handles GET /api/auth/me.
func GetMe(db *mongo.Database, avatars *blobstore.Store, avatarTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := dbContext()
		defer cancel()

		user, err := findUserByUsername(ctx, db, middleware.Username(c))
		if err != nil {
			log.Println("[AUTH] [ERROR] me lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, "AUTH", "db error")
			return
		}
		if user == nil {
			respondWithError(c, http.StatusNotFound, "AUTH", "user not found")
			return
		}

		avatarURL := ""
		if user.ProfilePicType == "custom" && user.CustomAvatar != nil && avatars != nil {
			url, err := avatars.PresignGet(ctx, user.CustomAvatar.Blob, avatarTTL)
			if err != nil {
				log.Println("[AUTH] [ERROR] avatar presign failed:", err)
			} else {
				avatarURL = url
			}
		}

		c.JSON(http.StatusOK, publicProfile(user, avatarURL))
	}
}

func publicProfile(user *models.User, avatarURL string) userPublic {
	return userPublic{
		ID:              user.ID,
		Username:        user.Username,
		Email:           user.Email,
		Gender:          user.Gender,
		DOB:             user.DOB,
		Country:         user.Country,
		ProfilePicID:    user.ProfilePicID,
		ProfilePicType:  user.ProfilePicType,
		ProfilePicURL:   avatarURL,
		IsAdmin:         user.IsAdmin,
		IsPremiumMember: user.IsPremiumMember,
		CreatedAt:       user.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// issueToken signs an HS256 JWT for the subject, merging any extra claims.
func issueToken(username, secret string, ttl time.Duration, extra jwt.MapClaims) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": username,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	for k, v := range extra {
		claims[k] = v
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
