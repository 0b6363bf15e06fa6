package handlers

import (
	"crypto/rand"
	"log"
	"math/big"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/davidkych/cursus-backend/internal/middleware"
	"github.com/davidkych/cursus-backend/internal/models"
)

// codeAlphabet omits lookalike characters (I, O, 0, 1).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const generatedCodeLength = 20

var codeRe = regexp.MustCompile(`^[A-Z0-9]{6,64}$`)

// functionField maps a code function to the user document field it flips.
var functionField = map[string]string{
	models.FunctionIsAdmin:         "isAdmin",
	models.FunctionIsPremiumMember: "isPremiumMember",
}

type GenerateCodeRequest struct {
	Mode      string `json:"mode" binding:"required,oneof=oneoff reusable single"`
	Function  string `json:"function" binding:"required,oneof=is_admin is_premium_member"`
	ExpiresAt string `json:"expires_at" binding:"required"`
	Code      string `json:"code"`
}

type RedeemCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// normalizeCode uppercases and strips whitespace from a client-supplied code.
func normalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// checkRedemption decides whether the user may redeem the code now: expired
// codes are gone, globally consumed codes and per-user repeats conflict.
func checkRedemption(code *models.Code, username string, now time.Time) (int, string) {
	if now.After(code.ExpiresAt) {
		return http.StatusGone, "code has expired"
	}
	if code.Consumed {
		return http.StatusConflict, "code already consumed"
	}
	for _, r := range code.Redemptions {
		if r.Username == username {
			return http.StatusConflict, "code already redeemed by this account"
		}
	}
	return 0, ""
}

// consumesGlobally reports whether a successful redemption retires the code
// for every other account. Only reusable codes survive their first redeem.
func consumesGlobally(mode string) bool {
	return mode != models.CodeModeReusable
}

func randomCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, generatedCodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// GenerateCode handles POST /api/auth/codes/generate (admin only).
func GenerateCode(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GenerateCodeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := dbContext()
		defer cancel()

		caller, err := findUserByUsername(ctx, db, middleware.Username(c))
		if err != nil {
			log.Println("[CODES] [ERROR] caller lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, "CODES", "db error")
			return
		}
		if caller == nil || !caller.IsAdmin {
			respondWithError(c, http.StatusForbidden, "CODES", "admin only")
			return
		}

		expiresAt, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "CODES", "expires_at must be RFC3339")
			return
		}
		if !expiresAt.After(time.Now()) {
			respondWithError(c, http.StatusBadRequest, "CODES", "expires_at must be in the future")
			return
		}

		var code string
		switch req.Mode {
		case models.CodeModeOneoff:
			code, err = randomCode()
			if err != nil {
				log.Println("[CODES] [ERROR] code generation failed:", err)
				respondWithError(c, http.StatusInternalServerError, "CODES", "code generation failed")
				return
			}
		default:
			code = normalizeCode(req.Code)
			if !codeRe.MatchString(code) {
				respondWithError(c, http.StatusBadRequest, "CODES", "code must match [A-Z0-9]{6,64}")
				return
			}
		}

		doc := models.Code{
			ID:        code,
			Mode:      req.Mode,
			Function:  req.Function,
			ExpiresAt: expiresAt.UTC(),
			CreatedAt: time.Now().UTC(),
		}
		if _, err := db.Collection("codes").InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondWithError(c, http.StatusConflict, "CODES", "code already exists")
				return
			}
			log.Println("[CODES] [ERROR] insert failed:", err)
			respondWithError(c, http.StatusInternalServerError, "CODES", "db error")
			return
		}

		log.Println("[CODES] [INFO] code generated, mode:", req.Mode, "function:", req.Function)
		c.JSON(http.StatusCreated, gin.H{
			"code":       code,
			"mode":       req.Mode,
			"function":   req.Function,
			"expires_at": doc.ExpiresAt.Format(time.RFC3339),
		})
	}
}

// RedeemCode handles POST /api/auth/codes/redeem. Every mode is once per
// user; oneoff and single codes are additionally consumed globally on the
// first successful redemption.
func RedeemCode(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RedeemCodeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := dbContext()
		defer cancel()

		username := middleware.Username(c)
		code := normalizeCode(req.Code)

		var doc models.Code
		err := db.Collection("codes").FindOne(ctx, bson.M{"_id": code}).Decode(&doc)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, "CODES", "code not found")
			return
		}
		if err != nil {
			log.Println("[CODES] [ERROR] lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, "CODES", "db error")
			return
		}

		if status, msg := checkRedemption(&doc, username, time.Now()); status != 0 {
			respondWithError(c, status, "CODES", msg)
			return
		}

		now := time.Now().UTC()
		update := bson.M{
			"$push": bson.M{"redemptions": models.Redemption{Username: username, RedeemedAt: now}},
		}
		filter := bson.M{
			"_id":                  code,
			"consumed":             bson.M{"$ne": true},
			"redemptions.username": bson.M{"$ne": username},
		}
		if consumesGlobally(doc.Mode) {
			update["$set"] = bson.M{"consumed": true, "consumedBy": username, "consumedAt": now}
		}

		res, err := db.Collection("codes").UpdateOne(ctx, filter, update)
		if err != nil {
			log.Println("[CODES] [ERROR] redeem update failed:", err)
			respondWithError(c, http.StatusInternalServerError, "CODES", "db error")
			return
		}
		if res.ModifiedCount == 0 {
			// Lost a race with a concurrent redemption.
			respondWithError(c, http.StatusConflict, "CODES", "code already consumed")
			return
		}

		_, err = db.Collection("users").UpdateOne(ctx,
			bson.M{"_id": username},
			bson.M{"$set": bson.M{functionField[doc.Function]: true, "updatedAt": now}},
		)
		if err != nil {
			log.Println("[CODES] [ERROR] user flag update failed:", err)
			respondWithError(c, http.StatusInternalServerError, "CODES", "db error")
			return
		}

		log.Println("[CODES] [INFO] code redeemed by", username, "function:", doc.Function)
		c.JSON(http.StatusOK, gin.H{"status": "success", "function": doc.Function})
	}
}
