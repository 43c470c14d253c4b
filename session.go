package main

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"giveback/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	sessionCookie = "session"
	sessionTTL    = 30 * 24 * time.Hour
	ctxUser       = "user"
)

// sessionClaims is the payload of the session cookie. SID is the raw session
// token; only its hash is stored.
type sessionClaims struct {
	SID string `json:"sid"`
	UID uint   `json:"uid"`
	jwt.RegisteredClaims
}

// createSession generates a random session token, stores its hash with expiry and returns the raw token.
func createSession(ctx context.Context, userID uint) (string, time.Time, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", time.Time{}, err
	}
	token := hex.EncodeToString(b)
	expires := time.Now().Add(sessionTTL)
	s := models.Session{UserID: userID, TokenHash: hashToken(token), ExpiresAt: expires}
	if err := db.WithContext(ctx).Omit("User").Create(&s).Error; err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// findSessionByRaw returns the live session for token, or an error when it is
// unknown, revoked or expired.
func findSessionByRaw(ctx context.Context, token string) (*models.Session, error) {
	var s models.Session
	if err := db.WithContext(ctx).Where("token_hash = ?", hashToken(token)).First(&s).Error; err != nil {
		return nil, err
	}
	if s.Revoked || time.Now().After(s.ExpiresAt) {
		return nil, errors.New("session expired")
	}
	return &s, nil
}

// login starts a session for user and sets the signed session cookie.
func login(c *gin.Context, user *models.User) error {
	token, expires, err := createSession(c.Request.Context(), user.ID)
	if err != nil {
		return err
	}
	claims := sessionClaims{
		SID: token,
		UID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
	if err != nil {
		return err
	}
	setCookie(c, sessionCookie, signed, int(sessionTTL.Seconds()))
	c.Set(ctxUser, user)
	return nil
}

// logout revokes the current session, if any, and clears the cookie.
func logout(c *gin.Context) {
	if claims, err := parseSessionCookie(c); err == nil {
		err := db.WithContext(c.Request.Context()).Model(&models.Session{}).
			Where("token_hash = ?", hashToken(claims.SID)).
			Update("revoked", true).Error
		if err != nil {
			reqLogger(c).Warn("failed to revoke session", zap.Error(err))
		}
	}
	setCookie(c, sessionCookie, "", -1)
	c.Set(ctxUser, nil)
}

func parseSessionCookie(c *gin.Context) (*sessionClaims, error) {
	raw, err := c.Cookie(sessionCookie)
	if err != nil || raw == "" {
		return nil, http.ErrNoCookie
	}
	claims := &sessionClaims{}
	_, err = jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// sessionMiddleware resolves the signed-in user. A missing, invalid, expired
// or revoked session leaves the request anonymous.
func sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parseSessionCookie(c)
		if err != nil {
			if !errors.Is(err, http.ErrNoCookie) {
				setCookie(c, sessionCookie, "", -1)
			}
			c.Next()
			return
		}
		s, err := findSessionByRaw(c.Request.Context(), claims.SID)
		if err != nil || s.UserID != claims.UID {
			setCookie(c, sessionCookie, "", -1)
			c.Next()
			return
		}
		var user models.User
		if err := db.WithContext(c.Request.Context()).First(&user, s.UserID).Error; err != nil {
			setCookie(c, sessionCookie, "", -1)
			c.Next()
			return
		}
		c.Set(ctxUser, &user)
		c.Next()
	}
}

// getUserFromContext returns the user resolved by sessionMiddleware.
func getUserFromContext(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// loginRequired sends anonymous requests to the login page, remembering where they were going.
func loginRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := getUserFromContext(c); ok {
			c.Next()
			return
		}
		c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
		c.Abort()
	}
}

// safeNext accepts only local absolute paths.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/"
	}
	return next
}

func setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", cookieSecure, true)
}
