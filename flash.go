package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	flashCookie = "flash"
	flashTTL    = 5 * time.Minute
	ctxFlashes  = "flashes"
)

const (
	flashSuccess = "success"
	flashInfo    = "info"
	flashWarning = "warning"
	flashError   = "error"
)

type flash struct {
	Level string `json:"l"`
	Text  string `json:"t"`
}

type flashClaims struct {
	Messages []flash `json:"msgs"`
	jwt.RegisteredClaims
}

// addFlash queues a message for the next rendered page.
func addFlash(c *gin.Context, level, text string) {
	msgs := append(pendingFlashes(c), flash{Level: level, Text: text})
	c.Set(ctxFlashes, msgs)
	claims := flashClaims{
		Messages: msgs,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(flashTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
	if err != nil {
		return
	}
	setCookie(c, flashCookie, signed, int(flashTTL.Seconds()))
}

// pendingFlashes returns the messages queued by this request or, failing
// that, by the previous one.
func pendingFlashes(c *gin.Context) []flash {
	if v, ok := c.Get(ctxFlashes); ok {
		msgs, _ := v.([]flash)
		return msgs
	}
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return nil
	}
	claims := &flashClaims{}
	_, err = jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil
	}
	return claims.Messages
}

// popFlashes returns the pending messages and clears them.
func popFlashes(c *gin.Context) []flash {
	msgs := pendingFlashes(c)
	c.Set(ctxFlashes, []flash(nil))
	if _, err := c.Cookie(flashCookie); err == nil || len(msgs) > 0 {
		setCookie(c, flashCookie, "", -1)
	}
	return msgs
}
