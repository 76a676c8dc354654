package middleware

import (
	"net/http"

	"stocks-finance/session"

	"github.com/gin-gonic/gin"
)

const (
	sessionKey = "session"
	userIDKey  = "user_id"
)

// Sessions loads the browser session and stores it in the gin context.
func Sessions(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := mgr.Load(c.Request)
		c.Set(sessionKey, s)
		if userID, ok := s.UserID(); ok {
			c.Set(userIDKey, userID)
		}
		c.Next()
	}
}

// RequireLogin sends anonymous visitors to the login form.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserID(c); !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// Session returns the session loaded by Sessions. Outside of that middleware
// it returns a fresh empty session.
func Session(c *gin.Context) *session.Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(*session.Session); ok {
			return s
		}
	}
	s := &session.Session{}
	c.Set(sessionKey, s)
	return s
}

func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	userID, ok := v.(uint)
	return userID, ok && userID != 0
}
