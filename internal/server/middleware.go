package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"drinkup/internal/db"
	svcErr "drinkup/internal/errors"
)

const currentUserKey = "current_user"

// fail writes the error as a JSON body with the status its kind maps to.
func fail(c *gin.Context, err error) {
	c.JSON(svcErr.HTTPStatus(err), gin.H{"error": svcErr.Message(err)})
}

// RequireUser resolves the Bearer access token into the current user
// and aborts with 401 when it cannot.
func (s *Server) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			fail(c, svcErr.Unauthorized("missing bearer token"))
			c.Abort()
			return
		}
		user, err := s.authSvc.ResolveUser(c.Request.Context(), parts[1])
		if err != nil {
			fail(c, err)
			c.Abort()
			return
		}
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// RequireAdmin gates admin routes on the shared admin key header.
func (s *Server) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-Admin-Key")
		expected := s.appCtx.Config.Auth.AdminKey
		if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(expected)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorised"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// isAdmin reports whether the request carries a valid admin key.
// Used where owner-or-admin checks share a route.
func (s *Server) isAdmin(c *gin.Context) bool {
	key := c.GetHeader("X-Admin-Key")
	expected := s.appCtx.Config.Auth.AdminKey
	return key != "" && subtle.ConstantTimeCompare([]byte(key), []byte(expected)) == 1
}

// currentUser returns the user resolved by RequireUser.
func currentUser(c *gin.Context) *db.User {
	value, _ := c.Get(currentUserKey)
	user, _ := value.(*db.User)
	return user
}
