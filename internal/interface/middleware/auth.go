package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-auth-boilerplate/internal/application"
	"github.com/oksasatya/go-auth-boilerplate/pkg/helpers"
	"github.com/oksasatya/go-auth-boilerplate/pkg/response"
)

// Auth validates the access token against the active Redis session, then
// loads the current user record so downstream handlers see fresh profile
// values rather than whatever the token was minted with. When the database
// read fails the session hash values are used as-is.
// Sets userID, userName, userEmail, and userImage in the Gin context.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager, svc *application.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie("access_token")
		if err != nil || token == "" {
			response.Error[any](c, http.StatusUnauthorized, "missing access token", nil)
			c.Abort()
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Error[any](c, http.StatusUnauthorized, "invalid access token", err.Error())
			c.Abort()
			return
		}

		key := "user:session:" + claims.UserID
		data, err := rdb.HGetAll(c.Request.Context(), key).Result()
		if err != nil || len(data) == 0 {
			response.Error[any](c, http.StatusUnauthorized, "session not found", nil)
			c.Abort()
			return
		}
		// A token from before the last refresh rotation is no longer valid.
		if data["sid"] != claims.SessionID {
			response.Error[any](c, http.StatusUnauthorized, "session superseded", nil)
			c.Abort()
			return
		}

		name, email, image := data["name"], data["email"], data["image_url"]
		if svc != nil {
			if u, uErr := svc.GetProfile(c.Request.Context(), claims.UserID); uErr == nil {
				name, email = u.Name, u.Email
				image = ""
				if u.ProfileImage != nil {
					image = u.ProfileImage.URL
				}
			}
		}

		c.Set("userID", claims.UserID)
		c.Set("userName", name)
		c.Set("userEmail", email)
		c.Set("userImage", image)
		c.Next()
	}
}
