package middlewares

import (
	"crypto/subtle"
	"net/http"
	"os"

	"github.com/dice-app/dice/utils"
	Logger "github.com/dice-app/dice/utils/log"
	"github.com/gin-gonic/gin"
)

const (
	AdminUsernameEnv = "ADMIN_USERNAME"
	AdminPasswordEnv = "DICE_ADMIN_PASSWORD"
	DefaultAdminUser = "admin"
)

// AdminCredential is checked by AdminAuth. An empty password locks the admin
// routes, Bypass opens them for local development.
type AdminCredential struct {
	Username string
	Password string
	Bypass   bool
}

// AdminCredentialFromEnv reads the admin credential, the username defaults to
// "admin".
func AdminCredentialFromEnv() AdminCredential {
	cred := AdminCredential{
		Username: os.Getenv(AdminUsernameEnv),
		Password: os.Getenv(AdminPasswordEnv),
	}
	if cred.Username == "" {
		cred.Username = DefaultAdminUser
	}
	if cred.Password == "" {
		Logger.Log.Warn("no admin password set, admin routes are locked")
	}
	return cred
}

// AdminAuth middleware checks the basic auth header of the request against
// cred. It aborts with 401 on a missing or wrong credential.
func AdminAuth(cred AdminCredential) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cred.Bypass {
			c.Next()
			return
		}
		user, password, ok := c.Request.BasicAuth()
		if !ok || cred.Password == "" || !equal(user, cred.Username) || !equal(password, cred.Password) {
			c.Header("WWW-Authenticate", `Basic realm="dice admin"`)
			c.JSON(http.StatusUnauthorized, gin.H{
				"code": utils.ErrorAdminAuthFail,
				"msg":  "invalid admin credential",
			})
			c.Abort()
			return
		}
		c.Set(gin.AuthUserKey, user)
		c.Next()
	}
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
