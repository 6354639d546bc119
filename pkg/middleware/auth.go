package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// コンテキストキー。
const (
	contextKeyUserID = "user_id"
	contextKeyEmail  = "email"
)

// Principal は認証済みユーザー。
type Principal struct {
	// UserID はユーザーの一意識別子。
	UserID string
	// Email はユーザーのメールアドレス。
	Email string
}

// Authenticator は認証情報を検証する。
type Authenticator interface {
	// AuthenticateToken はトークンを検証する。
	AuthenticateToken(ctx context.Context, token string) (Principal, error)
	// AuthenticateBasic はメールアドレスとパスワードを検証する。
	AuthenticateBasic(ctx context.Context, email, password string) (Principal, error)
}

// Auth はAuthorizationヘッダーを検証するGinミドルウェアを返す。
// "Bearer <token>"、"Token <token>"、Basic認証のいずれかを受け付ける。
// 検証に成功した場合、コンテキストに "user_id" と "email" を設定する。
func Auth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authentication credentials were not provided.")
			return
		}

		var (
			principal Principal
			err       error
		)
		switch scheme, value, _ := strings.Cut(authHeader, " "); {
		case strings.EqualFold(scheme, "Bearer"), strings.EqualFold(scheme, "Token"):
			if value == "" {
				abortUnauthorized(c, "Invalid token header. No credentials provided.")
				return
			}
			principal, err = a.AuthenticateToken(c.Request.Context(), value)
			if err != nil {
				abortUnauthorized(c, "Invalid token.")
				return
			}
		case strings.EqualFold(scheme, "Basic"):
			email, password, ok := c.Request.BasicAuth()
			if !ok {
				abortUnauthorized(c, "Invalid basic header.")
				return
			}
			principal, err = a.AuthenticateBasic(c.Request.Context(), email, password)
			if err != nil {
				abortUnauthorized(c, "Invalid username/password.")
				return
			}
		default:
			abortUnauthorized(c, "Authentication credentials were not provided.")
			return
		}

		c.Set(contextKeyUserID, principal.UserID)
		c.Set(contextKeyEmail, principal.Email)
		c.Next()
	}
}

// abortUnauthorized は401を返して処理を中断する。
func abortUnauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", `Token realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}

// GetUserID はGinコンテキストからユーザーIDを取得する。
// Authミドルウェアが事前に適用されている必要がある。
func GetUserID(c *gin.Context) string {
	return c.GetString(contextKeyUserID)
}

// GetEmail はGinコンテキストからメールアドレスを取得する。
func GetEmail(c *gin.Context) string {
	return c.GetString(contextKeyEmail)
}
