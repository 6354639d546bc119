package account

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nao1215/cryptomarket/pkg/middleware"
)

// Handler はアカウント関連のHTTPハンドラ。
type Handler struct {
	// users はユーザーストア。
	users UserStore
	// tokens はトークンストア。
	tokens TokenStore
	// logger は構造化ロガー。
	logger *zap.Logger
}

// NewHandler は新しいHandlerを生成する。
func NewHandler(users UserStore, tokens TokenStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	RegisterValidations()
	return &Handler{users: users, tokens: tokens, logger: logger}
}

// RegisterRoutes はルートを登録する。
// public には認証不要のルート、authed には認証必須のルートを登録する。
func (h *Handler) RegisterRoutes(public, authed gin.IRoutes) {
	public.POST("/register", h.handleRegister())
	public.POST("/login", h.handleLogin())
	authed.POST("/logout", h.handleLogout())
}

// handleRegister はユーザー登録を行うハンドラを返す。
func (h *Handler) handleRegister() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBind(&req); err != nil {
			fe, ok := translateBindError(err)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"detail": "JSON parse error"})
				return
			}
			registerFailed(c, fe)
			return
		}

		ctx := c.Request.Context()
		if _, err := h.users.FindByEmail(ctx, req.Email); err == nil {
			registerFailed(c, FieldErrors{"email": {msgEmailTaken}})
			return
		} else if !errors.Is(err, ErrUserNotFound) {
			h.logger.Error("ユーザーの検索に失敗", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "A server error occurred."})
			return
		}
		if req.Password != req.ConfirmPassword {
			registerFailed(c, FieldErrors{"Password": {msgPasswordMatch}})
			return
		}

		u, err := h.users.Create(ctx, NewUser{
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Password:  req.Password,
		})
		if errors.Is(err, ErrEmailTaken) {
			registerFailed(c, FieldErrors{"email": {msgEmailTaken}})
			return
		}
		if err != nil {
			h.logger.Error("ユーザーの登録に失敗", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "A server error occurred."})
			return
		}

		h.logger.Info("ユーザーを登録", zap.String("user_id", u.ID))
		c.JSON(http.StatusCreated, gin.H{
			"status":      true,
			"status_code": http.StatusCreated,
			"data":        u,
			"message":     "User Creation Successfull",
		})
	}
}

// registerFailed は登録失敗の400レスポンスを返す。
func registerFailed(c *gin.Context, fe FieldErrors) {
	c.JSON(http.StatusBadRequest, gin.H{
		"status":      false,
		"status_code": http.StatusBadRequest,
		"data":        "None",
		"message":     fe,
	})
}

// handleLogin はログインを行い、トークンを返すハンドラを返す。
func (h *Handler) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBind(&req); err != nil {
			fe, ok := translateBindError(err)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"detail": "JSON parse error"})
				return
			}
			c.JSON(http.StatusBadRequest, fe)
			return
		}

		ctx := c.Request.Context()
		u, err := h.users.VerifyPassword(ctx, req.Email, req.Password)
		if errors.Is(err, ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		if err != nil {
			h.logger.Error("パスワードの照合に失敗", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "A server error occurred."})
			return
		}

		token, err := h.tokens.Issue(ctx, u)
		if err != nil {
			h.logger.Error("トークンの発行に失敗", zap.String("user_id", u.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "A server error occurred."})
			return
		}
		if err := h.users.UpdateLastLogin(ctx, u.ID); err != nil {
			h.logger.Warn("最終ログイン日時の更新に失敗", zap.String("user_id", u.ID), zap.Error(err))
		}

		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"status_code": http.StatusOK,
			"data":        gin.H{"token": token},
			"message":     "User Login Successfull",
		})
	}
}

// handleLogout はユーザーのトークンを失効させるハンドラを返す。
func (h *Handler) handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if err := h.tokens.Revoke(c.Request.Context(), userID); err != nil {
			detail := err.Error()
			if errors.Is(err, ErrTokenNotFound) {
				detail = "User has no auth_token."
			} else {
				h.logger.Error("ログアウトに失敗", zap.String("user_id", userID), zap.Error(err))
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"success":     false,
				"status_code": http.StatusInternalServerError,
				"message":     "Logout failed.",
				"data":        detail,
			})
			return
		}

		h.logger.Info("ログアウト", zap.String("user_id", userID), zap.String("email", middleware.GetEmail(c)))
		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"status_code": http.StatusOK,
			"message":     "User logged out successfully.",
			"data":        "None",
		})
	}
}
