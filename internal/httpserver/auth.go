package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"localbazaar/internal/domain"
	accountsvc "localbazaar/internal/service/account"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresIn   int             `json:"expires_in"`
	ExpiresAt   time.Time       `json:"expires_at"`
	Account     *domain.Account `json:"account"`
}

func registerHandler(svc AccountService, role domain.Role, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req accountsvc.RegisterInput
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		a, err := svc.Register(c.Request.Context(), role, req)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, a)
	}
}

func loginHandler(svc AccountService, role domain.Role, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "email and password are required")
			return
		}
		session, err := svc.Login(c.Request.Context(), role, req.Email, req.Password)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, loginResponse{
			AccessToken: session.Token,
			TokenType:   "Bearer",
			ExpiresIn:   svc.AccessTTLSeconds(),
			ExpiresAt:   session.ExpiresAt,
			Account:     session.Account,
		})
	}
}

func logoutHandler(svc AccountService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Logout(c.Request.Context(), bearerToken(c)); err != nil {
			writeError(c, logger, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func profileHandler(svc AccountService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, err := svc.Profile(c.Request.Context(), mustPrincipal(c).AccountID)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, a)
	}
}

func updateProfileHandler(svc AccountService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req accountsvc.ProfileInput
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		a, err := svc.UpdateProfile(c.Request.Context(), mustPrincipal(c).AccountID, req)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, a)
	}
}
