package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/perchlabs/boothboard/internal/common/dto"
	"github.com/perchlabs/boothboard/internal/directory"
)

// Login handles user login. Unknown usernames and wrong passwords produce
// the same response so accounts cannot be enumerated.
func (h *Handler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	scope, err := h.store.Authenticate(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, directory.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
			return
		}
		h.respondError(c, err)
		return
	}

	token, err := h.jwtService.GenerateToken(req.Username, string(scope.Role), scope.ClientName)
	if err != nil {
		h.logger.Error("failed to generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	h.logger.Info("user logged in",
		zap.String("username", req.Username),
		zap.String("role", string(scope.Role)))

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": dto.UserInfo{
			Username:   req.Username,
			Role:       string(scope.Role),
			ClientName: scope.ClientName,
		},
	})
}

// Logout ends the session. Tokens are stateless, so the server side only
// acknowledges; the client discards the token.
func (h *Handler) Logout(c *gin.Context) {
	if _, ok := scopeFromContext(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
