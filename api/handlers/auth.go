package handlers

import (
	"errors"
	"net/http"

	"noteboard/api/middleware"
	"noteboard/services"

	"github.com/gin-gonic/gin"
)

type AuthHandlers struct {
	moderators    *services.ModeratorService
	approvalToken string
}

func NewAuthHandlers(moderators *services.ModeratorService, approvalToken string) *AuthHandlers {
	return &AuthHandlers{moderators: moderators, approvalToken: approvalToken}
}

type RegisterRequest struct {
	Email         string `json:"email" binding:"required"`
	Password      string `json:"password" binding:"required"`
	ApprovalToken string `json:"approval_token" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register создает модератора. Регистрация закрыта общим approval токеном:
// завести учетку может только оператор, знающий секрет.
func (h *AuthHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.ApprovalToken != h.approvalToken {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid approval token"})
		return
	}

	moderator, err := h.moderators.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if err.Error() == "moderator already exists" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Moderator already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Moderator registered", "id": moderator.ID})
}

func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	token, err := h.moderators.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "token": token})
}

func (h *AuthHandlers) Logout(c *gin.Context) {
	token := middleware.BearerToken(c)
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token is empty"})
		return
	}

	if err := h.moderators.Logout(c.Request.Context(), token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}
