package handlers

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"noteboard/services"

	"github.com/gin-gonic/gin"
)

type ModerationHandlers struct {
	messages      *services.MessageService
	queue         *services.NotifyQueue
	approvalToken string
}

func NewModerationHandlers(messages *services.MessageService, queue *services.NotifyQueue, approvalToken string) *ModerationHandlers {
	return &ModerationHandlers{
		messages:      messages,
		queue:         queue,
		approvalToken: approvalToken,
	}
}

// ApproveMessage - approve из сессии модератора. Идемпотентна.
func (h *ModerationHandlers) ApproveMessage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message ID"})
		return
	}

	msg, err := h.messages.Approve(c.Request.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to approve message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Message approved successfully",
		"data":    msg,
	})
}

// RejectMessage - reject из сессии модератора. Удаление необратимо.
func (h *ModerationHandlers) RejectMessage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message ID"})
		return
	}

	err = h.messages.Reject(c.Request.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reject message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Message rejected and deleted successfully"})
}

type emailActionRequest struct {
	MessageID int64  `json:"messageId"`
	Token     string `json:"token"`
}

// emailActionParams разбирает messageId и token: query для GET (ссылка из
// письма), JSON body для POST (программный вызов)
func (h *ModerationHandlers) emailActionParams(c *gin.Context) (int64, string, bool) {
	if c.Request.Method == http.MethodGet {
		id, err := strconv.ParseInt(c.Query("messageId"), 10, 64)
		if err != nil {
			return 0, "", false
		}
		return id, c.Query("token"), true
	}

	var req emailActionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.MessageID == 0 {
		return 0, "", false
	}
	return req.MessageID, req.Token, true
}

func (h *ModerationHandlers) checkApprovalToken(token string) bool {
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.approvalToken)) == 1
}

// ApproveFromEmail - approve по ссылке из письма: общий токен вместо сессии,
// HTML для GET (клик человека) и JSON для POST
func (h *ModerationHandlers) ApproveFromEmail(c *gin.Context) {
	id, token, ok := h.emailActionParams(c)
	if !ok {
		h.respond(c, http.StatusBadRequest, "Bad Request", "Missing 'messageId' field", gin.H{"error": "Missing 'messageId' field"})
		return
	}
	if !h.checkApprovalToken(token) {
		h.respond(c, http.StatusUnauthorized, "Unauthorized", "Invalid token. Please use the link from your email.", gin.H{"error": "Unauthorized: Invalid token"})
		return
	}

	msg, err := h.messages.Approve(c.Request.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		h.respond(c, http.StatusNotFound, "Message Not Found",
			fmt.Sprintf("Message ID %d was not found.", id), gin.H{"error": "Message not found"})
		return
	}
	if err != nil {
		h.respond(c, http.StatusInternalServerError, "Error", "Failed to approve message", gin.H{"error": "Failed to approve message"})
		return
	}

	h.respond(c, http.StatusOK, "Message Approved",
		fmt.Sprintf("Message ID %d has been approved and is now visible on the board.", id),
		gin.H{"message": "Message approved successfully", "data": msg})
}

// RejectFromEmail - reject по ссылке из письма
func (h *ModerationHandlers) RejectFromEmail(c *gin.Context) {
	id, token, ok := h.emailActionParams(c)
	if !ok {
		h.respond(c, http.StatusBadRequest, "Bad Request", "Missing 'messageId' field", gin.H{"error": "Missing 'messageId' field"})
		return
	}
	if !h.checkApprovalToken(token) {
		h.respond(c, http.StatusUnauthorized, "Unauthorized", "Invalid token. Please use the link from your email.", gin.H{"error": "Unauthorized: Invalid token"})
		return
	}

	err := h.messages.Reject(c.Request.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		h.respond(c, http.StatusNotFound, "Message Not Found",
			fmt.Sprintf("Message ID %d was not found.", id), gin.H{"error": "Message not found"})
		return
	}
	if err != nil {
		h.respond(c, http.StatusInternalServerError, "Error", "Failed to reject message", gin.H{"error": "Failed to reject message"})
		return
	}

	h.respond(c, http.StatusOK, "Message Rejected",
		fmt.Sprintf("Message ID %d has been rejected and deleted.", id),
		gin.H{"message": "Message rejected and deleted successfully"})
}

// respond выбирает представление по методу: GET из письма получает HTML-страницу
func (h *ModerationHandlers) respond(c *gin.Context, status int, title, text string, body gin.H) {
	if c.Request.Method == http.MethodGet {
		html := fmt.Sprintf(`<html><head><title>%s</title></head><body><h1>%s</h1><p>%s</p></body></html>`, title, title, text)
		c.Data(status, "text/html; charset=utf-8", []byte(html))
		return
	}
	c.JSON(status, body)
}

// QueueStats - статистика очереди уведомлений (операторский эндпоинт)
func (h *ModerationHandlers) QueueStats(c *gin.Context) {
	if h.queue == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Queue service not available"})
		return
	}
	c.JSON(http.StatusOK, h.queue.GetStats(c.Request.Context()))
}
