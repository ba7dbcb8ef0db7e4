package handlers

import (
	"net/http"

	"noteboard/models"
	"noteboard/services"

	"github.com/gin-gonic/gin"
)

type MessageHandlers struct {
	messages *services.MessageService
}

func NewMessageHandlers(messages *services.MessageService) *MessageHandlers {
	return &MessageHandlers{messages: messages}
}

type SubmitMessageRequest struct {
	Recipients string `json:"recipients" binding:"required"`
	Body       string `json:"body" binding:"required"`
	Color      string `json:"color"`
}

// SubmitMessageResponse - сохраненная строка плюс пояснение при pending review
type SubmitMessageResponse struct {
	*models.Message
	Notice string `json:"message,omitempty"`
}

// SubmitMessage принимает новую записку. Email автора уже разрешен middleware,
// валидация входа идет до вызова классификатора - квоту на мусор не тратим.
func (h *MessageHandlers) SubmitMessage(c *gin.Context) {
	userEmail, exists := c.Get("user_email")
	if !exists {
		services.RecordSubmission("unauthenticated")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req SubmitMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		services.RecordSubmission("bad_input")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'recipients' or 'body'"})
		return
	}

	msg, pending, err := h.messages.Submit(c.Request.Context(), services.SubmitRequest{
		Recipients: req.Recipients,
		Body:       req.Body,
		Color:      req.Color,
		UserEmail:  userEmail.(string),
	})
	if err != nil {
		services.RecordSubmission("store_error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save message"})
		return
	}

	if pending {
		services.RecordSubmission("pending_review")
		c.JSON(http.StatusCreated, SubmitMessageResponse{
			Message: msg,
			Notice:  services.PendingReviewNotice,
		})
		return
	}

	services.RecordSubmission("published")
	c.JSON(http.StatusCreated, SubmitMessageResponse{Message: msg})
}

// ListMessages отдает публичную доску: только approved, без user_email
func (h *MessageHandlers) ListMessages(c *gin.Context) {
	board, err := h.messages.ListApproved(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, board)
}
