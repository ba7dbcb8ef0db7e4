package services

import (
	"context"
	"errors"
	"log"
	"time"

	"noteboard/db"
	"noteboard/models"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("message not found")

// PendingReviewNotice - пояснение для автора, когда записка ушла на модерацию
const PendingReviewNotice = "Your message has been flagged and is waiting for approval from a moderator. " +
	"If approved, your message will be posted to the board."

// SubmitRequest - проверенный вход оркестратора: email уже разрешен Identity Gate
type SubmitRequest struct {
	Recipients string
	Body       string
	Color      string
	UserEmail  string
}

type MessageService struct {
	Moderation   *ModerationClient
	Notifier     *Notifier
	DefaultColor string
}

func NewMessageService(moderation *ModerationClient, notifier *Notifier, defaultColor string) *MessageService {
	if defaultColor == "" {
		defaultColor = "#f0f0f0"
	}
	return &MessageService{
		Moderation:   moderation,
		Notifier:     notifier,
		DefaultColor: defaultColor,
	}
}

// Submit - ядро конвейера: модерация, запись, уведомление.
// approved вычисляется до вставки, поэтому частичных состояний не бывает.
// Отказ классификатора закрывает публикацию (approved=false), а не запрос.
func (ms *MessageService) Submit(ctx context.Context, req SubmitRequest) (*models.Message, bool, error) {
	approved := false

	start := time.Now()
	verdict, err := ms.Moderation.Classify(ctx, req.Body)
	RecordModeration(err, time.Since(start))
	if err != nil {
		log.Printf("Moderation failed, message will be held for review: %v", err)
	} else {
		approved = !verdict.Severe
	}

	msg := &models.Message{
		Recipients: req.Recipients,
		Body:       req.Body,
		Color:      req.Color,
		UserEmail:  req.UserEmail,
		Approved:   approved,
		CreatedAt:  time.Now(),
	}
	if msg.Color == "" {
		msg.Color = ms.DefaultColor
	}

	if err := db.GetWriteDB(ctx).Create(msg).Error; err != nil {
		return nil, false, err
	}

	if approved {
		PublishBoardEvent(ctx, models.BoardEvent{
			Event:     "message.published",
			MessageID: msg.ID,
			Message:   publicView(msg),
			CreatedAt: msg.CreatedAt,
		})
		return msg, false, nil
	}

	// Строка уже в базе, модератора просят действовать над существующей записью.
	// Доставка не блокирует ответ автору и не влияет на исход запроса.
	if NotifyQueueInstance != nil && RedisClient != nil {
		go func(m models.Message) {
			if err := NotifyQueueInstance.EnqueueNotify(context.Background(), m); err != nil {
				log.Printf("Failed to enqueue moderator notification for message %d: %v", m.ID, err)
			}
		}(*msg)
	} else {
		// Fallback - без Redis уведомляем напрямую
		go func(m models.Message) {
			if err := ms.Notifier.Notify(context.Background(), &m); err != nil {
				log.Printf("Failed to notify moderator about message %d: %v", m.ID, err)
			}
		}(*msg)
	}

	return msg, true, nil
}

// ListApproved возвращает публичную доску: только approved, свежие первыми
func (ms *MessageService) ListApproved(ctx context.Context) ([]models.BoardMessage, error) {
	var board []models.BoardMessage
	err := db.GetReadOnlyDB(ctx).
		Model(&models.Message{}).
		Select("id, recipients, body, color, created_at").
		Where("approved = ?", true).
		Order("created_at DESC, id DESC").
		Scan(&board).Error
	if err != nil {
		return nil, err
	}
	if board == nil {
		board = []models.BoardMessage{}
	}
	return board, nil
}

// Approve выставляет approved=true. Идемпотентна: повторный approve - no-op успех.
func (ms *MessageService) Approve(ctx context.Context, id int64) (*models.Message, error) {
	var msg models.Message
	err := db.GetWriteDB(ctx).First(&msg, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if !msg.Approved {
		if err := db.GetWriteDB(ctx).Model(&msg).Update("approved", true).Error; err != nil {
			return nil, err
		}
		msg.Approved = true
	}

	PublishBoardEvent(ctx, models.BoardEvent{
		Event:     "message.approved",
		MessageID: msg.ID,
		Message:   publicView(&msg),
		CreatedAt: time.Now(),
	})
	return &msg, nil
}

// Reject удаляет записку навсегда. Отсутствующий id - ErrNotFound,
// одинаково на обоих путях авторизации.
func (ms *MessageService) Reject(ctx context.Context, id int64) error {
	var msg models.Message
	err := db.GetWriteDB(ctx).First(&msg, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if err := db.GetWriteDB(ctx).Delete(&models.Message{}, id).Error; err != nil {
		return err
	}

	PublishBoardEvent(ctx, models.BoardEvent{
		Event:     "message.rejected",
		MessageID: id,
		CreatedAt: time.Now(),
	})
	return nil
}

func publicView(msg *models.Message) *models.BoardMessage {
	return &models.BoardMessage{
		ID:         msg.ID,
		Recipients: msg.Recipients,
		Body:       msg.Body,
		Color:      msg.Color,
		CreatedAt:  msg.CreatedAt,
	}
}
