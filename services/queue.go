package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"noteboard/models"

	"github.com/go-redis/redis/v8"
)

const (
	MODERATOR_NOTIFY_QUEUE = "moderator_notify_queue"
	QUEUE_WORKER_COUNT     = 2
	NOTIFY_RETRY_DELAY     = 5 * time.Second
)

// NotifyTask - задача доставки письма модератору. Ставится в очередь только
// после коммита строки, чтобы модератор никогда не получал ссылку на
// несуществующую запись.
type NotifyTask struct {
	Message  models.Message `json:"message"`
	Attempts int            `json:"attempts"`
}

type NotifyQueue struct {
	notifier *Notifier
}

func NewNotifyQueue(notifier *Notifier) *NotifyQueue {
	return &NotifyQueue{notifier: notifier}
}

// StartWorkers запускает воркеры для обработки очереди уведомлений
func (nq *NotifyQueue) StartWorkers(ctx context.Context) {
	for i := 0; i < QUEUE_WORKER_COUNT; i++ {
		go nq.worker(ctx, i)
	}
}

func (nq *NotifyQueue) worker(ctx context.Context, workerID int) {
	log.Printf("Notify worker %d started", workerID)

	for {
		select {
		case <-ctx.Done():
			log.Printf("Notify worker %d stopping", workerID)
			return
		default:
			// Блокирующее чтение с таймаутом
			result, err := RedisClient.BLPop(ctx, 5*time.Second, MODERATOR_NOTIFY_QUEUE).Result()
			if err != nil {
				if err == redis.Nil {
					continue
				}
				log.Printf("Notify worker %d error getting task: %v", workerID, err)
				time.Sleep(time.Second)
				continue
			}

			if len(result) < 2 {
				continue
			}

			var task NotifyTask
			if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
				log.Printf("Notify worker %d error unmarshaling task: %v", workerID, err)
				continue
			}

			nq.processTask(ctx, &task, workerID)
		}
	}
}

// processTask доставляет письмо; одна повторная попытка, дальше только лог.
// Исход записки уже решен, откатывать нечего.
func (nq *NotifyQueue) processTask(ctx context.Context, task *NotifyTask, workerID int) {
	err := nq.notifier.Notify(ctx, &task.Message)
	if err == nil {
		return
	}

	log.Printf("Notify worker %d failed to deliver for message %d: %v", workerID, task.Message.ID, err)
	if task.Attempts >= 1 {
		log.Printf("Notify worker %d giving up on message %d after retry", workerID, task.Message.ID)
		return
	}

	task.Attempts++
	time.Sleep(NOTIFY_RETRY_DELAY)
	if err := nq.enqueue(ctx, task); err != nil {
		log.Printf("Notify worker %d failed to requeue message %d: %v", workerID, task.Message.ID, err)
	}
}

// EnqueueNotify добавляет задачу уведомления в очередь
func (nq *NotifyQueue) EnqueueNotify(ctx context.Context, msg models.Message) error {
	return nq.enqueue(ctx, &NotifyTask{Message: msg})
}

func (nq *NotifyQueue) enqueue(ctx context.Context, task *NotifyTask) error {
	if RedisClient == nil {
		return fmt.Errorf("redis not available")
	}

	taskData, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	if err := RedisClient.RPush(ctx, MODERATOR_NOTIFY_QUEUE, taskData).Err(); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	log.Printf("Enqueued moderator notification for message %d", task.Message.ID)
	return nil
}

// GetStats возвращает статистику очереди для операторов
func (nq *NotifyQueue) GetStats(ctx context.Context) map[string]interface{} {
	stats := make(map[string]interface{})

	if RedisClient != nil {
		stats["queue_length"] = RedisClient.LLen(ctx, MODERATOR_NOTIFY_QUEUE).Val()
		stats["worker_count"] = QUEUE_WORKER_COUNT
		stats["queue_name"] = MODERATOR_NOTIFY_QUEUE
	} else {
		stats["error"] = "Redis not available"
	}

	return stats
}
