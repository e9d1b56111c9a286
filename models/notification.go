package models

import (
	"time"

	"github.com/edunexus/nexus_backend/config"
	"gorm.io/gorm"
)

// Outbox publish statuses for NotificationEvent.PublishStatus.
const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusSent       = "SENT"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)

// NotificationEvent is output only: this core writes it inside the
// transition's transaction (transactional outbox) and never reads it back
// except to dispatch. Delivery/display belongs to the notification system
// consuming the published messages.
type NotificationEvent struct {
	ID                int              `gorm:"primary_key" json:"id"`
	TargetPrincipalId int              `gorm:"index;not null" json:"target_principal_id"`
	Type              NotificationType `gorm:"size:40;not null" json:"type"`
	Title             string           `gorm:"size:255;not null" json:"title"`
	Message           string           `gorm:"type:text" json:"message"`
	Link              string           `gorm:"size:255" json:"link"`
	// Outbox metadata (publish happens after commit via dispatcher).
	PublishStatus    string     `gorm:"size:20;index;not null;default:'PENDING';index:idx_notification_dispatch,priority:1" json:"publish_status"`
	PublishedAt      *time.Time `gorm:"index" json:"published_at"`
	PubSubMessageId  *string    `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time `gorm:"index;index:idx_notification_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time `gorm:"index" json:"locked_at"`
	LockedBy         *string    `gorm:"size:100" json:"locked_by"`
	LastPublishError *string    `gorm:"type:text" json:"last_publish_error"`
	CorrelationId    string     `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// CreateNotificationEventTx writes the event inside the caller's transaction.
// Publishing is performed asynchronously by the dispatcher after commit.
func CreateNotificationEventTx(tx *gorm.DB, event *NotificationEvent) error {
	return tx.Create(event).Error
}

func ConvertToNotificationMessage(event NotificationEvent) config.NotificationMessage {
	return config.NotificationMessage{
		ID:                event.ID,
		TargetPrincipalId: event.TargetPrincipalId,
		Type:              string(event.Type),
		Title:             event.Title,
		Message:           event.Message,
		Link:              event.Link,
		CorrelationId:     event.CorrelationId,
		CreatedAt:         event.CreatedAt,
	}
}
