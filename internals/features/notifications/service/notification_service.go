package service

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	notifModel "horseclub_backend/internals/features/notifications/model"
)

// ToNotification maps an event to the row shown in the admin inbox.
func ToNotification(e Event) (*notifModel.Notification, error) {
	n := &notifModel.Notification{
		Kind:       e.Key,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Title:      e.Title,
		CreatedAt:  e.OccurredAt,
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if e.Body != "" {
		body := e.Body
		n.Body = &body
	}
	if len(e.Payload) > 0 {
		raw, err := sonic.Marshal(e.Payload)
		if err != nil {
			return nil, err
		}
		n.Payload = datatypes.JSON(raw)
	}
	return n, nil
}

// SaveHandler is the consumer handler that persists notifications.
func SaveHandler(db *gorm.DB) Handler {
	return func(ctx context.Context, e Event) error {
		n, err := ToNotification(e)
		if err != nil {
			return err
		}
		return db.WithContext(ctx).Create(n).Error
	}
}

// DirectPublisher stores notifications synchronously when no broker is configured.
type DirectPublisher struct {
	DB *gorm.DB
}

func (d DirectPublisher) Publish(ctx context.Context, e Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if err := SaveHandler(d.DB)(context.WithoutCancel(ctx), e); err != nil {
		log().WithError(err).WithField("key", e.Key).Warn("notification not stored")
	}
}
