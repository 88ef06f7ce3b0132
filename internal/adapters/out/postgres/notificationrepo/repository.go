// Package notificationrepo stores the notification outcome log. Attempts are
// kept as a jsonb array on the request row.
package notificationrepo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/notification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationDTO struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID    `gorm:"type:uuid;index"`
	Recipient   RecipientDTO `gorm:"embedded;embeddedPrefix:recipient_"`
	TemplateKey string
	Payload     string    `gorm:"type:jsonb"`
	Attempts    string    `gorm:"type:jsonb"`
	CreatedAt   time.Time `gorm:"autoCreateTime:false"`
}

func (NotificationDTO) TableName() string {
	return "notification_requests"
}

type RecipientDTO struct {
	Email         string
	Phone         string
	WhatsappOptIn bool
}

type attemptDTO struct {
	Channel string    `json:"channel"`
	Outcome string    `json:"outcome"`
	Error   string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

// GormNotificationRepository implements ports.NotificationRepository using GORM.
type GormNotificationRepository struct {
	db *gorm.DB
}

func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

func (r *GormNotificationRepository) Add(ctx context.Context, request *notification.Request) error {
	if err := request.Validate(); err != nil {
		return err
	}
	dto, err := fromDomain(request)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&dto).Error
}

func (r *GormNotificationRepository) ListByOrder(
	ctx context.Context,
	orderID kernel.UUID,
) ([]*notification.Request, error) {
	var dtos []NotificationDTO
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID.Bytes()).
		Order("created_at, id").
		Find(&dtos).Error; err != nil {
		return nil, err
	}

	requests := make([]*notification.Request, 0, len(dtos))
	for _, dto := range dtos {
		request, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, nil
}

func fromDomain(request *notification.Request) (NotificationDTO, error) {
	payload, err := json.Marshal(request.Payload())
	if err != nil {
		return NotificationDTO{}, err
	}

	attempts := make([]attemptDTO, 0, len(request.Attempts()))
	for _, a := range request.Attempts() {
		attempts = append(attempts, attemptDTO{
			Channel: string(a.Channel),
			Outcome: string(a.Outcome),
			Error:   a.Error,
			At:      a.At.UTC(),
		})
	}
	rawAttempts, err := json.Marshal(attempts)
	if err != nil {
		return NotificationDTO{}, err
	}

	recipient := request.Recipient()
	return NotificationDTO{
		ID:      request.ID().Bytes(),
		OrderID: request.OrderID().Bytes(),
		Recipient: RecipientDTO{
			Email:         recipient.Email,
			Phone:         recipient.Phone,
			WhatsappOptIn: recipient.WhatsAppOptIn,
		},
		TemplateKey: string(request.TemplateKey()),
		Payload:     string(payload),
		Attempts:    string(rawAttempts),
		CreatedAt:   request.CreatedAt().UTC(),
	}, nil
}

func toDomain(dto NotificationDTO) (*notification.Request, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}

	var payload notification.Payload
	var rawAttempts []attemptDTO
	if err := errors.Join(
		json.Unmarshal([]byte(dto.Payload), &payload),
		json.Unmarshal([]byte(dto.Attempts), &rawAttempts),
	); err != nil {
		return nil, err
	}

	attempts := make([]notification.Attempt, 0, len(rawAttempts))
	for _, a := range rawAttempts {
		attempts = append(attempts, notification.Attempt{
			Channel: notification.Channel(a.Channel),
			Outcome: notification.Outcome(a.Outcome),
			Error:   a.Error,
			At:      a.At.UTC(),
		})
	}

	recipient := notification.Recipient{
		Email:         dto.Recipient.Email,
		Phone:         dto.Recipient.Phone,
		WhatsAppOptIn: dto.Recipient.WhatsappOptIn,
	}
	return notification.RestoreRequest(id, orderID, recipient, notification.TemplateKey(dto.TemplateKey),
		payload, attempts, dto.CreatedAt)
}
