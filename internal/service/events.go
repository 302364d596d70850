package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/imf-gadgets/gadget-api/internal/logging"
	"github.com/imf-gadgets/gadget-api/internal/models"
	"github.com/imf-gadgets/gadget-api/internal/mykafka"
)

const publishTimeout = 5 * time.Second

type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type UserEvent struct {
	Type   string    `json:"type"`
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
	At     time.Time `json:"at"`
}

type GadgetEvent struct {
	Type             string              `json:"type"`
	GadgetID         uuid.UUID           `json:"gadgetId"`
	OwnerID          uuid.UUID           `json:"ownerId"`
	Name             string              `json:"name"`
	Status           models.GadgetStatus `json:"status"`
	DecommissionedAt *time.Time          `json:"decommissionedAt,omitempty"`
	At               time.Time           `json:"at"`
}

// publish never fails the caller; delivery problems are only logged.
func publish(ctx context.Context, p Publisher, topic, key string, event any) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_failed", "topic", topic, "key", key, "error", err)
	}
}

func publishGadget(ctx context.Context, p Publisher, typ string, g *models.Gadget, at time.Time) {
	publish(ctx, p, mykafka.TopicGadgetEvents, g.ID.String(), GadgetEvent{
		Type:             typ,
		GadgetID:         g.ID,
		OwnerID:          g.OwnerID,
		Name:             g.Name,
		Status:           g.Status,
		DecommissionedAt: g.DecommissionedAt,
		At:               at,
	})
}
