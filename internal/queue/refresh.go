package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/weft-labs/weft/backend/pkg/common"
	"github.com/weft-labs/weft/backend/pkg/leaselock"
	"github.com/weft-labs/weft/backend/pkg/logger"
	"github.com/weft-labs/weft/backend/pkg/resolve"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rabbitmq/amqp091-go"
)

// RefreshMessage is one claim pre-warm job. The correlation ID ties the
// publish and the worker log lines together.
type RefreshMessage struct {
	CorrelationID string            `json:"correlation_id"`
	EntityIDs     []common.EntityID `json:"entity_ids"`
}

// RefreshPublisher publishes pre-warm jobs onto the refresh queue. It
// satisfies the pipeline's publisher interface.
type RefreshPublisher struct {
	ch *amqp091.Channel
}

func NewRefreshPublisher(ch *amqp091.Channel) *RefreshPublisher {
	return &RefreshPublisher{ch: ch}
}

func (p *RefreshPublisher) PublishRefresh(_ context.Context, entityIDs []common.EntityID) error {
	if len(entityIDs) == 0 {
		return nil
	}

	correlationID, err := gonanoid.New()
	if err != nil {
		return fmt.Errorf("failed to generate correlation id: %w", err)
	}

	data := RefreshMessage{
		CorrelationID: correlationID,
		EntityIDs:     entityIDs,
	}
	msgBytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal refresh message: %w", err)
	}

	if err := PublishFIFO(p.ch, RefreshQueue, msgBytes); err != nil {
		return err
	}

	logger.Debug("[Queue] Published refresh job", "correlation_id", correlationID, "entities", len(entityIDs))
	return nil
}

// ProcessRefreshMessage fetches and caches the claim sets named in one
// refresh job. Purely a cache warm-up: request paths never wait on it.
// With a locker, each job runs under a lease keyed by its correlation ID,
// so a redelivery cannot overlap a delivery still in flight.
func ProcessRefreshMessage(
	ctx context.Context,
	svc *resolve.Service,
	locker *leaselock.Client,
	msg string,
) error {
	data := new(RefreshMessage)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return fmt.Errorf("failed to unmarshal refresh message: %w", err)
	}
	if len(data.EntityIDs) == 0 {
		logger.Warn("[Queue] Refresh job without entities", "correlation_id", data.CorrelationID)
		return nil
	}

	refresh := func(ctx context.Context) error {
		claims, err := svc.FetchAndCache(ctx, data.EntityIDs)
		if err != nil {
			return fmt.Errorf("failed to refresh claims: %w", err)
		}
		logger.Info("[Queue] Refreshed claim sets", "correlation_id", data.CorrelationID, "requested", len(data.EntityIDs), "cached", len(claims))
		return nil
	}

	if locker == nil {
		return refresh(ctx)
	}
	return locker.WithLease(ctx, "refresh:"+data.CorrelationID, 5*time.Minute, refresh)
}
