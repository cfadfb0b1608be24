package subscribe

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/TemirB/sheet-ledger/internal/domain"
)

//go:generate mockgen -source internal/application/subscribe/registrar.go -destination=internal/application/subscribe/registrar_mock_test.go -package=subscribe

const Welcome = "Hello! I will let you know when an order's delivery deadline passes."

type Store interface {
	AddSubscriber(ctx context.Context, id int64) error
	SubscriberExists(ctx context.Context, id int64) (bool, error)
}

type Cache interface {
	Has(id int64) bool
	Add(id int64)
}

type Sender interface {
	SendMessage(ctx context.Context, subscriberID int64, text string) error
}

type Registrar struct {
	store  Store
	cache  Cache
	sender Sender
	logger *zap.Logger
}

// New builds a Registrar. sender may be nil when replies are delivered by
// another path, for example the admin API.
func New(store Store, cache Cache, sender Sender, logger *zap.Logger) *Registrar {
	return &Registrar{
		store:  store,
		cache:  cache,
		sender: sender,
		logger: logger,
	}
}

// Register records id as a subscriber if it is not known yet.
func (r *Registrar) Register(ctx context.Context, id int64) error {
	if r.cache != nil && r.cache.Has(id) {
		return nil
	}

	exists, err := r.store.SubscriberExists(ctx, id)
	if err != nil {
		return r.storeFailed("check subscriber", id, err)
	}
	if !exists {
		if err := r.store.AddSubscriber(ctx, id); err != nil {
			return r.storeFailed("add subscriber", id, err)
		}
		r.logger.Info("Subscriber added", zap.Int64("subscriber_id", id))
	}

	if r.cache != nil {
		r.cache.Add(id)
	}
	return nil
}

// HandleStart registers id and greets it. The greeting goes out even when
// the store failed; both errors are returned.
func (r *Registrar) HandleStart(ctx context.Context, id int64) error {
	regErr := r.Register(ctx, id)

	var sendErr error
	if r.sender != nil {
		if err := r.sender.SendMessage(ctx, id, Welcome); err != nil {
			r.logger.Warn("Welcome not delivered",
				zap.Int64("subscriber_id", id),
				zap.Error(err),
			)
			sendErr = fmt.Errorf("%w: subscriber %d: %w", domain.ErrDelivery, id, err)
		}
	}
	return errors.Join(regErr, sendErr)
}

func (r *Registrar) storeFailed(op string, id int64, err error) error {
	r.logger.Error("Subscriber store failed",
		zap.String("op", op),
		zap.Int64("subscriber_id", id),
		zap.Error(err),
	)
	if errors.Is(err, domain.ErrStore) {
		return err
	}
	return fmt.Errorf("%w: %s %d: %w", domain.ErrStore, op, id, err)
}
