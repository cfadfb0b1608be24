package domain

import (
	"context"
)

type OrderRepository interface {
	ReplaceAllOrders(ctx context.Context, orders []Order) error
	ListOrders(ctx context.Context) ([]Order, error)
}

type SubscriberRepository interface {
	ListSubscriberIDs(ctx context.Context) ([]int64, error)
	AddSubscriber(ctx context.Context, id int64) error
	SubscriberExists(ctx context.Context, id int64) (bool, error)
}

// Sender delivers a text message to one subscriber.
type Sender interface {
	SendMessage(ctx context.Context, subscriberID int64, text string) error
}
