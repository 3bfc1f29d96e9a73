package events

import (
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/shopspring/decimal"
)

// Topics
const (
	TopicOrderPlaced        = "order.placed"
	TopicOrderStatusChanged = "order.status_changed"
	TopicUserSignedUp       = "user.signed_up"
)

type OrderPlaced struct {
	OrderID     string          `json:"order_id"`
	OrderNo     string          `json:"order_no"`
	UserID      string          `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ItemCount   int             `json:"item_count"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

type OrderStatusChanged struct {
	OrderID    string    `json:"order_id"`
	OrderNo    string    `json:"order_no"`
	UserID     string    `json:"user_id"`
	UserEmail  string    `json:"user_email"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	ActorID    string    `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type UserSignedUp struct {
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	Code       string    `json:"-"`
	TTLHours   int       `json:"-"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Bus is an in-process publish/subscribe hub. Subscribers run asynchronously
// so a slow consumer never delays the request that raised the event.
type Bus struct {
	bus EventBus.Bus
}

func NewBus() *Bus {
	return &Bus{bus: EventBus.New()}
}

// Subscribe registers fn for topic. fn must accept the payload type published on topic.
func (b *Bus) Subscribe(topic string, fn interface{}) error {
	return b.bus.SubscribeAsync(topic, fn, false)
}

func (b *Bus) Publish(topic string, payload interface{}) {
	b.bus.Publish(topic, payload)
}

// Wait blocks until every running async subscriber has returned.
func (b *Bus) Wait() {
	b.bus.WaitAsync()
}
