package kafka

import (
	"time"

	"github.com/google/uuid"

	"storefront-checkout/internal/domain"
)

// EventTypeOrderPlaced is emitted once per successfully submitted order.
const EventTypeOrderPlaced = "order.placed"

// OrderPlacedEvent is the payload published after checkout clears the cart.
type OrderPlacedEvent struct {
	EventID       string             `json:"event_id"`
	EventType     string             `json:"event_type"`
	OrderID       string             `json:"order_id"`
	CartID        string             `json:"cart_id"`
	UserID        string             `json:"user_id,omitempty"`
	PaymentMethod string             `json:"payment_method"`
	ItemCount     int                `json:"item_count"`
	Totals        domain.OrderTotals `json:"totals"`
	Timestamp     time.Time          `json:"timestamp"`
}

func NewOrderPlacedEvent(cartID string, order *domain.Order) OrderPlacedEvent {
	count := 0
	for _, item := range order.OrderItems {
		count += item.Quantity
	}
	return OrderPlacedEvent{
		EventID:       uuid.NewString(),
		EventType:     EventTypeOrderPlaced,
		OrderID:       order.ID,
		CartID:        cartID,
		UserID:        order.UserID,
		PaymentMethod: order.PaymentMethod,
		ItemCount:     count,
		Totals:        order.OrderTotals,
		Timestamp:     time.Now().UTC(),
	}
}
