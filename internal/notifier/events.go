package notifier

import (
	"github.com/google/uuid"

	"pixrelay/api/internal/order"
)

const (
	EventPixOrder         = "pix_order"
	EventPaymentConfirmed = "payment_confirmed"

	TikTokEventsURL = "https://business-api.tiktok.com/open_api/v1.3/event/track/"
	// DefaultPixelID is the storefront's TikTok pixel.
	DefaultPixelID = "D0QK7RRC77U4V3HJ2M5G"

	tiktokCompletePayment = "CompletePayment"
)

// OrderEvent is the spreadsheet row for a created charge.
type OrderEvent struct {
	Timestamp     string  `json:"timestamp"`
	Type          string  `json:"type"`
	OrderID       string  `json:"order_id"`
	TransactionID string  `json:"transaction_id"`
	PayerName     string  `json:"payer_name"`
	Amount        float64 `json:"amount"`
	Phone         string  `json:"phone"`
	Status        string  `json:"status"`
}

// PaymentConfirmedEvent is the spreadsheet row for a paid order.
type PaymentConfirmedEvent struct {
	Timestamp     string  `json:"timestamp"`
	Type          string  `json:"type"`
	OrderID       string  `json:"order_id"`
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"payment_method"`
	Status        string  `json:"status"`
}

type tiktokContent struct {
	ContentID   string  `json:"content_id"`
	ContentName string  `json:"content_name"`
	ContentType string  `json:"content_type"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

type tiktokProperties struct {
	Currency    string          `json:"currency"`
	Value       float64         `json:"value"`
	ContentType string          `json:"content_type"`
	Contents    []tiktokContent `json:"contents"`
}

type tiktokEvent struct {
	Event      string           `json:"event"`
	EventTime  int64            `json:"event_time"`
	EventID    string           `json:"event_id"`
	Properties tiktokProperties `json:"properties"`
}

type tiktokRequest struct {
	EventSource   string        `json:"event_source"`
	EventSourceID string        `json:"event_source_id"`
	Data          []tiktokEvent `json:"data"`
}

func (n *Notifier) completePayment(evt PaymentConfirmedEvent) tiktokRequest {
	eventID := evt.OrderID
	if eventID == "" {
		eventID = uuid.NewString()
	}
	return tiktokRequest{
		EventSource:   "web",
		EventSourceID: n.tiktokPixelID,
		Data: []tiktokEvent{{
			Event:     tiktokCompletePayment,
			EventTime: n.now().Unix(),
			EventID:   eventID,
			Properties: tiktokProperties{
				Currency:    "BRL",
				Value:       evt.Amount,
				ContentType: "product",
				Contents: []tiktokContent{{
					ContentID:   order.ProductID,
					ContentName: order.ProductTitle,
					ContentType: "product",
					Quantity:    1,
					Price:       evt.Amount,
				}},
			},
		}},
	}
}
