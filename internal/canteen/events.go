package canteen

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventOrderCancelled     = "OrderCancelled"
	EventOrderDelayed       = "OrderDelayed"
	EventStockRejected      = "StockRejected"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "canteen-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // biasanya order_id
	Payload       json.RawMessage `json:"payload"`
}

// ---- Payload tipe per event ----

type EventLine struct {
	MenuID    string `json:"menu_id"`
	MenuName  string `json:"menu_name"`
	UnitPrice int    `json:"unit_price"`
	Qty       int    `json:"qty"`
}

type OrderCreatedPayload struct {
	OrderID       string      `json:"order_id"`
	BuyerID       string      `json:"buyer_id"`
	SellerID      string      `json:"seller_id"`
	StoreName     string      `json:"store_name"`
	Items         []EventLine `json:"items"`
	TotalAmount   int         `json:"total_amount"`
	PaymentMethod string      `json:"payment_method"`
}

type StockRejectedDetail struct {
	MenuID    string `json:"menu_id"`
	MenuName  string `json:"menu_name"`
	Required  int    `json:"required"`
	Available int    `json:"available"`
}

type StockRejectedPayload struct {
	BuyerID  string                `json:"buyer_id"`
	SellerID string                `json:"seller_id"`
	Reason   string                `json:"reason"` // e.g., OUT_OF_STOCK
	Details  []StockRejectedDetail `json:"details,omitempty"`
}

type OrderStatusChangedPayload struct {
	OrderID string    `json:"order_id"`
	From    Status    `json:"from"`
	To      Status    `json:"to"`
	At      time.Time `json:"at"`
}

type RestoredLine struct {
	MenuID string `json:"menu_id"`
	Qty    int    `json:"qty"`
}

type OrderCancelledPayload struct {
	OrderID     string         `json:"order_id"`
	CancelledBy string         `json:"cancelled_by"`
	Restored    []RestoredLine `json:"restored"`
}

type OrderDelayedPayload struct {
	OrderID          string  `json:"order_id"`
	EstimatedMinutes int     `json:"estimated_minutes"`
	ElapsedMinutes   float64 `json:"elapsed_minutes"`
	Percentage       float64 `json:"percentage"`
}
