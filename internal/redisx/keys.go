package redisx

import "time"

const (
	// Idempotency checkout: idem:checkout:{buyer_id}:{request_id} -> csv order_id
	KeyIdemCheckout = "idem:checkout:%s:%s"

	// Cache status order: order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%s"

	// Alert-once utk order delayed: alert:delayed:{order_id}
	KeyDelayAlert = "alert:delayed:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDelayAlert  = 48 * time.Hour
)
