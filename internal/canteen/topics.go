package canteen

const (
	TopicOrderCreated       = "order.created"
	TopicOrderStatusChanged = "order.status.changed"
	TopicOrderCancelled     = "order.cancelled"
	TopicOrderDelayed       = "order.delayed"
	TopicStockRejected      = "order.stock.rejected"
)

// Partition key = order_id supaya event satu order tetap berurutan.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
