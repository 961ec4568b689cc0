package redisx

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DelayAlertGate: SETNX sbg serialisasi "alert pertama". TTL panjang biar
// monitor yg restart tidak alert ulang order yg sama.
type DelayAlertGate struct{ R *redis.Client }

func (g *DelayAlertGate) FirstDelayAlert(ctx context.Context, orderID string) (bool, error) {
	return g.R.SetNX(ctx, fmt.Sprintf(KeyDelayAlert, orderID), "1", TTLDelayAlert).Result()
}
