package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ariefcatur/go-canteen-orders.git/internal/canteen"
	"github.com/ariefcatur/go-canteen-orders.git/internal/config"
	kafkax "github.com/ariefcatur/go-canteen-orders.git/internal/kafka"
	"github.com/ariefcatur/go-canteen-orders.git/internal/lifecycle"
	"github.com/ariefcatur/go-canteen-orders.git/internal/monitor"
	"github.com/ariefcatur/go-canteen-orders.git/internal/postgres"
	"github.com/ariefcatur/go-canteen-orders.git/internal/redisx"
	"github.com/joho/godotenv"
	kafkago "github.com/segmentio/kafka-go"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Producers: delayed (monitor) + status changed (auto-confirm)
	pDelayed := kafkax.NewProducer(cfg.KafkaBrokers, canteen.TopicOrderDelayed, 1024)
	pDelayed.Start(ctx)
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, canteen.TopicOrderStatusChanged, 1024)
	pStatus.Start(ctx)

	orderRepo := &canteen.OrderRepo{DB: db}
	lifecycleSvc := &lifecycle.Service{
		Orders:         orderRepo,
		ProducerStatus: pStatus,
		ServiceName:    cfg.ServiceName + "-monitor",
	}
	svc := &monitor.Service{
		Orders:           orderRepo,
		Gate:             &redisx.DelayAlertGate{R: rdb},
		Lifecycle:        lifecycleSvc,
		ProducerDelayed:  pDelayed,
		AutoConfirmAfter: cfg.AutoConfirmAfter,
		ServiceName:      cfg.ServiceName + "-monitor",
	}

	// Poll loop: scan order aktif tiap interval
	go func() {
		t := time.NewTicker(cfg.MonitorInterval)
		defer t.Stop()
		log.Printf("monitor started: interval=%s auto_confirm_after=%s", cfg.MonitorInterval, cfg.AutoConfirmAfter)
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				st, err := svc.Tick(ctx, now)
				if err != nil {
					log.Printf("monitor: tick: %v", err)
					continue
				}
				if st.AutoConfirmed > 0 || st.Alerts > 0 {
					log.Printf("monitor: scanned=%d auto_confirmed=%d delay_alerts=%d", st.Scanned, st.AutoConfirmed, st.Alerts)
				}
			}
		}
	}()

	// Cache warmer: konsumsi status-changed dari instance mana pun supaya
	// cache status di Redis tetap segar utk GET /orders/{id}/status.
	group := getenv("MONITOR_GROUP", "canteen-monitor")
	workers := mustAtoi(os.Getenv("MONITOR_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, canteen.TopicOrderStatusChanged, workers)

	go func() {
		log.Printf("status-cache consumer started: group=%s topic=%s workers=%d", group, canteen.TopicOrderStatusChanged, workers)
		err := cons.Start(ctx, func(ctx context.Context, m kafkago.Message) error {
			var env canteen.Envelope
			if err := kafkax.UnwrapEnvelope(m.Value, &env); err != nil {
				return err
			}
			if env.EventType != canteen.EventOrderStatusChanged {
				return nil
			}
			p, err := kafkax.UnwrapPayload[canteen.OrderStatusChangedPayload](env.Payload)
			if err != nil {
				return err
			}
			key := fmt.Sprintf(redisx.KeyOrderStatus, p.OrderID)
			return rdb.Set(ctx, key, fmt.Sprintf(`{"status":%q}`, p.To), redisx.TTLStatusCache).Err()
		})
		if err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down monitor...")
	cancel()
	time.Sleep(500 * time.Millisecond)
	pDelayed.Close()
	pStatus.Close()
	pDelayed.WaitClosed()
	pStatus.WaitClosed()
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
