package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-canteen-orders.git/internal/canteen"
	"github.com/ariefcatur/go-canteen-orders.git/internal/checkout"
	"github.com/ariefcatur/go-canteen-orders.git/internal/config"
	"github.com/ariefcatur/go-canteen-orders.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-canteen-orders.git/internal/kafka"
	"github.com/ariefcatur/go-canteen-orders.git/internal/lifecycle"
	"github.com/ariefcatur/go-canteen-orders.git/internal/postgres"
	"github.com/ariefcatur/go-canteen-orders.git/internal/redisx"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, satu per topic
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, canteen.TopicOrderCreated, 1024)
	pRejected := kafkax.NewProducer(cfg.KafkaBrokers, canteen.TopicStockRejected, 1024)
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, canteen.TopicOrderStatusChanged, 1024)
	pCancelled := kafkax.NewProducer(cfg.KafkaBrokers, canteen.TopicOrderCancelled, 1024)
	producers := []*kafkax.Producer{pCreated, pRejected, pStatus, pCancelled}
	for _, p := range producers {
		p.Start(ctx)
	}

	// Repos & services
	orderRepo := &canteen.OrderRepo{DB: db}
	cartRepo := &canteen.CartRepo{DB: db}
	menuRepo := &canteen.MenuRepo{DB: db}

	checkoutSvc := &checkout.Service{
		Carts:            cartRepo,
		Orders:           orderRepo,
		ProducerCreated:  pCreated,
		ProducerRejected: pRejected,
		ServiceName:      cfg.ServiceName,
	}
	lifecycleSvc := &lifecycle.Service{
		Orders:         orderRepo,
		ProducerStatus: pStatus,
		ProducerCancel: pCancelled,
		ServiceName:    cfg.ServiceName,
	}

	router := httpx.NewRouter()
	h := &httpx.Handler{
		Checkout:  checkoutSvc,
		Lifecycle: lifecycleSvc,
		Orders:    orderRepo,
		Menus:     menuRepo,
		Carts:     cartRepo,
		Redis:     rdb,
	}
	h.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	for _, p := range producers {
		p.Close() // tutup inbox -> flush & close writer
	}
	cancel()
	for _, p := range producers {
		p.WaitClosed()
	}
}
