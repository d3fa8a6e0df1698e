package main

import (
	"context"
	"encoding/json"
	"expvar"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinicq/queue-service/internal/config"
	"clinicq/queue-service/internal/httpapi"
	"clinicq/queue-service/internal/hub"
	"clinicq/queue-service/internal/store"
	"clinicq/queue-service/internal/store/memory"
	"clinicq/queue-service/internal/store/postgres"
	"clinicq/queue-service/internal/telemetry"

	"github.com/google/uuid"
	"github.com/igm/sockjs-go/sockjs"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type callEnvelope struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

func main() {
	cfg := config.Load()
	shutdownTelemetry := telemetry.Setup(telemetry.Config{
		ServiceName: "queue-service",
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
	})
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	h := hub.New()
	notifier := store.NotifierFunc(func(event store.CallEvent) {
		payload, err := json.Marshal(event)
		if err != nil {
			log.Printf("call event marshal: %v", err)
			return
		}
		envelope, err := json.Marshal(callEnvelope{
			Type:      store.EventQueueCalled,
			Payload:   payload,
			CreatedAt: event.CalledAt,
		})
		if err != nil {
			log.Printf("call envelope marshal: %v", err)
			return
		}
		h.Broadcast(envelope, event.RoomID)
	})

	var st store.Store
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db connect: %v", err)
		}
		defer pool.Close()

		pgStore := postgres.NewStore(pool, postgres.Options{Notifier: notifier})
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = pgStore.Migrate(ctx)
		cancel()
		if err != nil {
			log.Fatalf("db migrate: %v", err)
		}
		st = pgStore
	} else {
		memStore := memory.NewStore(memory.Options{Notifier: notifier})
		if cfg.SeedDemo {
			memStore.SeedDemo()
		}
		st = memStore
	}

	handler := httpapi.NewHandler(st)
	limiter := httpapi.NewRateLimiter(httpapi.RateLimitConfig{
		PerMinute: cfg.RateLimitPerMinute,
		Burst:     cfg.RateLimitBurst,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", expvar.Handler())
	mux.Handle("/realtime/", newRealtimeHandler(h))
	mux.Handle("/", handler.Routes())

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelhttp.NewHandler(limiter.Middleware(httpapi.LoggingMiddleware(mux)), "queue-service"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("queue-service listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func newRealtimeHandler(h *hub.Hub) http.Handler {
	return sockjs.NewHandler("/realtime", sockjs.DefaultOptions, func(session sockjs.Session) {
		client := &hub.Client{ID: uuid.NewString(), Send: make(chan []byte, 16)}
		h.Register(client)
		defer h.Unregister(client)

		go func() {
			for msg := range client.Send {
				_ = session.Send(string(msg))
			}
		}()

		for {
			msg, err := session.Recv()
			if err != nil {
				return
			}
			parsed, ok := hub.ParseSubscribe([]byte(msg))
			if !ok {
				continue
			}
			if parsed.Action == "unsubscribe" {
				h.UpdateSubscription(client, hub.Subscription{})
				continue
			}
			h.UpdateSubscription(client, hub.Subscription{RoomID: parsed.RoomID})
		}
	})
}
