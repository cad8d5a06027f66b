package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fathima-sithara/ticket-notification-service/internal/api"
	"github.com/fathima-sithara/ticket-notification-service/internal/auth"
	"github.com/fathima-sithara/ticket-notification-service/internal/config"
	"github.com/fathima-sithara/ticket-notification-service/internal/hub"
	"github.com/fathima-sithara/ticket-notification-service/internal/kafka"
	"github.com/fathima-sithara/ticket-notification-service/internal/logger"
	"github.com/fathima-sithara/ticket-notification-service/internal/repository"
	"github.com/fathima-sithara/ticket-notification-service/internal/service"
	"github.com/fathima-sithara/ticket-notification-service/internal/templates"
	"github.com/fathima-sithara/ticket-notification-service/internal/ws"
)

func main() {
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	l, err := logger.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer l.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		notifications repository.NotificationStore
		tplStore      repository.TemplateStore
		prefs         repository.PreferenceStore
		sessions      repository.SessionStore
		directory     repository.Directory
		mongoClient   *mongo.Client
	)
	switch cfg.Storage.Driver {
	case "memory":
		l.Warnw("using in-memory storage, data is lost on restart")
		notifications = repository.NewMemoryNotificationStore()
		tplStore = repository.NewMemoryTemplateStore()
		prefs = repository.NewMemoryPreferenceStore()
		sessions = repository.NewMemorySessionStore()
		directory = repository.NewMemoryDirectory()
	default:
		db, client, err := repository.ConnectMongo(cfg.Mongo.URI, cfg.Mongo.Database, l)
		if err != nil {
			l.Fatalw("mongo init failed", "error", err)
		}
		mongoClient = client
		notifications = repository.NewMongoNotificationStore(db)
		tplStore = repository.NewMongoTemplateStore(db)
		if p := repository.ProbePreferences(ctx, db, l); p != nil {
			prefs = p
		}
		sessions = repository.NewMongoSessionStore(db)
		directory = repository.NewMongoDirectory(db)
	}

	tpls := templates.NewService(tplStore, templates.NewCache(cfg.CacheTTL, nil), nil, l)
	h := hub.NewHub(l)

	var (
		pusher service.Pusher = h
		rdb    *redis.Client
	)
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		bridge := hub.NewRedisBridge(rdb, cfg.Redis.Prefix, h, l)
		if err := bridge.Start(ctx); err != nil {
			l.Fatalw("redis push bridge failed", "error", err)
		}
		pusher = bridge

		inv := templates.NewRedisInvalidator(rdb, cfg.Redis.Prefix, tpls.Cache(), l)
		if err := inv.Start(ctx); err != nil {
			l.Fatalw("redis template invalidation failed", "error", err)
		}
		tpls.SetPublisher(inv)
	}

	svc := service.NewNotificationService(notifications, prefs, tpls, directory, pusher, service.Options{
		FanoutConcurrency: cfg.Notifications.FanoutConcurrency,
		DefaultPageSize:   cfg.Notifications.DefaultPageSize,
		MaxPageSize:       cfg.Notifications.MaxPageSize,
	}, l)

	var (
		producer *kafka.Producer
		consumer *kafka.Consumer
	)
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicNotifications, l)
		svc.SetCreatedPublisher(producer)

		consumer = kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicTicketEvents, cfg.Kafka.GroupID, svc, l)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				l.Errorw("ticket event consumer stopped", "error", err)
			}
		}()
	}

	if err := tpls.EnsureSeeded(ctx); err != nil {
		l.Warnw("template seed failed, retrying on first use", "error", err)
	}

	authn := auth.NewAuthenticator(cfg.JWT.Secret, sessions, l)
	stream := ws.NewHandler(authn, h, ws.Settings{
		PingInterval:   cfg.PingInterval,
		WriteDeadline:  cfg.WriteDeadline,
		MaxMessageSize: cfg.WS.MaxMessageSizeBytes,
		SendBuffer:     cfg.WS.SendBuffer,
	}, l)

	srv := api.NewServer(api.ServerConfig{
		ReadTimeout:        cfg.ReadTimeout,
		WriteTimeout:       cfg.WriteTimeout,
		WSPath:             cfg.WS.Path,
		InternalKey:        cfg.Internal.APIKey,
		CORSOrigins:        cfg.App.CORSOrigins,
		RateLimitPerMinute: cfg.RateLimit.PerMinute,
		RateLimitBurst:     cfg.RateLimit.Burst,
	}, api.Deps{
		Auth:          authn,
		Notifications: svc,
		Templates:     tpls,
		Stream:        stream,
		Log:           l,
	})

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	go func() {
		if err := srv.App.Listen(addr); err != nil {
			l.Fatalw("server listen failed", "error", err)
		}
	}()
	l.Infow("notification service started", "addr", addr, "storage", cfg.Storage.Driver,
		"redis", cfg.Redis.Enabled, "kafka", cfg.Kafka.Enabled)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	l.Infow("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.App.ShutdownWithContext(shutdownCtx); err != nil {
		l.Warnw("http shutdown", "error", err)
	}
	srv.Close()
	cancel()

	if consumer != nil {
		_ = consumer.Close()
	}
	if producer != nil {
		_ = producer.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if mongoClient != nil {
		_ = mongoClient.Disconnect(shutdownCtx)
	}
	l.Infow("notification service stopped")
}
