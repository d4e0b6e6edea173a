package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gogotex/collabedit/handlers"
	"github.com/gogotex/collabedit/internal/collab"
	"github.com/gogotex/collabedit/internal/config"
	"github.com/gogotex/collabedit/internal/database"
	"github.com/gogotex/collabedit/internal/document"
	"github.com/gogotex/collabedit/internal/document/handler"
	"github.com/gogotex/collabedit/internal/document/service"
	"github.com/gogotex/collabedit/internal/presence"
	"github.com/gogotex/collabedit/internal/storage"
	"github.com/gogotex/collabedit/internal/transport/ws"
	"github.com/gogotex/collabedit/pkg/logger"
	"github.com/gogotex/collabedit/pkg/metrics"
	"github.com/gogotex/collabedit/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	logger.SetEnvironment(cfg.Server.Environment)
	defer logger.Sync()
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())
	logger.Infof("config loaded: mongo=%v redis=%v minio=%v", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ready := map[string]handlers.Pinger{}

	// Prefer the Mongo-backed store; fall back to memory so the editor stays usable in dev.
	var svc service.Service
	var mongoClient *mongo.Client
	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectMongo(ctx, cfg.MongoDB)
		if err != nil {
			logger.Warnf("cannot connect to MongoDB (%v), using memory-backed documents", err)
		} else if svc, err = service.NewMongoService(ctx, database.Documents(client, cfg.MongoDB)); err != nil {
			logger.Warnf("mongo document store init failed (%v), using memory-backed documents", err)
			_ = client.Disconnect(context.Background())
		} else {
			mongoClient = client
			ready["mongodb"] = handlers.PingFunc(func(ctx context.Context) error { return client.Ping(ctx, nil) })
			logger.Infof("connected to MongoDB database %s", cfg.MongoDB.Database)
		}
	}
	if svc == nil {
		svc = service.NewMemoryService()
	}

	if cfg.SeedDemoDocument {
		if _, err := svc.Seed(ctx, document.Demo()); err != nil {
			logger.Errorf("failed to seed demo document: %v", err)
		}
	}

	opts := []collab.Option{collab.WithLogger(logger.L())}

	var mirror *presence.RedisMirror
	redisClient, err := database.ConnectRedis(ctx, cfg)
	if err != nil {
		logger.Warnf("presence mirror disabled: %v", err)
	} else if redisClient != nil {
		mirror = presence.NewRedisMirror(redisClient, "", cfg.Presence.TTL)
		opts = append(opts, collab.WithPresence(mirror))
		ready["redis"] = mirror
		logger.Infof("presence mirrored to Redis at %s", cfg.RedisAddr())
	}

	if mcfg := storage.MinIOConfigFrom(cfg.MinIO); mcfg != nil {
		store, err := storage.NewMinIOStorage(ctx, mcfg)
		if err != nil {
			logger.Warnf("snapshot archive disabled: %v", err)
		} else {
			opts = append(opts, collab.WithArchive(storage.NewSnapshotArchive(store)))
			ready["minio"] = store
			logger.Infof("archiving snapshots to bucket %s", mcfg.Bucket)
		}
	}

	router := collab.NewRouter(svc, opts...)
	if mirror != nil {
		go router.KeepPresenceAlive(ctx, mirror.RefreshInterval())
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.RegisterCollectors(reg)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger.L(), "/ws"), middleware.CORS(cfg.Server.ClientOrigin))

	handlers.RegisterHealth(r, ready)
	handlers.RegisterSwagger(r)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	var users handler.Presence = handler.PresenceFunc(func(_ context.Context, id string) ([]collab.User, error) {
		return router.Members(id), nil
	})
	if mirror != nil {
		users = mirror
	}
	handler.RegisterDocumentRoutes(r, svc, users)

	ws.NewHandler(router, logger.L(), ws.Options{
		AllowedOrigin:   cfg.Server.ClientOrigin,
		MaxMessageBytes: cfg.WebSocket.MaxMessageBytes,
		SendBuffer:      cfg.WebSocket.SendBuffer,
	}).Register(r, "/ws")

	srv := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     r,
		ReadTimeout: cfg.Server.ReadTimeout,
		// no WriteTimeout: it would cut hijacked websocket connections
	}
	go func() {
		logger.Infof("collaboration server listening on %s", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	router.Wait()
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if mongoClient != nil {
		_ = mongoClient.Disconnect(shutdownCtx)
	}
}
