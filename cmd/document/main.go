package main

import (
	"context"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/gogotex/collabedit/internal/config"
	"github.com/gogotex/collabedit/internal/database"
	"github.com/gogotex/collabedit/internal/document/handler"
	"github.com/gogotex/collabedit/internal/document/service"
	"github.com/gogotex/collabedit/pkg/logger"
	"github.com/gogotex/collabedit/pkg/middleware"
)

// Standalone document REST service without the realtime layer, useful for scripting
// against the document store.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	logger.SetEnvironment(cfg.Server.Environment)
	defer logger.Sync()

	port := os.Getenv("DOC_SERVICE_PORT")
	if port == "" {
		port = "5010"
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger.L(), ""), middleware.CORS(cfg.Server.ClientOrigin))

	// Prefer the Mongo-backed service when MONGODB_URI is provided.
	var svc service.Service
	ctx := context.Background()
	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectMongo(ctx, cfg.MongoDB)
		if err != nil {
			logger.Warnf("cannot connect to MongoDB (%v), using memory-backed repo", err)
		} else if svc, err = service.NewMongoService(ctx, database.Documents(client, cfg.MongoDB)); err != nil {
			logger.Warnf("mongo document store init failed (%v), using memory-backed repo", err)
		}
	}
	if svc == nil {
		svc = service.NewMemoryService()
	}

	handler.RegisterDocumentRoutes(r, svc, nil)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	logger.Infof("document service listening on :%s", port)
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatalf("server error: %v", err)
	}
}
