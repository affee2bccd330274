package main

import (
	"context"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"alfredoptarigan/recruit-dashboard/internal/app"
	"alfredoptarigan/recruit-dashboard/internal/config"
	"alfredoptarigan/recruit-dashboard/internal/handlers"
	"alfredoptarigan/recruit-dashboard/internal/logger"
	"alfredoptarigan/recruit-dashboard/internal/services"
)

const maxFilesPerBatch = 20

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		stdlog.Fatalf("failed to initialize logger: %v", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to initialize application", zap.Error(err))
	}

	container.Indexer.Start(ctx)

	// a batch carries several CVs, each up to MaxFileSize
	bodyLimit := int(cfg.Storage.MaxFileSize) * maxFilesPerBatch

	server := fiber.New(fiber.Config{
		AppName:      "Recruit Dashboard API",
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		BodyLimit:    bodyLimit,
		ErrorHandler: handlers.ErrorHandler(log),
	})

	server.Use(recover.New())
	server.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	server.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	server.Static(strings.TrimSuffix(services.UploadURLPrefix, "/"), cfg.Storage.UploadPath)
	server.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.Register(server.Group("/api/v1"), handlers.Handlers{
		CV:         handlers.NewCVHandler(container.Ingestion, container.Resolver),
		Candidates: handlers.NewCandidateHandler(container.Candidates),
		Jobs:       handlers.NewJobHandler(container.Jobs),
	})

	server.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Recruit Dashboard API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/cv/upload",
				"POST /api/v1/cv/process",
				"GET /api/v1/candidates",
				"GET /api/v1/candidates/similar",
				"GET /api/v1/jobs",
			},
		})
	})

	go func() {
		<-ctx.Done()
		log.Info("shutting down server")
		if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Server.Env))

	if err := server.Listen(addr); err != nil {
		log.Error("failed to start server", zap.Error(err))
	}

	container.Close()
	log.Info("server stopped")

	if ctx.Err() == nil {
		os.Exit(1)
	}
}
