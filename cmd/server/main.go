package main

import (
	"context"
	"flag"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"timetable-engine/internal/config"
	"timetable-engine/internal/engine"
	"timetable-engine/internal/progress"
)

func main() {
	configPath := flag.String("config", "", "optional config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer logger.Sync()

	scheduler, err := engine.New(cfg, logger)
	if err != nil {
		logger.Fatal("engine setup failed", zap.Error(err))
	}
	store := progress.NewStore()

	r := gin.Default()
	r.Use(corsMiddleware())

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "timetable-solver"})
	})

	r.POST("/generate", func(ctx *gin.Context) {
		var data map[string]any
		if err := ctx.ShouldBindJSON(&data); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		}
		req, err := engine.ParseRequest(data)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		}

		sessionID := uuid.NewString()
		logger.Info("generation request received",
			zap.String("session", sessionID),
			zap.Int("courses", len(req.Courses)))

		sink := store.Begin(sessionID)
		go func() {
			result, err := scheduler.Generate(context.Background(), req, sink)
			if err != nil {
				logger.Error("generation failed", zap.String("session", sessionID), zap.Error(err))
			}
			store.Finish(sessionID, result, err)
		}()

		ctx.JSON(http.StatusOK, gin.H{"session_id": sessionID, "status": "started"})
	})

	r.GET("/generation-status/:id", func(ctx *gin.Context) {
		record, err := store.Get(ctx.Param("id"))
		if err != nil {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		ctx.JSON(http.StatusOK, record)
	})

	logger.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("algorithm", cfg.Algorithm))
	if err := r.Run(cfg.HTTPAddr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
