package httptransport

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/mariandamblena/speechAi-sub000/internal/transport/http/handler"
	"github.com/mariandamblena/speechAi-sub000/internal/transport/http/middleware"

	sloggin "github.com/samber/slog-gin"
)

func NewRouter(logger *slog.Logger, jobHandler *handler.JobHandler, batchHandler *handler.BatchHandler, accountHandler *handler.AccountHandler, hmacKey []byte) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	authMW := middleware.Auth(hmacKey)

	// Protected job routes
	jobs := r.Group("/jobs", authMW)
	jobs.GET("", jobHandler.List)
	jobs.GET("/:id", jobHandler.GetByID)
	jobs.GET("/:id/attempts", jobHandler.ListAttempts)
	jobs.POST("/:id/requeue", jobHandler.Requeue)

	// Protected batch routes
	batches := r.Group("/batches", authMW)
	batches.GET("/:id", batchHandler.GetByID)
	batches.POST("/:id/pause", batchHandler.Pause)
	batches.POST("/:id/resume", batchHandler.Resume)

	// Protected account routes
	accounts := r.Group("/accounts", authMW)
	accounts.GET("/:id", accountHandler.GetByID)

	return r
}
