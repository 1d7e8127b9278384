package api

import (
	"github.com/gin-gonic/gin"

	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/api/handler"
	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/calibration"
)

type Router struct {
	engine *gin.Engine
}

func NewRouter(svc *calibration.Service, overrides handler.OverrideRecorder, jobs handler.JobPublisher) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())

	calHandler := handler.NewCalibrationHandler(svc, jobs)
	overrideHandler := handler.NewOverrideHandler(overrides)
	configHandler := handler.NewConfigHandler(svc)

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/api/v1")
	{
		v1.POST("/overrides", overrideHandler.Record)

		cal := v1.Group("/calibration")
		{
			cal.GET("/analysis", calHandler.Analyze)
			cal.POST("/proposals", calHandler.Propose)
			cal.GET("/proposals/pending", calHandler.Pending)
			cal.GET("/proposals/history", calHandler.History)
			cal.POST("/proposals/:id/activate", calHandler.Activate)
			cal.POST("/proposals/:id/dismiss", calHandler.Dismiss)
			cal.POST("/jobs", calHandler.EnqueueJob)
		}

		configs := v1.Group("/configs")
		{
			configs.GET("", configHandler.History)
			configs.GET("/active", configHandler.Active)
		}

		v1.POST("/scoring/route", configHandler.Route)
	}

	return &Router{engine: engine}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
