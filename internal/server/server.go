package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	glog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"

	weir "github.com/weirlabs/weir"
	"github.com/weirlabs/weir/internal/engine"
	"github.com/weirlabs/weir/internal/schedule"
	"github.com/weirlabs/weir/internal/steps"
	"github.com/weirlabs/weir/internal/store"
	"github.com/weirlabs/weir/pkg/api"
)

// Server implements the HTTP API: dataflow registration, run triggering,
// scheduling, and run inspection
type Server struct {
	registry  *steps.Registry
	vars      store.Variables
	scheduler *schedule.Scheduler

	dataflows map[api.DataflowID]*api.Dataflow
	runs      map[api.RunID]*engine.Engine
	mu        sync.RWMutex
}

// NewServer creates an HTTP API server over the given step registry and
// variable store. The scheduler may be nil when scheduling is not offered
func NewServer(
	registry *steps.Registry, vars store.Variables,
	scheduler *schedule.Scheduler,
) *Server {
	return &Server{
		registry:  registry,
		vars:      vars,
		scheduler: scheduler,
		dataflows: map[api.DataflowID]*api.Dataflow{},
		runs:      map[api.RunID]*engine.Engine{},
	}
}

// SetupRoutes configures and returns the HTTP router with all API endpoints
func (s *Server) SetupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(glog.SetLogger(
		glog.WithLogger(func(c *gin.Context, l *slog.Logger) *slog.Logger {
			return slog.Default()
		}),
	))

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set(
			"Access-Control-Allow-Methods",
			"GET, POST, PUT, DELETE, OPTIONS",
		)
		c.Writer.Header().Set(
			"Access-Control-Allow-Headers",
			"Content-Type, Authorization",
		)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	router.GET("/health", s.handleHealth)
	router.GET("/steptypes", s.listStepTypes)

	df := router.Group("/dataflow")
	{
		df.GET("", s.listDataflows)
		df.POST("", s.createDataflow)
		df.GET("/:dataflowID", s.getDataflow)
		df.POST("/:dataflowID/run", s.triggerRun)
		df.POST("/:dataflowID/schedule", s.scheduleRun)
		df.DELETE("/:dataflowID/schedule", s.cancelSchedule)
	}

	runs := router.Group("/run")
	{
		runs.GET("", s.listRuns)
		runs.GET("/:runID", s.getRun)
	}

	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": weir.Name,
		"version": weir.Version,
		"time":    time.Now().UTC(),
	})
}

func (s *Server) listStepTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"types": s.registry.Types()})
}

// startRun constructs an engine for the dataflow and executes it on its
// own goroutine. Each run is single-threaded internally
func (s *Server) startRun(
	dataflow *api.Dataflow, dryRun, automated bool,
) (*engine.Engine, error) {
	eng, err := engine.New(dataflow, s.registry, s.vars,
		engine.WithDryRun(dryRun),
		engine.WithAutomated(automated),
	)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.runs[eng.RunID()] = eng
	s.mu.Unlock()

	go func() {
		// Execute settles the run status; the error is already captured
		// on the engine for API consumers
		_ = eng.Execute(context.Background())
	}()

	return eng, nil
}
