package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/weirlabs/weir/internal/steps"
	"github.com/weirlabs/weir/pkg/api"
)

var (
	ErrDataflowNotFound = errors.New("dataflow not found")
	ErrDataflowExists   = errors.New("dataflow exists")
	ErrScheduleInPast   = errors.New("scheduled time is in the past")
	ErrNoScheduler      = errors.New("scheduling not available")
)

func (s *Server) createDataflow(c *gin.Context) {
	var dataflow api.Dataflow
	if err := c.ShouldBindJSON(&dataflow); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	if err := dataflow.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	for _, step := range dataflow.Steps {
		if !s.registry.Known(step.Type) {
			respondError(c, http.StatusBadRequest, fmt.Errorf(
				"%w: %s (step %s)",
				steps.ErrUnknownStepType, step.Type, step.ID))
			return
		}
	}

	s.mu.Lock()
	if _, ok := s.dataflows[dataflow.ID]; ok {
		s.mu.Unlock()
		respondError(c, http.StatusConflict, fmt.Errorf(
			"%w: %s", ErrDataflowExists, dataflow.ID))
		return
	}
	s.dataflows[dataflow.ID] = &dataflow
	s.mu.Unlock()

	c.JSON(http.StatusCreated, &dataflow)
}

func (s *Server) listDataflows(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*api.Dataflow, 0, len(s.dataflows))
	for _, dataflow := range s.dataflows {
		list = append(list, dataflow)
	}
	c.JSON(http.StatusOK, gin.H{"dataflows": list})
}

func (s *Server) getDataflow(c *gin.Context) {
	dataflow, ok := s.lookupDataflow(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dataflow)
}

func (s *Server) triggerRun(c *gin.Context) {
	dataflow, ok := s.lookupDataflow(c)
	if !ok {
		return
	}

	var req api.TriggerRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, err)
			return
		}
	}

	// API triggers are manual, never automated
	eng, err := s.startRun(dataflow, req.DryRun, false)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusAccepted, eng.State())
}

func (s *Server) scheduleRun(c *gin.Context) {
	dataflow, ok := s.lookupDataflow(c)
	if !ok {
		return
	}
	if s.scheduler == nil {
		respondError(c, http.StatusServiceUnavailable, ErrNoScheduler)
		return
	}

	var req api.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.At.Before(time.Now()) {
		respondError(c, http.StatusBadRequest, ErrScheduleInPast)
		return
	}

	id := dataflow.ID
	s.scheduler.Schedule(c.Request.Context(), id, req.At, func() error {
		s.mu.RLock()
		scheduled, ok := s.dataflows[id]
		s.mu.RUnlock()
		if !ok {
			return fmt.Errorf("%w: %s", ErrDataflowNotFound, id)
		}
		_, err := s.startRun(scheduled, false, true)
		return err
	})

	c.JSON(http.StatusAccepted, gin.H{
		"dataflow_id": id,
		"at":          req.At,
	})
}

func (s *Server) cancelSchedule(c *gin.Context) {
	dataflow, ok := s.lookupDataflow(c)
	if !ok {
		return
	}
	if s.scheduler == nil {
		respondError(c, http.StatusServiceUnavailable, ErrNoScheduler)
		return
	}

	s.scheduler.Cancel(c.Request.Context(), dataflow.ID)
	c.Status(http.StatusNoContent)
}

func (s *Server) lookupDataflow(c *gin.Context) (*api.Dataflow, bool) {
	id := api.DataflowID(c.Param("dataflowID"))

	s.mu.RLock()
	dataflow, ok := s.dataflows[id]
	s.mu.RUnlock()
	if !ok {
		respondError(c, http.StatusNotFound, fmt.Errorf(
			"%w: %s", ErrDataflowNotFound, id))
		return nil, false
	}
	return dataflow, true
}

func respondError(c *gin.Context, status int, err error) {
	c.JSON(status, api.ErrorResponse{
		Error:  err.Error(),
		Status: status,
	})
}
