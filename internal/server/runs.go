package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weirlabs/weir/pkg/api"
)

var ErrRunNotFound = errors.New("run not found")

func (s *Server) listRuns(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]api.RunState, 0, len(s.runs))
	for _, eng := range s.runs {
		list = append(list, eng.State())
	}
	c.JSON(http.StatusOK, gin.H{"runs": list})
}

func (s *Server) getRun(c *gin.Context) {
	id := api.RunID(c.Param("runID"))

	s.mu.RLock()
	eng, ok := s.runs[id]
	s.mu.RUnlock()
	if !ok {
		respondError(c, http.StatusNotFound, fmt.Errorf(
			"%w: %s", ErrRunNotFound, id))
		return
	}
	c.JSON(http.StatusOK, eng.State())
}
