package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sliea/antennadesk/internal/models"
)

// StatsHandler serves the request statistics endpoint.
type StatsHandler struct {
	svc RequestService
	log *logrus.Logger
}

// NewStatsHandler creates a StatsHandler with the given dependencies.
func NewStatsHandler(svc RequestService, log *logrus.Logger) *StatsHandler {
	return &StatsHandler{svc: svc, log: log}
}

// statsResponse is the JSON payload returned by the stats endpoint.
type statsResponse struct {
	Total    int                          `json:"total"`
	ByStatus map[models.RequestStatus]int `json:"by_status"`
	ByType   map[models.RequestType]int   `json:"by_type"`
	Groups   []models.RequestStat         `json:"groups"`
}

// GetStats handles GET /api/v1/stats/requests: counts grouped by status
// then type, with per-status and per-type totals.
func (h *StatsHandler) GetStats(c *gin.Context) {
	stats, err := h.svc.RequestStats(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, err, "request stats")

		return
	}

	resp := statsResponse{
		ByStatus: make(map[models.RequestStatus]int, len(models.RequestStatuses())),
		ByType:   make(map[models.RequestType]int, len(models.RequestTypes())),
		Groups:   stats,
	}

	for _, s := range models.RequestStatuses() {
		resp.ByStatus[s] = 0
	}

	for _, t := range models.RequestTypes() {
		resp.ByType[t] = 0
	}

	for _, s := range stats {
		resp.Total += s.Count
		resp.ByStatus[s.Status] += s.Count
		resp.ByType[s.Type] += s.Count
	}

	if resp.Groups == nil {
		resp.Groups = []models.RequestStat{}
	}

	c.JSON(http.StatusOK, resp)
}
