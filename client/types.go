package client

import (
	"github.com/sliea/antennadesk/internal/models"
)

// Wire types shared with the server.
type (
	Request              = models.Request
	RequestType          = models.RequestType
	RequestStatus        = models.RequestStatus
	RequestStat          = models.RequestStat
	Equipment            = models.Equipment
	Notification         = models.Notification
	CreateRequestRequest = models.CreateRequestRequest
	SetStatusRequest     = models.SetStatusRequest
	UpdateRequestRequest = models.UpdateRequestRequest
)

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	Connections   int     `json:"websocket_connections"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// ReadinessResponse is the readiness payload.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// StatsResponse holds request counts by status and type.
type StatsResponse struct {
	Total    int                   `json:"total"`
	ByStatus map[RequestStatus]int `json:"by_status"`
	ByType   map[RequestType]int   `json:"by_type"`
	Groups   []RequestStat         `json:"groups"`
}

// ListOptions narrows a staff request listing.
type ListOptions struct {
	Status   RequestStatus
	Type     RequestType
	ClientID string
	Limit    int
	Offset   int
}
