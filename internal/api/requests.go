package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sliea/antennadesk/internal/middleware"
	"github.com/sliea/antennadesk/internal/models"
)

// RequestHandler serves the request lifecycle endpoints.
type RequestHandler struct {
	svc RequestService
	log *logrus.Logger
}

// NewRequestHandler creates a RequestHandler with the given service and logger.
func NewRequestHandler(svc RequestService, log *logrus.Logger) *RequestHandler {
	return &RequestHandler{svc: svc, log: log}
}

// Create handles POST /api/v1/requests. Clients may only open requests for
// themselves and always start in pending.
func (h *RequestHandler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req models.CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if !p.IsAdmin() {
		if req.ClientID == "" {
			req.ClientID = p.ID
		}

		if !authorizeClient(c, p, req.ClientID) {
			return
		}

		if req.Status != "" && req.Status != models.StatusPending {
			respondError(c, http.StatusForbidden, ErrCodeForbidden, "only staff may set the initial status")

			return
		}
	}

	created, err := h.svc.CreateRequest(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, h.log, err, "creating request")

		return
	}

	middleware.Logger(c, h.log).WithFields(logrus.Fields{
		"action":       "request.create",
		"principal_id": p.ID,
		"request":      created.ID,
		"type":         created.Type,
	}).Info("audit")

	c.JSON(http.StatusCreated, created)
}

// Get handles GET /api/v1/requests/:id.
func (h *RequestHandler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	requestID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	req, err := h.svc.GetRequest(c.Request.Context(), requestID)
	if err != nil {
		respondServiceError(c, h.log, err, "getting request")

		return
	}

	if !authorizeClient(c, p, req.ClientID()) {
		return
	}

	c.JSON(http.StatusOK, req)
}

// List handles GET /api/v1/requests.
func (h *RequestHandler) List(c *gin.Context) {
	filter := models.RequestFilter{
		Status:   models.RequestStatus(c.Query("status")),
		Type:     models.RequestType(c.Query("type")),
		ClientID: c.Query("client"),
		Limit:    parseInt(c.DefaultQuery("limit", "50"), 50),
		Offset:   parseOffset(c.DefaultQuery("offset", "0")),
	}

	if filter.ClientID != "" {
		if _, err := uuid.Parse(filter.ClientID); err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeValidationError, "client must be a valid uuid")

			return
		}
	}

	reqs, hasMore, err := h.svc.ListRequests(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, h.log, err, "listing requests")

		return
	}

	if reqs == nil {
		reqs = []models.Request{}
	}

	c.JSON(http.StatusOK, gin.H{"requests": reqs, "has_more": hasMore})
}

// Update handles PUT /api/v1/requests/:id.
func (h *RequestHandler) Update(c *gin.Context) {
	requestID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	updated, err := h.svc.UpdateRequest(c.Request.Context(), requestID, req)
	if err != nil {
		respondServiceError(c, h.log, err, "updating request")

		return
	}

	middleware.Logger(c, h.log).WithFields(logrus.Fields{
		"action":       "request.update",
		"principal_id": c.GetString("principal_id"),
		"request":      requestID,
	}).Info("audit")

	c.JSON(http.StatusOK, updated)
}

// SetStatus handles PATCH /api/v1/requests/:id/status.
func (h *RequestHandler) SetStatus(c *gin.Context) {
	requestID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req models.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	updated, err := h.svc.SetStatus(c.Request.Context(), requestID, req)
	if err != nil {
		respondServiceError(c, h.log, err, "setting request status")

		return
	}

	middleware.Logger(c, h.log).WithFields(logrus.Fields{
		"action":       "request.status",
		"principal_id": c.GetString("principal_id"),
		"request":      requestID,
		"status":       updated.Status,
	}).Info("audit")

	c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /api/v1/requests/:id.
func (h *RequestHandler) Delete(c *gin.Context) {
	requestID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteRequest(c.Request.Context(), requestID); err != nil {
		respondServiceError(c, h.log, err, "deleting request")

		return
	}

	middleware.Logger(c, h.log).WithFields(logrus.Fields{
		"action":       "request.delete",
		"principal_id": c.GetString("principal_id"),
		"request":      requestID,
	}).Info("audit")

	c.Status(http.StatusNoContent)
}

// ByClient handles GET /api/v1/clients/:clientId/requests.
func (h *RequestHandler) ByClient(c *gin.Context) {
	h.forClient(c, false)
}

// PendingForClient handles GET /api/v1/clients/:clientId/requests/pending.
func (h *RequestHandler) PendingForClient(c *gin.Context) {
	h.forClient(c, true)
}

func (h *RequestHandler) forClient(c *gin.Context, openOnly bool) {
	p, ok := principal(c)
	if !ok {
		return
	}

	clientID, ok := pathUUID(c, "clientId")
	if !ok {
		return
	}

	if !authorizeClient(c, p, clientID) {
		return
	}

	var (
		reqs []models.Request
		err  error
	)

	if openOnly {
		reqs, err = h.svc.PendingForClient(c.Request.Context(), clientID)
	} else {
		reqs, err = h.svc.RequestsByClient(c.Request.Context(), clientID)
	}

	if err != nil {
		respondServiceError(c, h.log, err, "listing client requests")

		return
	}

	if reqs == nil {
		reqs = []models.Request{}
	}

	c.JSON(http.StatusOK, gin.H{"requests": reqs})
}
