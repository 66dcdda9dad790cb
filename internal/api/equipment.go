package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// EquipmentHandler serves equipment lookups.
type EquipmentHandler struct {
	repo EquipmentLookup
	log  *logrus.Logger
}

// NewEquipmentHandler creates an EquipmentHandler.
func NewEquipmentHandler(repo EquipmentLookup, log *logrus.Logger) *EquipmentHandler {
	return &EquipmentHandler{repo: repo, log: log}
}

// Get handles GET /api/v1/equipment/:id. Clients only see their own equipment.
func (h *EquipmentHandler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	equipmentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	eq, err := h.repo.GetEquipment(c.Request.Context(), equipmentID)
	if err != nil {
		respondServiceError(c, h.log, err, "getting equipment")

		return
	}

	if !authorizeClient(c, p, eq.ClientID()) {
		return
	}

	c.JSON(http.StatusOK, eq)
}
