package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/invdash/internal/service"
)

type DashboardHandler struct {
	service *service.DashboardService
}

func NewDashboardHandler(service *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// GetDashboard returns KPIs, chart series and the inflation summary.
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	snapshot, err := h.service.Snapshot(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	// encode before writing the status so a failure still reaches the client
	payload, err := json.Marshal(snapshot)
	if err != nil {
		respondError(c, fmt.Errorf("encode dashboard: %w", err))
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

// ReloadDataset fetches the dataset again from its source.
func (h *DashboardHandler) ReloadDataset(c *gin.Context) {
	if err := h.service.Reload(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	ds, err := h.service.Dataset()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":            len(ds.Items),
		"inflation_months": len(ds.Inflation),
	})
}
