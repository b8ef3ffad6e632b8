package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/qwe638853/GasPass-sub000/internal/db"
	"github.com/qwe638853/GasPass-sub000/internal/services"
)

// ScanHandler exposes the monitor's cycle state and the manual scan trigger.
type ScanHandler struct {
	logger   *logrus.Logger
	monitor  *services.MonitorService
	database *db.Database
}

// NewScanHandler creates the scan handler. database may be nil.
func NewScanHandler(logger *logrus.Logger, monitor *services.MonitorService, database *db.Database) *ScanHandler {
	return &ScanHandler{
		logger:   logger,
		monitor:  monitor,
		database: database,
	}
}

// Status returns the most recent completed cycle summary.
// GET /api/status
func (h *ScanHandler) Status(c *gin.Context) {
	last := h.monitor.LastResult()
	if last == nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"cycle":   nil,
			"message": "no scan cycle completed yet",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"cycle":   last,
	})
}

// Policies returns the active policies found by the most recent cycle.
// GET /api/policies
func (h *ScanHandler) Policies(c *gin.Context) {
	triples := h.monitor.ActivePolicies()
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"count":    len(triples),
		"policies": triples,
	})
}

// TriggerScan runs one cycle immediately. Admin only.
// POST /api/scan
func (h *ScanHandler) TriggerScan(c *gin.Context) {
	h.logger.WithField("admin", c.GetString("admin_subject")).Info("Manual scan cycle triggered")

	result, err := h.monitor.RunCycle(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"cycle":   result,
	})
}

// Cycles returns persisted cycle history, newest first.
// GET /api/cycles
func (h *ScanHandler) Cycles(c *gin.Context) {
	if h.database == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "history persistence is disabled",
		})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	records, err := h.database.RecentScanCycles(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(records),
		"cycles":  records,
	})
}

// Refuels returns persisted refuel history, newest first.
// GET /api/refuels
func (h *ScanHandler) Refuels(c *gin.Context) {
	if h.database == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "history persistence is disabled",
		})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	records, err := h.database.RecentRefuels(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(records),
		"refuels": records,
	})
}
