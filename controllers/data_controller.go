package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/maintenance-orders-api/services"
	"github.com/kendall-kelly/maintenance-orders-api/store"
)

// RestoreRequest represents the request body for restoring a backup
type RestoreRequest struct {
	Key string `json:"key" binding:"required"`
}

func exportStamp() string {
	return time.Now().Format("2006-01-02")
}

// StorageStatus handles GET /api/v1/storage/status - probes the store and reports usage
func (h *Handlers) StorageStatus(c *gin.Context) {
	if err := store.Probe(h.Store); err != nil {
		h.respondError(c, err)
		return
	}

	stats, err := h.Data.StorageStats()
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"available": true,
		"usedKB":    stats.StorageUsed.TotalKB(),
		"data":      stats,
	})
}

// ExportData handles GET /api/v1/data/export - every collection as one document
func (h *Handlers) ExportData(c *gin.Context) {
	export, err := h.Data.ExportData()
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    export,
	})
}

// ImportData handles POST /api/v1/data/import - replaces the collections present in the body
func (h *Handlers) ImportData(c *gin.Context) {
	var req services.DataImport
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if req.Orders == nil && req.Staff == nil && req.Settings == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "沒有可匯入的資料",
			},
		})
		return
	}

	if err := h.Data.ImportData(req); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "資料匯入成功",
	})
}

// ClearData handles DELETE /api/v1/data - removes every order, staff member and setting
func (h *Handlers) ClearData(c *gin.Context) {
	if err := h.Data.ClearAllData(); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "所有資料已清除",
	})
}

// BackupData handles POST /api/v1/data/backup - uploads a snapshot to the backup bucket
func (h *Handlers) BackupData(c *gin.Context) {
	result, err := h.Data.Backup(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    result,
	})
}

// RestoreData handles POST /api/v1/data/restore - imports a snapshot from the backup bucket
func (h *Handlers) RestoreData(c *gin.Context) {
	var req RestoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	restored, err := h.Data.Restore(c.Request.Context(), req.Key)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    restored,
	})
}
