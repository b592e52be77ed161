package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/maintenance-orders-api/models"
)

// GetSettings handles GET /api/v1/settings - stored preferences over the defaults
func (h *Handlers) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.Settings.Get(),
	})
}

// UpdateSettings handles PATCH /api/v1/settings - merges the given keys into the stored preferences
func (h *Handlers) UpdateSettings(c *gin.Context) {
	var patch models.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.Settings.Save(patch); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.Settings.Get(),
	})
}
