package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/maintenance-orders-api/models"
)

// defaultRecentLimit is the number of orders GET /orders/recent returns without a limit
const defaultRecentLimit = 10

// CreateOrder handles POST /api/v1/orders - creates a pending order
func (h *Handlers) CreateOrder(c *gin.Context) {
	var input models.OrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := h.Orders.CreateOrder(input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// ListOrders handles GET /api/v1/orders - lists orders newest first.
// Query parameters site, building, staff, status, dateFrom and dateTo filter the list.
func (h *Handlers) ListOrders(c *gin.Context) {
	var filter models.OrderFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondBindError(c, err)
		return
	}

	orders, err := h.Orders.ListOrders(filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if c.Query("view") == "summary" {
		summaries := make([]models.OrderSummary, 0, len(orders))
		for _, o := range orders {
			summaries = append(summaries, o.Summary())
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    summaries,
			"total":   len(summaries),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
		"total":   len(orders),
	})
}

// GetOrder handles GET /api/v1/orders/:number
func (h *Handlers) GetOrder(c *gin.Context) {
	order, err := h.Orders.GetOrder(c.Param("number"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// GetOrderDetails handles GET /api/v1/orders/:number/details - the grouped display view
func (h *Handlers) GetOrderDetails(c *gin.Context) {
	order, err := h.Orders.GetOrder(c.Param("number"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"summary": order.Summary(),
			"groups":  order.Details(),
		},
	})
}

// UpdateOrder handles PUT /api/v1/orders/:number - edits a pending order
func (h *Handlers) UpdateOrder(c *gin.Context) {
	var patch models.OrderPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := h.Orders.UpdateOrder(c.Param("number"), patch)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// DeleteOrder handles DELETE /api/v1/orders/:number
func (h *Handlers) DeleteOrder(c *gin.Context) {
	if err := h.Orders.DeleteOrder(c.Param("number")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "維修單已刪除",
	})
}

// DuplicateOrder handles POST /api/v1/orders/:number/duplicate
func (h *Handlers) DuplicateOrder(c *gin.Context) {
	order, err := h.Orders.DuplicateOrder(c.Param("number"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// SearchOrders handles GET /api/v1/orders/search?q=
func (h *Handlers) SearchOrders(c *gin.Context) {
	orders, err := h.Orders.SearchOrders(c.Query("q"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
		"total":   len(orders),
	})
}

// RecentOrders handles GET /api/v1/orders/recent?limit=
func (h *Handlers) RecentOrders(c *gin.Context) {
	limit := defaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "limit must be a non-negative integer",
				},
			})
			return
		}
		limit = parsed
	}

	orders, err := h.Orders.RecentOrders(limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}

// GetOrderStatistics handles GET /api/v1/orders/statistics
func (h *Handlers) GetOrderStatistics(c *gin.Context) {
	stats, err := h.Orders.GetOrderStatistics()
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}

// ExportOrdersCSV handles GET /api/v1/orders/export.csv - downloads the filtered orders as CSV
func (h *Handlers) ExportOrdersCSV(c *gin.Context) {
	var filter models.OrderFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondBindError(c, err)
		return
	}

	csv, err := h.Orders.ExportToCSV(filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="maintenance_orders_%s.csv"`, exportStamp()))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(csv))
}

// ExportOrdersJSON handles GET /api/v1/orders/export.json - downloads the filtered orders as JSON
func (h *Handlers) ExportOrdersJSON(c *gin.Context) {
	var filter models.OrderFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondBindError(c, err)
		return
	}

	data, err := h.Orders.ExportToJSON(filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="maintenance_orders_%s.json"`, exportStamp()))
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}
