package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/maintenance-orders-api/models"
)

// SignOrderRequest represents the request body for signing an order
type SignOrderRequest struct {
	Signature     string `json:"signature"`
	CustomerEmail string `json:"customerEmail"`
}

// GetSignatureOrder handles GET /api/v1/signature?order= - loads the order a
// signature link points at. A full link may be passed as ?link= instead.
func (h *Handlers) GetSignatureOrder(c *gin.Context) {
	if link := c.Query("link"); link != "" {
		order, err := h.Orders.GetOrderByLink(link)
		if err != nil {
			h.respondError(c, err)
			return
		}
		h.respondSignatureOrder(c, order)
		return
	}

	orderNumber := c.Query("order")
	if orderNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "缺少維修單號",
			},
		})
		return
	}

	order, err := h.Orders.GetOrder(orderNumber)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondSignatureOrder(c, order)
}

func (h *Handlers) respondSignatureOrder(c *gin.Context, order *models.Order) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"order":  order,
			"groups": order.Details(),
			"signed": order.IsSigned(),
		},
	})
}

// SignOrder handles POST /api/v1/orders/:number/sign - records the customer signature
func (h *Handlers) SignOrder(c *gin.Context) {
	var req SignOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := h.Orders.SignOrder(c.Request.Context(), c.Param("number"), req.Signature, req.CustomerEmail)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}
