package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SaveStaffRequest represents the request body for adding or updating a staff member
type SaveStaffRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// ListStaff handles GET /api/v1/staff
func (h *Handlers) ListStaff(c *gin.Context) {
	members, err := h.Staff.ListStaff()
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    members,
	})
}

// SaveStaff handles POST /api/v1/staff - adds a member, or updates the member with the same name
func (h *Handlers) SaveStaff(c *gin.Context) {
	var req SaveStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	member, err := h.Staff.SaveStaff(req.Name, req.Phone)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    member,
	})
}

// DeleteStaff handles DELETE /api/v1/staff/:name
func (h *Handlers) DeleteStaff(c *gin.Context) {
	if err := h.Staff.DeleteStaff(c.Param("name")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "工務人員已刪除",
	})
}
