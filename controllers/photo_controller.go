package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/maintenance-orders-api/services"
	"github.com/kendall-kelly/maintenance-orders-api/utils"
)

// AddPhotosRequest represents the request body for attaching photos to an order
type AddPhotosRequest struct {
	Photos []services.PhotoUpload `json:"photos" binding:"required,min=1,dive"`
}

// AddPhotos handles POST /api/v1/orders/:number/photos - attaches photos to a pending order
func (h *Handlers) AddPhotos(c *gin.Context) {
	var req AddPhotosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := h.Orders.AddPhotos(c.Param("number"), req.Photos)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// GetPhoto handles GET /api/v1/orders/:number/photos/:photoId - serves the decoded image
func (h *Handlers) GetPhoto(c *gin.Context) {
	order, err := h.Orders.GetOrder(c.Param("number"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	photoID := c.Param("photoId")
	for _, photo := range order.Photos {
		if photo.ID != photoID {
			continue
		}

		uri, err := utils.ParseDataURI(photo.DataURI)
		if err == nil {
			err = utils.ValidatePhoto(uri)
		}
		if err != nil {
			h.respondError(c, err)
			return
		}

		// Photos never change once attached
		c.Header("Cache-Control", "public, max-age=86400")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Data(http.StatusOK, uri.MimeType, uri.Data)
		return
	}

	h.respondError(c, &utils.PhotoUploadError{Code: "PHOTO_NOT_FOUND", Message: "照片不存在"})
}

// RemovePhoto handles DELETE /api/v1/orders/:number/photos/:photoId
func (h *Handlers) RemovePhoto(c *gin.Context) {
	order, err := h.Orders.RemovePhoto(c.Param("number"), c.Param("photoId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}
