package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/maintenance-orders-api/models"
	"github.com/kendall-kelly/maintenance-orders-api/repositories"
	"github.com/kendall-kelly/maintenance-orders-api/services"
	"github.com/kendall-kelly/maintenance-orders-api/store"
	"github.com/kendall-kelly/maintenance-orders-api/utils"
	"github.com/rs/zerolog"
)

// Handlers holds the services the HTTP handlers delegate to
type Handlers struct {
	Orders   *services.OrderService
	Staff    *services.StaffService
	Data     *services.DataService
	Settings *repositories.SettingsStore
	Store    store.Store
	Logger   zerolog.Logger
}

// RegisterRoutes mounts every endpoint on the /api/v1 group
func (h *Handlers) RegisterRoutes(v1 *gin.RouterGroup) {
	v1.GET("/storage/status", h.StorageStatus)

	orders := v1.Group("/orders")
	{
		orders.POST("", h.CreateOrder)
		orders.GET("", h.ListOrders)
		orders.GET("/search", h.SearchOrders)
		orders.GET("/recent", h.RecentOrders)
		orders.GET("/statistics", h.GetOrderStatistics)
		orders.GET("/export.csv", h.ExportOrdersCSV)
		orders.GET("/export.json", h.ExportOrdersJSON)
		orders.GET("/:number", h.GetOrder)
		orders.GET("/:number/details", h.GetOrderDetails)
		orders.PUT("/:number", h.UpdateOrder)
		orders.DELETE("/:number", h.DeleteOrder)
		orders.POST("/:number/duplicate", h.DuplicateOrder)
		orders.POST("/:number/sign", h.SignOrder)
		orders.POST("/:number/photos", h.AddPhotos)
		orders.GET("/:number/photos/:photoId", h.GetPhoto)
		orders.DELETE("/:number/photos/:photoId", h.RemovePhoto)
	}

	v1.GET("/signature", h.GetSignatureOrder)

	v1.GET("/staff", h.ListStaff)
	v1.POST("/staff", h.SaveStaff)
	v1.DELETE("/staff/:name", h.DeleteStaff)

	v1.GET("/settings", h.GetSettings)
	v1.PATCH("/settings", h.UpdateSettings)

	data := v1.Group("/data")
	{
		data.GET("/export", h.ExportData)
		data.POST("/import", h.ImportData)
		data.DELETE("", h.ClearData)
		data.POST("/backup", h.BackupData)
		data.POST("/restore", h.RestoreData)
	}
}

// respondError writes the error envelope for err with the status its code maps to
func (h *Handlers) respondError(c *gin.Context, err error) {
	var (
		validationErr *models.ValidationError
		orderErr      *models.OrderError
		photoErr      *utils.PhotoUploadError
		storageErr    *store.StorageError
		backupErr     *services.BackupError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": validationErr.Error(),
				"details": validationErr.Errors,
			},
		})
	case errors.As(err, &orderErr):
		c.JSON(orderErrorStatus(orderErr), gin.H{
			"success": false,
			"error": gin.H{
				"code":    orderErr.Code,
				"message": orderErr.Message,
			},
		})
	case errors.As(err, &photoErr):
		status, code := http.StatusBadRequest, "INVALID_PHOTO"
		if photoErr.Code == "PHOTO_NOT_FOUND" {
			status, code = http.StatusNotFound, photoErr.Code
		}
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
				"details": photoErr.Code,
			},
		})
	case errors.As(err, &storageErr):
		status := http.StatusServiceUnavailable
		if storageErr == store.ErrStorageQuotaExceeded {
			status = http.StatusInsufficientStorage
		}
		h.Logger.Error().Err(err).Str("path", c.FullPath()).Msg("storage failure")
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    storageErr.Code,
				"message": storageErr.Message,
			},
		})
	case errors.As(err, &backupErr):
		c.JSON(http.StatusNotImplemented, gin.H{
			"success": false,
			"error": gin.H{
				"code":    backupErr.Code,
				"message": backupErr.Message,
			},
		})
	default:
		h.Logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Internal server error",
			},
		})
	}
}

func orderErrorStatus(err *models.OrderError) int {
	switch err {
	case models.ErrNotFound, models.ErrStaffNotFound:
		return http.StatusNotFound
	case models.ErrAlreadySigned:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// respondBindError reports a request body or query that could not be parsed
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}
