package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dfierro/tavola-api/config"
	"github.com/dfierro/tavola-api/models"
	"github.com/dfierro/tavola-api/services"
	"github.com/dfierro/tavola-api/utils"
)

// CreateMenuItemRequest represents the request body for creating a menu item
type CreateMenuItemRequest struct {
	Name        string  `json:"name" binding:"required"`
	Price       float64 `json:"price" binding:"gte=0"`
	Category    string  `json:"category" binding:"required"`
	Description string  `json:"description"`
}

// UpdateMenuItemRequest represents the request body for updating a menu item
type UpdateMenuItemRequest struct {
	Name        string   `json:"name" binding:"omitempty"`
	Price       *float64 `json:"price" binding:"omitempty,gte=0"`
	Category    string   `json:"category" binding:"omitempty"`
	Available   *bool    `json:"available"`
	Description *string  `json:"description"`
}

// attachImageURL resolves the presigned URL for a menu item's image.
// A failed resolution only logs; listing the menu must not depend on S3.
func attachImageURL(item *models.MenuItem) {
	if item.ImageS3Key == nil || *item.ImageS3Key == "" {
		return
	}
	imageService := services.GetImageService()
	if imageService == nil {
		return
	}
	url, err := imageService.GetImageURL(*item.ImageS3Key)
	if err != nil {
		log.Printf("failed to resolve image URL for menu item %d: %v", item.ID, err)
		return
	}
	item.ImageURL = &url
}

// GetAllMenuItems handles GET /api/v1/menu - lists catalog entries with
// optional category and availability filters
func GetAllMenuItems(c *gin.Context) {
	db := config.GetDB()

	query := db.Model(&models.MenuItem{})
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if available := c.Query("available"); available != "" {
		query = query.Where("available = ?", available == "true")
	}

	var items []models.MenuItem
	if err := query.Order("category ASC, name ASC").Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to query menu items",
			},
		})
		return
	}

	for i := range items {
		attachImageURL(&items[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    items,
	})
}

// GetMenuItem handles GET /api/v1/menu/:id
func GetMenuItem(c *gin.Context) {
	db := config.GetDB()

	var item models.MenuItem
	if err := db.First(&item, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MENU_ITEM_NOT_FOUND",
				"message": "Menu item not found",
			},
		})
		return
	}

	attachImageURL(&item)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    item,
	})
}

// GetCategories handles GET /api/v1/menu/categories - distinct categories
func GetCategories(c *gin.Context) {
	db := config.GetDB()

	var categories []string
	if err := db.Model(&models.MenuItem{}).Distinct("category").Order("category ASC").Pluck("category", &categories).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to query categories",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    categories,
	})
}

// CreateMenuItem handles POST /api/v1/menu (admin/manager only)
func CreateMenuItem(c *gin.Context) {
	var req CreateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	db := config.GetDB()
	item := models.MenuItem{
		Name:        req.Name,
		Price:       req.Price,
		Category:    req.Category,
		Available:   true,
		Description: req.Description,
	}
	if err := db.Create(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create menu item",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    item,
	})
}

// UpdateMenuItem handles PUT /api/v1/menu/:id (admin/manager only).
// Price and availability changes affect future orders only; existing
// orders keep the values captured at submission.
func UpdateMenuItem(c *gin.Context) {
	var req UpdateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	db := config.GetDB()
	var item models.MenuItem
	if err := db.First(&item, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MENU_ITEM_NOT_FOUND",
				"message": "Menu item not found",
			},
		})
		return
	}

	if req.Name != "" {
		item.Name = req.Name
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.Category != "" {
		item.Category = req.Category
	}
	if req.Available != nil {
		item.Available = *req.Available
	}
	if req.Description != nil {
		item.Description = *req.Description
	}

	if err := db.Save(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update menu item",
			},
		})
		return
	}

	attachImageURL(&item)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    item,
	})
}

// DeleteMenuItem handles DELETE /api/v1/menu/:id (admin/manager only)
func DeleteMenuItem(c *gin.Context) {
	db := config.GetDB()

	var item models.MenuItem
	if err := db.First(&item, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MENU_ITEM_NOT_FOUND",
				"message": "Menu item not found",
			},
		})
		return
	}

	if err := db.Delete(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to delete menu item",
			},
		})
		return
	}

	// Existing orders keep their captured snapshot; only the stored image
	// is cleaned up
	if item.ImageS3Key != nil {
		if imageService := services.GetImageService(); imageService != nil {
			if err := imageService.DeleteImage(*item.ImageS3Key); err != nil {
				log.Printf("failed to delete image for menu item %d: %v", item.ID, err)
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"message": "Menu item deleted successfully"},
	})
}

// UploadMenuItemImage handles POST /api/v1/menu/:id/image (admin/manager
// only) - stores an image for the item and records its key
func UploadMenuItemImage(c *gin.Context) {
	db := config.GetDB()

	var item models.MenuItem
	if err := db.First(&item, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MENU_ITEM_NOT_FOUND",
				"message": "Menu item not found",
			},
		})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "Image file is required",
			},
		})
		return
	}

	imageService := services.GetImageService()
	if imageService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STORAGE_UNAVAILABLE",
				"message": "Image storage is not configured",
			},
		})
		return
	}

	imageKey, err := imageService.UploadImage(fileHeader)
	if err != nil {
		if uploadErr, ok := err.(*utils.FileUploadError); ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    uploadErr.Code,
					"message": uploadErr.Message,
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_ERROR",
				"message": "Failed to upload image",
			},
		})
		return
	}

	// Replace any previous image
	oldKey := item.ImageS3Key
	item.ImageS3Key = &imageKey
	if err := db.Save(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update menu item",
			},
		})
		return
	}
	if oldKey != nil && *oldKey != imageKey {
		if err := imageService.DeleteImage(*oldKey); err != nil {
			log.Printf("failed to delete replaced image %s: %v", *oldKey, err)
		}
	}

	attachImageURL(&item)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    item,
	})
}
