package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dfierro/tavola-api/config"
	"github.com/dfierro/tavola-api/middleware"
	"github.com/dfierro/tavola-api/models"
	"github.com/dfierro/tavola-api/realtime"
	"github.com/dfierro/tavola-api/statemachine"
)

// OrderItemRequest is one requested line of a new order. Name and price are
// never trusted from the client; they are captured from the menu catalog.
type OrderItemRequest struct {
	MenuItemID uint `json:"menu_item_id" binding:"required"`
	Qty        int  `json:"qty" binding:"required,gte=1"`
}

// CreateOrderRequest represents the request body for submitting an order
type CreateOrderRequest struct {
	SessionID uint               `json:"session_id" binding:"required"`
	Items     []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// UpdateOrderStatusRequest represents the request body for a status change
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CreateOrder handles POST /api/v1/orders - submits a kitchen ticket for an
// open session (waiter only)
func CreateOrder(c *gin.Context) {
	creatorID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return
	}

	var req CreateOrderRequest
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
	var session models.TableSession
	if err := db.First(&session, req.SessionID).Error; err != nil || session.Status != models.SessionOpen {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_SESSION",
				"message": "Session does not exist or is not open",
			},
		})
		return
	}

	// Validate each line against the catalog and capture the current name
	// and price. Later menu edits never touch this order.
	items := make([]models.OrderItem, 0, len(req.Items))
	for _, reqItem := range req.Items {
		var menuItem models.MenuItem
		if err := db.First(&menuItem, reqItem.MenuItemID).Error; err != nil || !menuItem.Available {
			name := menuItem.Name
			if name == "" {
				name = fmt.Sprintf("id %d", reqItem.MenuItemID)
			}
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ITEM_UNAVAILABLE",
					"message": fmt.Sprintf("Menu item %s is not available", name),
				},
			})
			return
		}

		items = append(items, models.OrderItem{
			MenuItemID: menuItem.ID,
			Name:       menuItem.Name,
			Qty:        reqItem.Qty,
			Price:      menuItem.Price,
		})
	}

	order := models.Order{
		SessionID:   session.ID,
		Items:       items,
		Status:      models.OrderPending,
		CreatedByID: creatorID,
	}
	if err := db.Create(&order).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create order",
			},
		})
		return
	}

	if err := db.Preload("Items").Preload("Session").Preload("CreatedBy").First(&order, order.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load order details",
			},
		})
		return
	}

	// The order is committed; tell the kitchen
	publish("kitchen", realtime.EventNewOrder, order)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// UpdateOrderStatus handles PUT /api/v1/orders/:id/status - advances the
// kitchen workflow (kitchen only)
func UpdateOrderStatus(c *gin.Context) {
	var req UpdateOrderStatusRequest
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

	if !statemachine.IsValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_STATUS",
				"message": "Status must be one of: pending, preparing, ready, served",
			},
		})
		return
	}

	db := config.GetDB()
	var order models.Order
	if err := db.First(&order, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order not found",
			},
		})
		return
	}

	if err := statemachine.CanTransition(order.Status, req.Status); err != nil {
		errorBody := gin.H{
			"code":    "INVALID_TRANSITION",
			"message": err.Error(),
		}
		// Tell the client the one move the workflow does allow
		if next := statemachine.NextStatus(order.Status); next != "" {
			errorBody["next"] = next
		}
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   errorBody,
		})
		return
	}

	// Conditional update so two concurrent transitions cannot both win
	res := db.Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, order.Status).
		Update("status", req.Status)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update order status",
			},
		})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_TRANSITION",
				"message": "Order status changed concurrently",
			},
		})
		return
	}

	if err := db.Preload("Items").Preload("Session").Preload("CreatedBy").First(&order, order.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load order details",
			},
		})
		return
	}

	// Committed; fan out to the kitchen view and the table's watchers
	publish("kitchen", realtime.EventOrderUpdated, order)
	publish(realtime.TableGroup(order.Session.TableID), realtime.EventOrderStatusChanged, order)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// GetOrder handles GET /api/v1/orders/:id - returns one order
func GetOrder(c *gin.Context) {
	db := config.GetDB()

	var order models.Order
	if err := db.Preload("Items").Preload("Session").Preload("CreatedBy").First(&order, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// GetOrdersBySession handles GET /api/v1/orders/session/:sessionId - a
// session's orders, oldest first
func GetOrdersBySession(c *gin.Context) {
	db := config.GetDB()

	var orders []models.Order
	if err := db.Where("session_id = ?", c.Param("sessionId")).
		Preload("Items").
		Preload("CreatedBy").
		Order("created_at ASC, id ASC").
		Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to query orders",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}

// GetAllOrders handles GET /api/v1/orders - recent orders, newest first,
// with optional status filter and limit (default 50)
func GetAllOrders(c *gin.Context) {
	db := config.GetDB()

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_LIMIT",
					"message": "Limit must be a positive integer",
				},
			})
			return
		}
		limit = parsed
	}

	query := db.Model(&models.Order{})
	if status := c.Query("status"); status != "" {
		if !statemachine.IsValidStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_STATUS",
					"message": "Status must be one of: pending, preparing, ready, served",
				},
			})
			return
		}
		query = query.Where("status = ?", status)
	}

	var orders []models.Order
	if err := query.
		Preload("Items").
		Preload("Session").
		Preload("CreatedBy").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to query orders",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}
