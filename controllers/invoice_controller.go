package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dfierro/tavola-api/config"
	"github.com/dfierro/tavola-api/middleware"
	"github.com/dfierro/tavola-api/models"
)

// CreateInvoiceRequest represents the request body for creating an invoice
type CreateInvoiceRequest struct {
	SessionID uint `json:"session_id" binding:"required"`
}

// UpdateInvoiceRequest represents the request body for adjusting tax and
// discount before payment
type UpdateInvoiceRequest struct {
	Tax      float64 `json:"tax" binding:"gte=0"`
	Discount float64 `json:"discount" binding:"gte=0"`
}

// ProcessPaymentRequest represents the request body for settling an invoice
type ProcessPaymentRequest struct {
	Method string  `json:"method" binding:"required"`
	Amount float64 `json:"amount" binding:"gte=0"`
}

// CreateInvoice handles POST /api/v1/invoices - aggregates a session's
// orders into an invoice (cashier only). The order set and total are a
// snapshot: orders submitted after this point need a new invoice.
func CreateInvoice(c *gin.Context) {
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

	var req CreateInvoiceRequest
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
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_SESSION",
				"message": "Session does not exist or is not open",
			},
		})
		return
	}

	var orders []models.Order
	if err := db.Where("session_id = ?", session.ID).Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to query orders",
			},
		})
		return
	}
	if len(orders) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NO_ORDERS",
				"message": "No orders found for this session",
			},
		})
		return
	}

	total := 0.0
	for _, order := range orders {
		total += order.TotalAmount
	}

	invoice := models.Invoice{
		SessionID:     session.ID,
		Orders:        orders,
		TotalAmount:   total,
		PaymentStatus: models.InvoiceUnpaid,
		CreatedByID:   creatorID,
	}
	if err := db.Create(&invoice).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create invoice",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    invoice,
	})
}

// GetInvoice handles GET /api/v1/invoices/:id - returns one invoice with
// its orders expanded
func GetInvoice(c *gin.Context) {
	db := config.GetDB()

	var invoice models.Invoice
	if err := db.Preload("Orders").Preload("Orders.Items").Preload("Session").Preload("CreatedBy").
		First(&invoice, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVOICE_NOT_FOUND",
				"message": "Invoice not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    invoice,
	})
}

// GetInvoicesBySession handles GET /api/v1/invoices/session/:sessionId
func GetInvoicesBySession(c *gin.Context) {
	db := config.GetDB()

	var invoices []models.Invoice
	if err := db.Where("session_id = ?", c.Param("sessionId")).
		Preload("CreatedBy").
		Order("created_at DESC, id DESC").
		Find(&invoices).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to query invoices",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    invoices,
	})
}

// UpdateInvoice handles PUT /api/v1/invoices/:id - adjusts tax/discount on
// an unpaid invoice (cashier only)
func UpdateInvoice(c *gin.Context) {
	var req UpdateInvoiceRequest
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
	var invoice models.Invoice
	if err := db.First(&invoice, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVOICE_NOT_FOUND",
				"message": "Invoice not found",
			},
		})
		return
	}

	// Guard on the unpaid status in the update itself; a paid invoice is
	// immutable even against a concurrent payment
	res := db.Model(&models.Invoice{}).
		Where("id = ? AND payment_status = ?", invoice.ID, models.InvoiceUnpaid).
		Updates(map[string]interface{}{
			"tax":          req.Tax,
			"discount":     req.Discount,
			"final_amount": invoice.TotalAmount + req.Tax - req.Discount,
		})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update invoice",
			},
		})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVOICE_PAID",
				"message": "Invoice is already paid",
			},
		})
		return
	}

	if err := db.First(&invoice, invoice.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load invoice details",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    invoice,
	})
}

// ProcessPayment handles POST /api/v1/invoices/:id/payment -
// records payment and marks the invoice paid (cashier only). Closing the
// session is a separate step for the caller; payment alone leaves the
// table occupied.
func ProcessPayment(c *gin.Context) {
	processorID, err := middleware.GetUserID(c)
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

	var req ProcessPaymentRequest
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

	if !models.ValidPaymentMethods[req.Method] {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_METHOD",
				"message": "Payment method must be one of: cash, card, qr",
			},
		})
		return
	}

	db := config.GetDB()
	var invoice models.Invoice
	if err := db.First(&invoice, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVOICE_NOT_FOUND",
				"message": "Invoice not found",
			},
		})
		return
	}

	// The unpaid->paid flip is the guard: of two concurrent payments only
	// one updates a row, the other gets a 409
	res := db.Model(&models.Invoice{}).
		Where("id = ? AND payment_status = ?", invoice.ID, models.InvoiceUnpaid).
		Update("payment_status", models.InvoicePaid)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update invoice",
			},
		})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVOICE_PAID",
				"message": "Invoice is already paid",
			},
		})
		return
	}

	payment := models.Payment{
		InvoiceID:     invoice.ID,
		Method:        req.Method,
		Amount:        req.Amount,
		ProcessedByID: processorID,
	}
	if err := db.Create(&payment).Error; err != nil {
		// Release the paid flip so the invoice does not stay paid with no
		// payment row behind it
		db.Model(&models.Invoice{}).Where("id = ?", invoice.ID).Update("payment_status", models.InvoiceUnpaid)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to record payment",
			},
		})
		return
	}

	if err := db.First(&invoice, invoice.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load invoice details",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"payment": payment,
			"invoice": invoice,
		},
	})
}

// GetPayments handles GET /api/v1/invoices/:id/payments
func GetPayments(c *gin.Context) {
	db := config.GetDB()

	var payments []models.Payment
	if err := db.Where("invoice_id = ?", c.Param("id")).
		Preload("ProcessedBy").
		Order("created_at DESC, id DESC").
		Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to query payments",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    payments,
	})
}
