package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dfierro/tavola-api/config"
	"github.com/dfierro/tavola-api/middleware"
	"github.com/dfierro/tavola-api/models"
	"github.com/dfierro/tavola-api/realtime"
)

// CreateTableRequest represents the request body for creating a table
type CreateTableRequest struct {
	TableNumber int `json:"table_number" binding:"required,gte=1"`
}

// UpdateTableRequest represents the request body for renumbering a table
type UpdateTableRequest struct {
	TableNumber int `json:"table_number" binding:"required,gte=1"`
}

// OpenSessionRequest represents the request body for opening a session
type OpenSessionRequest struct {
	TableID uint `json:"table_id" binding:"required"`
}

// GetAllTables handles GET /api/v1/tables - lists tables by number
func GetAllTables(c *gin.Context) {
	db := config.GetDB()

	var tables []models.Table
	if err := db.Order("table_number ASC").Find(&tables).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    tables,
	})
}

// CreateTable handles POST /api/v1/tables - creates a table (admin/manager)
func CreateTable(c *gin.Context) {
	var req CreateTableRequest
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
	var existing models.Table
	if err := db.Where("table_number = ?", req.TableNumber).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "TABLE_EXISTS",
				"message": "Table number already exists",
			},
		})
		return
	}

	table := models.Table{
		TableNumber: req.TableNumber,
		Status:      models.TableFree,
	}
	if err := db.Create(&table).Error; err != nil {
		// The unique index is the authority when two creates race
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "TABLE_EXISTS",
				"message": "Table number already exists",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    table,
	})
}

// UpdateTable handles PUT /api/v1/tables/:id - renumbers a table
func UpdateTable(c *gin.Context) {
	var req UpdateTableRequest
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
	var table models.Table
	if err := db.First(&table, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "TABLE_NOT_FOUND",
				"message": "Table not found",
			},
		})
		return
	}

	table.TableNumber = req.TableNumber
	if err := db.Save(&table).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "TABLE_EXISTS",
				"message": "Table number already exists",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    table,
	})
}

// DeleteTable handles DELETE /api/v1/tables/:id - removes a table that has
// no open session
func DeleteTable(c *gin.Context) {
	db := config.GetDB()

	var table models.Table
	if err := db.First(&table, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "TABLE_NOT_FOUND",
				"message": "Table not found",
			},
		})
		return
	}

	var openSession models.TableSession
	if err := db.Where("table_id = ? AND status = ?", table.ID, models.SessionOpen).First(&openSession).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SESSION_OPEN",
				"message": "Cannot delete a table with an open session",
			},
		})
		return
	}

	if err := db.Delete(&table).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to delete table",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"message": "Table deleted successfully"},
	})
}

// OpenSession handles POST /api/v1/tables/sessions - opens a session for a
// free table (waiter only)
func OpenSession(c *gin.Context) {
	waiterID, err := middleware.GetUserID(c)
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

	var req OpenSessionRequest
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
	var table models.Table
	if err := db.First(&table, req.TableID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "TABLE_NOT_FOUND",
				"message": "Table not found",
			},
		})
		return
	}

	// Occupancy and the open-session check must never diverge, so both are
	// checked even though either alone should imply the other
	var existingSession models.TableSession
	if err := db.Where("table_id = ? AND status = ?", table.ID, models.SessionOpen).First(&existingSession).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SESSION_EXISTS",
				"message": "Table already has an open session",
			},
		})
		return
	}

	// Claim the table with a conditional update. Of two concurrent opens,
	// exactly one flips free->occupied; the loser gets zero rows and a 409.
	claim := db.Model(&models.Table{}).
		Where("id = ? AND status = ?", table.ID, models.TableFree).
		Update("status", models.TableOccupied)
	if claim.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update table status",
			},
		})
		return
	}
	if claim.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "TABLE_OCCUPIED",
				"message": "Table is already occupied",
			},
		})
		return
	}

	session := models.TableSession{
		TableID:    table.ID,
		OpenedByID: waiterID,
		StartTime:  time.Now(),
		Status:     models.SessionOpen,
	}
	if err := db.Create(&session).Error; err != nil {
		// Release the claim so the table does not stay occupied without a session
		db.Model(&models.Table{}).Where("id = ?", table.ID).Update("status", models.TableFree)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to open session",
			},
		})
		return
	}

	if err := db.Preload("Table").Preload("OpenedBy").First(&session, session.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load session details",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    session,
	})
}

// CloseSession handles PUT /api/v1/tables/sessions/:sessionId/close -
// settles the session, frees the table and notifies its group (cashier only)
func CloseSession(c *gin.Context) {
	db := config.GetDB()

	var session models.TableSession
	if err := db.First(&session, c.Param("sessionId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SESSION_NOT_FOUND",
				"message": "Session not found",
			},
		})
		return
	}

	// Closing is a one-way transition; the conditional update makes a
	// repeated or concurrent close lose with zero rows
	now := time.Now()
	res := db.Model(&models.TableSession{}).
		Where("id = ? AND status = ?", session.ID, models.SessionOpen).
		Updates(map[string]interface{}{"status": models.SessionClosed, "end_time": now})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to close session",
			},
		})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SESSION_CLOSED",
				"message": "Session is already closed",
			},
		})
		return
	}

	if err := db.Model(&models.Table{}).Where("id = ?", session.TableID).Update("status", models.TableFree).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to free table",
			},
		})
		return
	}

	if err := db.Preload("Table").Preload("OpenedBy").First(&session, session.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load session details",
			},
		})
		return
	}

	// Anyone mid-interaction with this table needs to know the session ended
	publish(realtime.TableGroup(session.TableID), realtime.EventSessionClosed, session)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    session,
	})
}

// GetTableSessions handles GET /api/v1/tables/:id/sessions - session
// history for a table, newest first
func GetTableSessions(c *gin.Context) {
	db := config.GetDB()

	var table models.Table
	if err := db.First(&table, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "TABLE_NOT_FOUND",
				"message": "Table not found",
			},
		})
		return
	}

	var sessions []models.TableSession
	if err := db.Where("table_id = ?", table.ID).
		Preload("OpenedBy").
		Order("created_at DESC, id DESC").
		Find(&sessions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to query sessions",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    sessions,
	})
}
