package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/dfierro/tavola-api/config"
	"github.com/dfierro/tavola-api/controllers"
	"github.com/dfierro/tavola-api/middleware"
	"github.com/dfierro/tavola-api/models"
	"github.com/dfierro/tavola-api/realtime"
	"github.com/dfierro/tavola-api/services"
)

func main() {
	// Basic logging
	log.Println("Starting Tavola POS API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(
		&models.User{},
		&models.Table{},
		&models.TableSession{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Invoice{},
		&models.Payment{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Menu image storage is optional; without a bucket the API runs but
	// image uploads are rejected
	if cfg.AWSS3Bucket != "" {
		s3Service, err := services.InitS3Service()
		if err != nil {
			log.Fatalf("Failed to initialize S3 service: %v", err)
		}
		services.InitImageService(s3Service)
		log.Println("Menu image storage initialized")
	} else {
		log.Println("AWS_S3_BUCKET not set, menu image uploads disabled")
	}

	// Event distributor for kitchen/waiter/cashier live views
	hub := realtime.NewHub()
	defer hub.Stop()
	controllers.SetPublisher(hub)

	// Initialize Gin router
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	// Websocket endpoint for real-time updates
	router.GET("/ws", gin.WrapH(hub.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		// Database status endpoint
		v1.GET("/database/status", databaseStatus)

		// Authentication
		auth := v1.Group("/auth")
		{
			auth.POST("/register", controllers.Register)
			auth.POST("/login", controllers.Login)
			auth.GET("/profile", middleware.AuthRequired(), controllers.GetProfile)
		}

		// Staff administration
		users := v1.Group("/users", middleware.AuthRequired(), middleware.RequireRoles(models.RoleAdmin, models.RoleManager))
		{
			users.GET("", controllers.GetAllUsers)
			users.GET("/:id", controllers.GetUser)
			users.PUT("/:id", controllers.UpdateUser)
			users.DELETE("/:id", controllers.DeleteUser)
			users.GET("/role/:role", controllers.GetUsersByRole)
		}

		// Tables and sessions
		tables := v1.Group("/tables", middleware.AuthRequired())
		{
			tables.GET("", controllers.GetAllTables)
			tables.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), controllers.CreateTable)
			tables.PUT("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), controllers.UpdateTable)
			tables.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), controllers.DeleteTable)
			tables.GET("/:id/sessions", controllers.GetTableSessions)
			tables.POST("/sessions", middleware.RequireRoles(models.RoleWaiter), controllers.OpenSession)
			tables.PUT("/sessions/:sessionId/close", middleware.RequireRoles(models.RoleCashier), controllers.CloseSession)
		}

		// Menu catalog
		menu := v1.Group("/menu")
		{
			menu.GET("", controllers.GetAllMenuItems)
			menu.GET("/categories", controllers.GetCategories)
			menu.GET("/:id", controllers.GetMenuItem)

			adminMenu := menu.Group("", middleware.AuthRequired(), middleware.RequireRoles(models.RoleAdmin, models.RoleManager))
			{
				adminMenu.POST("", controllers.CreateMenuItem)
				adminMenu.PUT("/:id", controllers.UpdateMenuItem)
				adminMenu.DELETE("/:id", controllers.DeleteMenuItem)
				adminMenu.POST("/:id/image", controllers.UploadMenuItemImage)
			}
		}

		// Orders
		orders := v1.Group("/orders", middleware.AuthRequired())
		{
			orders.POST("", middleware.RequireRoles(models.RoleWaiter), controllers.CreateOrder)
			orders.GET("", middleware.RequireRoles(models.RoleKitchen, models.RoleCashier, models.RoleAdmin, models.RoleManager), controllers.GetAllOrders)
			orders.GET("/:id", controllers.GetOrder)
			orders.GET("/session/:sessionId", controllers.GetOrdersBySession)
			orders.PUT("/:id/status", middleware.RequireRoles(models.RoleKitchen), controllers.UpdateOrderStatus)
		}

		// Invoices and payments
		invoices := v1.Group("/invoices", middleware.AuthRequired())
		{
			invoices.POST("", middleware.RequireRoles(models.RoleCashier), controllers.CreateInvoice)
			invoices.GET("/:id", controllers.GetInvoice)
			invoices.GET("/session/:sessionId", controllers.GetInvoicesBySession)
			invoices.PUT("/:id", middleware.RequireRoles(models.RoleCashier), controllers.UpdateInvoice)
			invoices.POST("/:id/payment", middleware.RequireRoles(models.RoleCashier), controllers.ProcessPayment)
			invoices.GET("/:id/payments", controllers.GetPayments)
		}
	}

	// Start server
	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Tavola POS API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	// Ping the database to verify connection
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	// Get list of tables
	var tables []string
	if err := db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public'").Scan(&tables).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
