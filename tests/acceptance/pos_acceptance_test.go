package acceptance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/dfierro/tavola-api/controllers"
	"github.com/dfierro/tavola-api/middleware"
	"github.com/dfierro/tavola-api/models"
	"github.com/dfierro/tavola-api/realtime"
	"github.com/dfierro/tavola-api/tests/testutil"
)

// POSAcceptanceTestSuite runs a full table service shift over a real HTTP
// server with real tokens, verifying that every step is gated by the role
// the route demands.
type POSAcceptanceTestSuite struct {
	suite.Suite
	server *httptest.Server
	db     *gorm.DB
	mock   *realtime.MockPublisher

	tokens map[string]string
}

// SetupSuite runs once before all tests
func (suite *POSAcceptanceTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	os.Setenv("GO_ENV", "test")
	testutil.SetupTestConfig()

	router := suite.createRouter()
	suite.server = httptest.NewServer(router)
}

// SetupTest runs before each test
func (suite *POSAcceptanceTestSuite) SetupTest() {
	suite.db = testutil.OpenTestDB(suite.T())

	suite.mock = realtime.NewMockPublisher()
	controllers.SetPublisher(suite.mock)

	suite.tokens = make(map[string]string)
	for _, role := range []string{models.RoleAdmin, models.RoleWaiter, models.RoleKitchen, models.RoleCashier} {
		user := testutil.SeedStaff(suite.T(), suite.db, role+" user", role+"@tavola.test", role)
		suite.tokens[role] = testutil.TokenFor(suite.T(), &user)
	}
}

// TearDownTest runs after each test
func (suite *POSAcceptanceTestSuite) TearDownTest() {
	controllers.SetPublisher(nil)
	sqlDB, err := suite.db.DB()
	if err == nil {
		sqlDB.Close()
	}
}

// TearDownSuite runs once after all tests
func (suite *POSAcceptanceTestSuite) TearDownSuite() {
	suite.server.Close()
}

// createRouter builds the service routes with the production middleware chain
func (suite *POSAcceptanceTestSuite) createRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")
	{
		tables := v1.Group("/tables", middleware.AuthRequired())
		{
			tables.GET("", controllers.GetAllTables)
			tables.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), controllers.CreateTable)
			tables.POST("/sessions", middleware.RequireRoles(models.RoleWaiter), controllers.OpenSession)
			tables.PUT("/sessions/:sessionId/close", middleware.RequireRoles(models.RoleCashier), controllers.CloseSession)
		}

		menu := v1.Group("/menu")
		{
			menu.GET("", controllers.GetAllMenuItems)

			adminMenu := menu.Group("", middleware.AuthRequired(), middleware.RequireRoles(models.RoleAdmin, models.RoleManager))
			{
				adminMenu.POST("", controllers.CreateMenuItem)
			}
		}

		orders := v1.Group("/orders", middleware.AuthRequired())
		{
			orders.POST("", middleware.RequireRoles(models.RoleWaiter), controllers.CreateOrder)
			orders.GET("", middleware.RequireRoles(models.RoleKitchen, models.RoleCashier, models.RoleAdmin, models.RoleManager), controllers.GetAllOrders)
			orders.PUT("/:id/status", middleware.RequireRoles(models.RoleKitchen), controllers.UpdateOrderStatus)
		}

		invoices := v1.Group("/invoices", middleware.AuthRequired())
		{
			invoices.POST("", middleware.RequireRoles(models.RoleCashier), controllers.CreateInvoice)
			invoices.POST("/:id/payment", middleware.RequireRoles(models.RoleCashier), controllers.ProcessPayment)
		}
	}

	return router
}

// request sends an authenticated JSON request to the test server
func (suite *POSAcceptanceTestSuite) request(method, path string, payload map[string]interface{}, role string) (*http.Response, map[string]interface{}) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		suite.NoError(err)
		body = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequest(method, suite.server.URL+path, body)
	suite.NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		testutil.Authorize(req, suite.tokens[role])
	}

	resp, err := http.DefaultClient.Do(req)
	suite.NoError(err)

	raw, err := io.ReadAll(resp.Body)
	suite.NoError(err)
	resp.Body.Close()

	var response map[string]interface{}
	json.Unmarshal(raw, &response)
	return resp, response
}

func (suite *POSAcceptanceTestSuite) dataID(response map[string]interface{}) uint {
	data := response["data"].(map[string]interface{})
	return uint(data["id"].(float64))
}

// TestFullServiceShift walks seat, order, kitchen, bill and settle with the
// role that owns each step
func (suite *POSAcceptanceTestSuite) TestFullServiceShift() {
	// Admin sets up the floor and the menu
	resp, response := suite.request("POST", "/api/v1/tables", map[string]interface{}{
		"table_number": 12,
	}, models.RoleAdmin)
	assert.Equal(suite.T(), http.StatusCreated, resp.StatusCode)
	tableID := suite.dataID(response)

	resp, response = suite.request("POST", "/api/v1/menu", map[string]interface{}{
		"name":     "Margherita",
		"category": "pizza",
		"price":    11.50,
	}, models.RoleAdmin)
	assert.Equal(suite.T(), http.StatusCreated, resp.StatusCode)
	itemID := suite.dataID(response)

	// Waiter seats the party
	resp, response = suite.request("POST", "/api/v1/tables/sessions", map[string]interface{}{
		"table_id": tableID,
	}, models.RoleWaiter)
	assert.Equal(suite.T(), http.StatusCreated, resp.StatusCode)
	sessionID := suite.dataID(response)

	// Waiter submits an order: 2 x 11.50 = 23.00
	resp, response = suite.request("POST", "/api/v1/orders", map[string]interface{}{
		"session_id": sessionID,
		"items": []map[string]interface{}{
			{"menu_item_id": itemID, "qty": 2},
		},
	}, models.RoleWaiter)
	assert.Equal(suite.T(), http.StatusCreated, resp.StatusCode)
	orderID := suite.dataID(response)
	data := response["data"].(map[string]interface{})
	assert.InDelta(suite.T(), 23.00, data["total_amount"].(float64), 0.001)

	// Kitchen works the ticket to served
	for _, status := range []string{models.OrderPreparing, models.OrderReady, models.OrderServed} {
		resp, _ = suite.request("PUT", fmt.Sprintf("/api/v1/orders/%d/status", orderID), map[string]interface{}{
			"status": status,
		}, models.RoleKitchen)
		assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	}

	// Cashier bills and settles
	resp, response = suite.request("POST", "/api/v1/invoices", map[string]interface{}{
		"session_id": sessionID,
	}, models.RoleCashier)
	assert.Equal(suite.T(), http.StatusCreated, resp.StatusCode)
	invoiceID := suite.dataID(response)

	resp, _ = suite.request("POST", fmt.Sprintf("/api/v1/invoices/%d/payment", invoiceID), map[string]interface{}{
		"method": "cash",
		"amount": 23.00,
	}, models.RoleCashier)
	assert.Equal(suite.T(), http.StatusCreated, resp.StatusCode)

	// Cashier closes out the table
	resp, _ = suite.request("PUT", fmt.Sprintf("/api/v1/tables/sessions/%d/close", sessionID), nil, models.RoleCashier)
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	var table models.Table
	suite.NoError(suite.db.First(&table, tableID).Error)
	assert.Equal(suite.T(), models.TableFree, table.Status)

	// Kitchen heard about the order and every kitchen-side change
	kitchenEvents := suite.mock.EventsFor("kitchen")
	assert.Len(suite.T(), kitchenEvents, 4)
	assert.Equal(suite.T(), realtime.EventNewOrder, kitchenEvents[0].Event)
}

// TestRoleEnforcement verifies each gated route turns away the wrong role
func (suite *POSAcceptanceTestSuite) TestRoleEnforcement() {
	table := models.Table{TableNumber: 3, Status: models.TableFree}
	suite.NoError(suite.db.Create(&table).Error)

	testCases := []struct {
		name   string
		method string
		path   string
		body   map[string]interface{}
		role   string
	}{
		{"Waiter cannot create tables", "POST", "/api/v1/tables", map[string]interface{}{"table_number": 4}, models.RoleWaiter},
		{"Kitchen cannot open sessions", "POST", "/api/v1/tables/sessions", map[string]interface{}{"table_id": table.ID}, models.RoleKitchen},
		{"Waiter cannot close sessions", "PUT", "/api/v1/tables/sessions/1/close", nil, models.RoleWaiter},
		{"Cashier cannot submit orders", "POST", "/api/v1/orders", map[string]interface{}{"session_id": 1, "items": []map[string]interface{}{{"menu_item_id": 1, "qty": 1}}}, models.RoleCashier},
		{"Waiter cannot advance tickets", "PUT", "/api/v1/orders/1/status", map[string]interface{}{"status": models.OrderPreparing}, models.RoleWaiter},
		{"Waiter cannot create invoices", "POST", "/api/v1/invoices", map[string]interface{}{"session_id": 1}, models.RoleWaiter},
		{"Kitchen cannot take payments", "POST", "/api/v1/invoices/1/payment", map[string]interface{}{"method": "cash", "amount": 1}, models.RoleKitchen},
	}

	for _, tc := range testCases {
		suite.T().Run(tc.name, func(t *testing.T) {
			resp, response := suite.request(tc.method, tc.path, tc.body, tc.role)

			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
			errorObj := response["error"].(map[string]interface{})
			assert.Equal(t, "FORBIDDEN", errorObj["code"])
		})
	}

	// Nothing forbidden may echo into the live feed
	assert.Empty(suite.T(), suite.mock.Events())
}

// TestUnauthenticatedRequestsRejected verifies the whole surface demands a
// token
func (suite *POSAcceptanceTestSuite) TestUnauthenticatedRequestsRejected() {
	paths := []struct {
		method string
		path   string
	}{
		{"GET", "/api/v1/tables"},
		{"POST", "/api/v1/orders"},
		{"POST", "/api/v1/invoices"},
	}

	for _, p := range paths {
		resp, response := suite.request(p.method, p.path, nil, "")
		assert.Equal(suite.T(), http.StatusUnauthorized, resp.StatusCode)
		errorObj := response["error"].(map[string]interface{})
		assert.Equal(suite.T(), "MISSING_TOKEN", errorObj["code"])
	}
}

// TestPOSAcceptanceTestSuite runs the acceptance test suite
func TestPOSAcceptanceTestSuite(t *testing.T) {
	suite.Run(t, new(POSAcceptanceTestSuite))
}
