package acceptance

import (
	"bytes"
	"encoding/json"
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
	"github.com/dfierro/tavola-api/tests/testutil"
)

// AuthAcceptanceTestSuite exercises registration, login and token checks
// over a real HTTP server with the production middleware chain.
type AuthAcceptanceTestSuite struct {
	suite.Suite
	server *httptest.Server
	db     *gorm.DB
}

// SetupSuite runs once before all tests
func (suite *AuthAcceptanceTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	os.Setenv("GO_ENV", "test")
	testutil.SetupTestConfig()

	router := suite.createRouter()
	suite.server = httptest.NewServer(router)
}

// SetupTest runs before each test
func (suite *AuthAcceptanceTestSuite) SetupTest() {
	suite.db = testutil.OpenTestDB(suite.T())
}

// TearDownTest runs after each test
func (suite *AuthAcceptanceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	if err == nil {
		sqlDB.Close()
	}
}

// TearDownSuite runs once after all tests
func (suite *AuthAcceptanceTestSuite) TearDownSuite() {
	suite.server.Close()
}

// createRouter creates the test router with the real auth routes
func (suite *AuthAcceptanceTestSuite) createRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", controllers.Register)
			auth.POST("/login", controllers.Login)
			auth.GET("/profile", middleware.AuthRequired(), controllers.GetProfile)
		}
	}

	return router
}

// makeRequest is a helper function to make HTTP requests
func (suite *AuthAcceptanceTestSuite) makeRequest(method, path string, payload map[string]interface{}, token string) (*http.Response, map[string]interface{}) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		suite.NoError(err)
		body = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequest(method, suite.server.URL+path, body)
	suite.NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		testutil.Authorize(req, token)
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

// TestRegisterLoginProfile walks the complete credential lifecycle
func (suite *AuthAcceptanceTestSuite) TestRegisterLoginProfile() {
	var token string

	suite.T().Run("Register", func(t *testing.T) {
		resp, response := suite.makeRequest("POST", "/api/v1/auth/register", map[string]interface{}{
			"name":     "Nina Cassiere",
			"email":    "nina@tavola.test",
			"password": "segreto1",
			"role":     models.RoleCashier,
		}, "")

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.True(t, response["success"].(bool))

		data := response["data"].(map[string]interface{})
		assert.NotEmpty(t, data["token"])
		user := data["user"].(map[string]interface{})
		assert.Equal(t, models.RoleCashier, user["role"])
		assert.NotContains(t, user, "password_hash")
	})

	suite.T().Run("Login", func(t *testing.T) {
		resp, response := suite.makeRequest("POST", "/api/v1/auth/login", map[string]interface{}{
			"email":    "nina@tavola.test",
			"password": "segreto1",
		}, "")

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		data := response["data"].(map[string]interface{})
		token = data["token"].(string)
		assert.NotEmpty(t, token)
	})

	suite.T().Run("Profile", func(t *testing.T) {
		resp, response := suite.makeRequest("GET", "/api/v1/auth/profile", nil, token)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "nina@tavola.test", data["email"])
	})
}

// TestLoginWrongPassword verifies credential checks do not leak which part
// was wrong
func (suite *AuthAcceptanceTestSuite) TestLoginWrongPassword() {
	testutil.SeedStaff(suite.T(), suite.db, "Gino", "gino@tavola.test", models.RoleWaiter)

	resp, response := suite.makeRequest("POST", "/api/v1/auth/login", map[string]interface{}{
		"email":    "gino@tavola.test",
		"password": "not-the-password",
	}, "")

	assert.Equal(suite.T(), http.StatusUnauthorized, resp.StatusCode)
	errorObj := response["error"].(map[string]interface{})
	assert.Equal(suite.T(), "INVALID_CREDENTIALS", errorObj["code"])
}

// TestProtectedEndpointWorkflow tests the token checks on a protected route
func (suite *AuthAcceptanceTestSuite) TestProtectedEndpointWorkflow() {
	suite.T().Run("Without Authentication", func(t *testing.T) {
		resp, response := suite.makeRequest("GET", "/api/v1/auth/profile", nil, "")

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		errorObj := response["error"].(map[string]interface{})
		assert.Equal(t, "MISSING_TOKEN", errorObj["code"])
	})

	suite.T().Run("With Invalid Token", func(t *testing.T) {
		resp, response := suite.makeRequest("GET", "/api/v1/auth/profile", nil, "not-a-jwt")

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		errorObj := response["error"].(map[string]interface{})
		assert.Equal(t, "INVALID_TOKEN", errorObj["code"])
	})
}

// TestErrorResponseFormat validates consistent error response format
func (suite *AuthAcceptanceTestSuite) TestErrorResponseFormat() {
	resp, response := suite.makeRequest("GET", "/api/v1/auth/profile", nil, "")
	assert.Equal(suite.T(), http.StatusUnauthorized, resp.StatusCode)

	assert.Contains(suite.T(), response, "success")
	assert.False(suite.T(), response["success"].(bool))
	assert.Contains(suite.T(), response, "error")

	errorObj := response["error"].(map[string]interface{})
	assert.IsType(suite.T(), "", errorObj["code"])
	assert.IsType(suite.T(), "", errorObj["message"])
	assert.NotEmpty(suite.T(), errorObj["code"])
	assert.NotEmpty(suite.T(), errorObj["message"])
}

// TestAuthAcceptanceTestSuite runs the acceptance test suite
func TestAuthAcceptanceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthAcceptanceTestSuite))
}
