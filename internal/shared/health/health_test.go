package health

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/authnsvc/authentication-service/internal/authentication/config"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Application.RuntimeEnvironment = "development"
	cfg.Application.JWTSecret = "test-secret-at-least-this-long-for-tests"
	return cfg
}

func TestNewHealthChecker(t *testing.T) {
	hc := NewHealthChecker(nil, testConfig(), logrus.New())
	assert.NotNil(t, hc)
	assert.NotNil(t, hc.config)
}

func TestBasicHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hc := NewHealthChecker(nil, testConfig(), logrus.New())

	router := gin.New()
	hc.RegisterRoutes(router)

	req, _ := http.NewRequest("GET", "/health/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLiveness(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hc := NewHealthChecker(nil, testConfig(), logrus.New())

	router := gin.New()
	hc.RegisterRoutes(router)

	req, _ := http.NewRequest("GET", "/health/live", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadinessWithoutDatabase(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hc := NewHealthChecker(nil, testConfig(), logrus.New())

	router := gin.New()
	hc.RegisterRoutes(router)

	req, _ := http.NewRequest("GET", "/health/ready", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	return db
}

func TestReadinessWithHealthyDatabase(t *testing.T) {
	gin.SetMode(gin.TestMode)

	gdb := openTestDB(t)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	hc := NewHealthChecker(sqlDB, testConfig(), logrus.New())

	router := gin.New()
	hc.RegisterRoutes(router)

	req, _ := http.NewRequest("GET", "/health/ready", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDetailedHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	gdb := openTestDB(t)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	hc := NewHealthChecker(sqlDB, testConfig(), logrus.New())

	router := gin.New()
	hc.RegisterRoutes(router)

	req, _ := http.NewRequest("GET", "/health/detailed", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCheckConfigurationMissingSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Application.JWTSecret = ""
	hc := NewHealthChecker(nil, cfg, logrus.New())

	result := hc.checkConfiguration()
	assert.Equal(t, StatusUnhealthy, result.Status)
}

func TestCheckConfigurationShortSecretInProduction(t *testing.T) {
	cfg := testConfig()
	cfg.Application.RuntimeEnvironment = "production"
	cfg.Application.JWTSecret = "short"
	hc := NewHealthChecker(nil, cfg, logrus.New())

	result := hc.checkConfiguration()
	assert.Equal(t, StatusDegraded, result.Status)
}

func TestCheckSystemResources(t *testing.T) {
	hc := NewHealthChecker(nil, testConfig(), logrus.New())
	result := hc.checkSystemResources()
	assert.Equal(t, StatusHealthy, result.Status)
}

func TestSetupDefaultHealthRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupDefaultHealthRoutes(router, nil, testConfig(), logrus.New())

	req, _ := http.NewRequest("GET", "/health/live", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
