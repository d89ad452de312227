package container

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go-vision-console/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConsoleContainer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg, err := config.LoadFromEnv()
	require.NoError(t, err)

	c, err := NewConsoleContainer(cfg)
	require.NoError(t, err)
	assert.Same(t, cfg, c.Config())
	require.NotNil(t, c.Sessions())
	require.NotNil(t, c.Metrics())
	t.Cleanup(c.Sessions().Close)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, c.Sessions().Len())
}

func TestNewAnalyzerContainer_RequiresAPIKey(t *testing.T) {
	cfg, err := config.LoadFromEnv()
	require.NoError(t, err)
	cfg.GeminiAPIKey = ""

	_, err = NewAnalyzerContainer(cfg)
	assert.Error(t, err)

	cfg.GeminiAPIKey = "test-key"
	c, err := NewAnalyzerContainer(cfg)
	require.NoError(t, err)
	assert.Nil(t, c.Sessions())
	assert.NotNil(t, c.Handler())
}

func TestNilConfig(t *testing.T) {
	_, err := NewConsoleContainer(nil)
	assert.Error(t, err)
	_, err = NewAnalyzerContainer(nil)
	assert.Error(t, err)
}
