package healthcheck

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MyelinBots/resellboost-go/config"
	"github.com/stretchr/testify/require"
)

func TestHealthz(t *testing.T) {
	r := Router(config.AppConfig{APPName: "resellboost", Version: "1.2.3"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
	require.Equal(t, "1.2.3", body["version"])
}

func TestMetricsExposesRegistry(t *testing.T) {
	r := Router(config.AppConfig{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "resellboost_level_ups_total")
}

func TestUnknownRoute(t *testing.T) {
	r := Router(config.AppConfig{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}
