package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/neothink-dao/platform-bridge/server/internal/observability"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Mode    string `json:"mode"`
}

// GetHealth reports process liveness.
// GET /healthz
func (s *APIV1Service) GetHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status:  "ok",
		Version: s.Profile.Version,
		Mode:    s.Profile.Mode,
	})
}

type metricsOverviewResponse struct {
	TotalRequests  int64   `json:"total_requests"`
	FailedRequests int64   `json:"failed_requests"`
	SuccessRate    float64 `json:"success_rate"`
	EventsPushed   int64   `json:"events_pushed"`
}

// GetMetricsOverview returns the in-process request counters.
// GET /api/v1/metrics/overview
func (s *APIV1Service) GetMetricsOverview(c echo.Context) error {
	snapshot := observability.GlobalMetrics().Snapshot()
	return c.JSON(http.StatusOK, metricsOverviewResponse{
		TotalRequests:  snapshot.RequestTotal,
		FailedRequests: snapshot.RequestFailed,
		SuccessRate:    snapshot.SuccessRate(),
		EventsPushed:   snapshot.EventsPushed,
	})
}
