package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// MetricsOverviewResponse represents the overview response of system metrics
type MetricsOverviewResponse struct {
	TotalRequests int64   `json:"total_requests"`
	SuccessRate   float64 `json:"success_rate"`
	AvgLatencyMs  int64   `json:"avg_latency_ms"`
	P95LatencyMs  int64   `json:"p95_latency_ms"`
	ErrorCount    int64   `json:"error_count"`
	// SessionsScheduled counts sessions created by generate and extend runs.
	SessionsScheduled int64 `json:"sessions_scheduled"`
	// Notifications counts sessions that could not be placed.
	Notifications int64                        `json:"notifications"`
	Operations    map[string]OperationOverview `json:"operations"`
}

// OperationOverview summarises one plan operation.
type OperationOverview struct {
	Count        int64 `json:"count"`
	Errors       int64 `json:"errors"`
	AvgLatencyMs int64 `json:"avg_latency_ms"`
}

// GetMetricsOverview returns the system metrics overview
// GET /api/v1/system/metrics
func (s *APIV1Service) GetMetricsOverview(c echo.Context) error {
	snapshot := s.Metrics.Snapshot()

	resp := MetricsOverviewResponse{
		TotalRequests:     snapshot.RequestTotal,
		SuccessRate:       snapshot.SuccessRate(),
		P95LatencyMs:      snapshot.P95DurationMs,
		ErrorCount:        snapshot.RequestFailed,
		SessionsScheduled: snapshot.Sessions,
		Notifications:     snapshot.Notifications,
		Operations:        make(map[string]OperationOverview, len(snapshot.Operations)),
	}

	var totalMs, count int64
	for name, op := range snapshot.Operations {
		resp.Operations[name] = OperationOverview{
			Count:        op.ExecutionCount,
			Errors:       op.ErrorCount,
			AvgLatencyMs: op.AverageDuration,
		}
		totalMs += op.TotalDuration
		count += op.ExecutionCount
	}
	if count > 0 {
		resp.AvgLatencyMs = totalMs / count
	}
	return c.JSON(http.StatusOK, resp)
}
