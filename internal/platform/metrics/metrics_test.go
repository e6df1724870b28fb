package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_ObserveValidation(t *testing.T) {
	m := New()
	m.ObserveValidation("form", "conflict", "appointment_conflict", false, 3*time.Millisecond)
	m.ObserveValidation("form", "", "", true, time.Millisecond)
	m.ObserveValidation("form", "", "", true, time.Millisecond)

	if got := testutil.ToFloat64(m.validations.WithLabelValues("form", "rejected", "conflict", "appointment_conflict")); got != 1 {
		t.Errorf("expected 1 rejection, got %v", got)
	}
	if got := testutil.ToFloat64(m.validations.WithLabelValues("form", "accepted", "", "")); got != 2 {
		t.Errorf("expected 2 acceptances, got %v", got)
	}
}

func TestMetrics_ObserveFailure(t *testing.T) {
	m := New()
	m.ObserveFailure("cell")
	if got := testutil.ToFloat64(m.failures.WithLabelValues("cell")); got != 1 {
		t.Errorf("expected 1 failure, got %v", got)
	}
}

func TestMetrics_Middleware(t *testing.T) {
	m := New()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/appointments/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "missing")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/appointments/abc", nil))

	if got := testutil.ToFloat64(m.requestTotal.WithLabelValues("GET", "/appointments/:id", "404")); got != 1 {
		t.Errorf("expected request counted under the route template, got %v", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveFailure("form")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "clinic_schedule_failures_total") {
		t.Error("expected scheduling metrics in exposition")
	}
}
