package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/zombar/contentlens/internal/metrics"
	"github.com/zombar/contentlens/pkg/logging"
)

func TestMetricsEndpoint(t *testing.T) {
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	handler := promhttp.Handler()
	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "text/plain") {
		t.Errorf("Expected content-type to contain 'text/plain', got '%s'", contentType)
	}

	body := w.Body.String()
	expectedMetrics := []string{
		"go_goroutines",
		"go_threads",
		"go_info",
		"promhttp_metric_handler",
	}

	for _, metric := range expectedMetrics {
		if !strings.Contains(body, metric) {
			t.Errorf("Expected metrics to contain '%s'", metric)
		}
	}
}

func TestMiddlewareChain(t *testing.T) {
	registry := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = registry

	tp := sdktrace.NewTracerProvider()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(previous)
	defer tp.Shutdown(context.Background())

	var logs bytes.Buffer
	logger := logging.New(&logs, "contentlens", slog.LevelDebug)
	httpMetrics := metrics.NewHTTPMetrics(metricsNamespace)

	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	handler := buildHandler(api, "contentlens", logger, httpMetrics)

	req := httptest.NewRequest(http.MethodGet, "/api/analyses/6f1c2a9e-8d3b-4c5e-9a7f-1b2c3d4e5f60", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", w.Code)
	}

	count, err := testutil.GatherAndCount(registry, "contentlens_http_requests_total")
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected one request series, got %d", count)
	}

	var entry map[string]interface{}
	if err := json.Unmarshal(logs.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to decode log line %q: %v", logs.String(), err)
	}
	if entry["status"] != float64(http.StatusNotFound) {
		t.Errorf("Expected logged status 404, got %v", entry["status"])
	}
	// Logging runs inside the tracing middleware, so requests carry a trace id
	if traceID, _ := entry["trace_id"].(string); traceID == "" {
		t.Error("Expected trace_id in the request log")
	}
}
