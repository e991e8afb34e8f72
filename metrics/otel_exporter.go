package metrics

import (
	"context"
	"fmt"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// OTelExporter provides OpenTelemetry metrics export following OTel standards
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	registry      *promclient.Registry
	collector     Collector

	// OTel meters and instruments
	meter         metric.Meter
	requestsGauge metric.Int64ObservableGauge
	errorsGauge   metric.Int64ObservableGauge
	rateGauge     metric.Float64ObservableGauge
	webhooksGauge metric.Int64ObservableGauge
	runsGauge     metric.Int64ObservableGauge
	registration  metric.Registration
}

// NewOTelExporter creates a new OpenTelemetry metrics exporter with Prometheus format
func NewOTelExporter(serviceName string, collector Collector) (*OTelExporter, error) {
	// Own registry so several exporters can coexist in one process
	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	// Create meter provider
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	// Create meter with service info
	meter := meterProvider.Meter(
		serviceName,
		metric.WithInstrumentationVersion("1.0.0"),
	)

	oe := &OTelExporter{
		meterProvider: meterProvider,
		registry:      registry,
		collector:     collector,
		meter:         meter,
	}

	// Register metrics instruments
	if err := oe.registerInstruments(); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}

	return oe, nil
}

// registerInstruments creates all instruments and one callback that
// observes them from a single Collect call
func (oe *OTelExporter) registerInstruments() error {
	var err error

	oe.requestsGauge, err = oe.meter.Int64ObservableGauge(
		"demo.http.requests",
		metric.WithDescription("Number of inbound HTTP requests served"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return fmt.Errorf("creating requests gauge: %w", err)
	}

	oe.errorsGauge, err = oe.meter.Int64ObservableGauge(
		"demo.http.errors",
		metric.WithDescription("Number of inbound HTTP requests answered with an error status"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return fmt.Errorf("creating errors gauge: %w", err)
	}

	oe.rateGauge, err = oe.meter.Float64ObservableGauge(
		"demo.http.requests_per_minute",
		metric.WithDescription("Inbound request rate over the last minute"),
		metric.WithUnit("{requests}/min"),
	)
	if err != nil {
		return fmt.Errorf("creating request rate gauge: %w", err)
	}

	oe.webhooksGauge, err = oe.meter.Int64ObservableGauge(
		"demo.webhooks.stored",
		metric.WithDescription("Number of webhooks currently retained in memory"),
		metric.WithUnit("{webhooks}"),
	)
	if err != nil {
		return fmt.Errorf("creating webhooks gauge: %w", err)
	}

	oe.runsGauge, err = oe.meter.Int64ObservableGauge(
		"demo.runs",
		metric.WithDescription("Number of demo runs started"),
		metric.WithUnit("{runs}"),
	)
	if err != nil {
		return fmt.Errorf("creating runs gauge: %w", err)
	}

	oe.registration, err = oe.meter.RegisterCallback(
		oe.observe,
		oe.requestsGauge,
		oe.errorsGauge,
		oe.rateGauge,
		oe.webhooksGauge,
		oe.runsGauge,
	)
	if err != nil {
		return fmt.Errorf("registering callback: %w", err)
	}

	return nil
}

// observe is the callback that reports every gauge from one snapshot
func (oe *OTelExporter) observe(ctx context.Context, observer metric.Observer) error {
	m, err := oe.collector.Collect(ctx)
	if err != nil {
		return err
	}

	observer.ObserveInt64(oe.requestsGauge, m.RequestCount)
	observer.ObserveInt64(oe.errorsGauge, m.ErrorCount)
	observer.ObserveFloat64(oe.rateGauge, m.RequestsPerMinute)
	observer.ObserveInt64(oe.webhooksGauge, m.WebhooksStored)
	observer.ObserveInt64(oe.runsGauge, m.DemoRuns)

	return nil
}

// ServeHTTP serves Prometheus-formatted metrics on the given HTTP handler
func (oe *OTelExporter) ServeHTTP() http.Handler {
	return promhttp.HandlerFor(oe.registry, promhttp.HandlerOpts{})
}

// Shutdown gracefully shuts down the meter provider
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if oe.registration != nil {
		_ = oe.registration.Unregister()
	}
	if oe.meterProvider != nil {
		return oe.meterProvider.Shutdown(ctx)
	}
	return nil
}
