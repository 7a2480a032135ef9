package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	accessGranted  metric.Int64Counter
	accessDenied   metric.Int64Counter
	creditsBurned  metric.Int64Counter
	recordsSettled metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(60*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "tollgate"
	}
	meter := provider.Meter(name)

	accessGranted, err := meter.Int64Counter("tollgate_webservice_requests_total",
		metric.WithDescription("The number of authorized requests to web services"))
	if err != nil {
		return nil, err
	}
	accessDenied, err := meter.Int64Counter("tollgate_webservice_denied_total")
	if err != nil {
		return nil, err
	}
	creditsBurned, err := meter.Int64Counter("tollgate_credits_burned_total")
	if err != nil {
		return nil, err
	}
	recordsSettled, err := meter.Int64Counter("tollgate_records_settled_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		accessGranted:  accessGranted,
		accessDenied:   accessDenied,
		creditsBurned:  creditsBurned,
		recordsSettled: recordsSettled,
	}, nil
}

// RecordAccessGranted counts an allowed request tagged with its settlement identity.
func (m *Metrics) RecordAccessGranted(ctx context.Context, did, owner, consumer, endpoint string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("did", strings.TrimSpace(did)),
		attribute.String("owner", strings.TrimSpace(owner)),
		attribute.String("consumer", strings.TrimSpace(consumer)),
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
	)
	m.accessGranted.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordAccessDenied counts a denied request by reason.
func (m *Metrics) RecordAccessDenied(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("reason", strings.TrimSpace(reason)))
	m.accessDenied.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordSettlement counts one reconciled record and the credits it burned.
func (m *Metrics) RecordSettlement(ctx context.Context, outcome string, credits uint64) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.recordsSettled.Add(ctx, 1, metric.WithAttributes(attrs...))
	if credits > 0 {
		m.creditsBurned.Add(ctx, int64(credits), metric.WithAttributes(attrs...))
	}
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"did":      {},
	"owner":    {},
	"consumer": {},
	"endpoint": {},
	"reason":   {},
	"outcome":  {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
