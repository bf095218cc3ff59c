package iclient

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TelemetryHooks expose observability callbacks without forcing a logging stack on the caller.
type TelemetryHooks struct {
	// OnHTTPRequest fires before the HTTP request is sent.
	OnHTTPRequest func(ctx context.Context, req *http.Request)
	// OnHTTPResponse fires after the request completes (even when err != nil).
	OnHTTPResponse func(ctx context.Context, req *http.Request, resp *http.Response, err error, latency time.Duration)
	// OnLogEntry allows callers to capture client log events.
	OnLogEntry func(ctx context.Context, entry LogEntry)
	// OnMetric records lightweight counters/gauges.
	OnMetric func(ctx context.Context, metric Metric)
}

// LogLevel encodes the severity for log hooks.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelError LogLevel = "error"
)

// LogEntry captures structured log details for client consumers.
type LogEntry struct {
	Level   LogLevel
	Message string
	Fields  map[string]any
}

// Metric represents a single observability datapoint.
type Metric struct {
	Name   string
	Value  float64
	Labels map[string]string
}

func (t TelemetryHooks) log(ctx context.Context, level LogLevel, msg string, fields map[string]any) {
	if t.OnLogEntry == nil {
		return
	}
	t.OnLogEntry(ctx, LogEntry{Level: level, Message: msg, Fields: fields})
}

func (t TelemetryHooks) metric(ctx context.Context, name string, value float64, labels map[string]string) {
	if t.OnMetric == nil {
		return
	}
	t.OnMetric(ctx, Metric{Name: name, Value: value, Labels: labels})
}

// ZapTelemetry routes log entries and metrics to logger.
// Metrics are written as debug entries named after the metric.
func ZapTelemetry(logger *zap.Logger) TelemetryHooks {
	if logger == nil {
		return TelemetryHooks{}
	}
	return TelemetryHooks{
		OnLogEntry: func(_ context.Context, entry LogEntry) {
			fields := make([]zap.Field, 0, len(entry.Fields))
			for k, v := range entry.Fields {
				fields = append(fields, zap.Any(k, v))
			}
			logger.Log(zapLevel(entry.Level), entry.Message, fields...)
		},
		OnMetric: func(_ context.Context, m Metric) {
			fields := make([]zap.Field, 0, len(m.Labels)+1)
			fields = append(fields, zap.Float64("value", m.Value))
			for k, v := range m.Labels {
				fields = append(fields, zap.String(k, v))
			}
			logger.Debug(m.Name, fields...)
		},
	}
}

func zapLevel(level LogLevel) zapcore.Level {
	switch level {
	case LogLevelDebug:
		return zapcore.DebugLevel
	case LogLevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
