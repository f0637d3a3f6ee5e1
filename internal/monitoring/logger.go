package monitoring

import (
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger provides structured logging with pipeline-specific helpers
type Logger struct {
	*slog.Logger
}

// NewLogger creates a JSON logger writing to stdout at info level.
func NewLogger() *Logger {
	return NewLoggerWithWriter(os.Stdout, slog.LevelInfo)
}

// NewLoggerWithWriter creates a JSON logger for an arbitrary writer and level.
func NewLoggerWithWriter(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})

	return &Logger{Logger: slog.New(handler)}
}

// NewNopLogger discards everything. Used as the default for optional loggers.
func NewNopLogger() *Logger {
	return NewLoggerWithWriter(io.Discard, slog.LevelError+1)
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// RequestLogger logs HTTP request details
func (l *Logger) RequestLogger(method, path, ip, userAgent string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"user_agent", userAgent,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// APIErrorLogger logs API errors with context
func (l *Logger) APIErrorLogger(err error, method, path, ip string, statusCode int) {
	l.Error("API Error",
		"error", err.Error(),
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
	)
}

// ExtractionLogger logs a completed feature extraction.
func (l *Logger) ExtractionLogger(wordCount, sentenceCount float64, hasSpeech bool, duration time.Duration) {
	l.Debug("Features Extracted",
		"word_count", wordCount,
		"sentence_count", sentenceCount,
		"speech", hasSpeech,
		"duration_ms", duration.Milliseconds(),
	)
}

// ScoringLogger logs a completed scoring call.
func (l *Logger) ScoringLogger(scoringID, modelUsed string, riskScore, confidence float64, duration time.Duration) {
	l.Info("Scoring Completed",
		"scoring_id", scoringID,
		"model_used", modelUsed,
		"risk_score", riskScore,
		"confidence", confidence,
		"duration_ms", duration.Milliseconds(),
	)
}

// FallbackLogger records that the primary model was bypassed.
func (l *Logger) FallbackLogger(modelName string, err error) {
	l.Warn("Primary Model Failed, Using Fallback",
		"model", modelName,
		"error", err.Error(),
	)
}

// PersistenceLogger logs store operations. Failures are warnings because
// they never fail the computation that produced the record.
func (l *Logger) PersistenceLogger(operation, id string, err error) {
	if err != nil {
		l.Warn("Persistence Failed",
			"operation", operation,
			"id", id,
			"error", err.Error(),
		)
		return
	}
	l.Debug("Persistence Succeeded", "operation", operation, "id", id)
}

// ComparisonLogger logs a completed comparison.
func (l *Logger) ComparisonLogger(assessments int, trend string, scoreRange float64) {
	l.Info("Comparison Completed",
		"assessments", assessments,
		"trend", trend,
		"range", scoreRange,
	)
}

// CacheLogger logs cache operations
func (l *Logger) CacheLogger(operation, key string, hit bool, itemCount int) {
	l.Debug("Cache Operation",
		"operation", operation,
		"key", key,
		"hit", hit,
		"cache_size", itemCount,
	)
}

// SecurityLogger logs suspicious requests
func (l *Logger) SecurityLogger(event, ip, userAgent string, details map[string]interface{}) {
	l.Warn("Security Event",
		"event", event,
		"ip", ip,
		"user_agent", userAgent,
		"details", details,
	)
}

// SystemLogger logs system-level events
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
		"uptime", time.Since(startTime).String(),
	)
}

// PerformanceLogger logs performance metrics
func (l *Logger) PerformanceLogger(metric string, value float64, unit string) {
	l.Info("Performance Metric",
		"metric", metric,
		"value", value,
		"unit", unit,
	)
}

var startTime = time.Now()
