package otel

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Logger 構造化ロガー
// 1行1JSONで出力し、コンテキストにスパンがあれば trace_id と span_id を付与する
type Logger struct {
	tracer trace.Tracer
	zl     zerolog.Logger
}

// LoggerOption ロガーのオプション
type LoggerOption func(*loggerOptions)

type loggerOptions struct {
	writer io.Writer
	level  LogLevel
}

// WithWriter 出力先を指定
func WithWriter(w io.Writer) LoggerOption {
	return func(o *loggerOptions) {
		o.writer = w
	}
}

// WithLevel 出力する最低レベルを指定
func WithLevel(level LogLevel) LoggerOption {
	return func(o *loggerOptions) {
		o.level = level
	}
}

// NewLogger 新しいLoggerを作成
func NewLogger(tracer trace.Tracer, opts ...LoggerOption) *Logger {
	o := &loggerOptions{
		writer: os.Stdout,
		level:  LogLevelDebug,
	}
	for _, opt := range opts {
		opt(o)
	}

	zl := zerolog.New(o.writer).
		Level(o.level.zerolog()).
		With().
		Timestamp().
		Logger()

	return &Logger{
		tracer: tracer,
		zl:     zl,
	}
}

// LogLevel ログレベル
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// ParseLogLevel 設定値からログレベルを取得（不明な値は INFO）
func ParseLogLevel(s string) LogLevel {
	switch LogLevel(strings.ToUpper(strings.TrimSpace(s))) {
	case LogLevelDebug:
		return LogLevelDebug
	case LogLevelWarn, "WARNING":
		return LogLevelWarn
	case LogLevelError:
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LogLevelDebug:
		return zerolog.DebugLevel
	case LogLevelWarn:
		return zerolog.WarnLevel
	case LogLevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Log ログを出力
func (l *Logger) Log(ctx context.Context, level LogLevel, message string, fields map[string]interface{}) {
	ev := l.zl.WithLevel(level.zerolog())
	if ev == nil {
		return
	}

	// トレースIDとSpanIDを取得
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		ev = ev.
			Str("trace_id", span.SpanContext().TraceID().String()).
			Str("span_id", span.SpanContext().SpanID().String())
	}

	if len(fields) > 0 {
		ev = ev.Interface("fields", fields)
	}

	ev.Msg(message)
}

// Debug Debugレベルのログを出力
func (l *Logger) Debug(ctx context.Context, message string, fields map[string]interface{}) {
	l.Log(ctx, LogLevelDebug, message, fields)
}

// Info Infoレベルのログを出力
func (l *Logger) Info(ctx context.Context, message string, fields map[string]interface{}) {
	l.Log(ctx, LogLevelInfo, message, fields)
}

// Warn Warnレベルのログを出力
func (l *Logger) Warn(ctx context.Context, message string, fields map[string]interface{}) {
	l.Log(ctx, LogLevelWarn, message, fields)
}

// Error Errorレベルのログを出力
func (l *Logger) Error(ctx context.Context, message string, err error, fields map[string]interface{}) {
	merged := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	if err != nil {
		merged["error"] = err.Error()
	}
	l.Log(ctx, LogLevelError, message, merged)
}
