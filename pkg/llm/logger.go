package llm

import (
	"context"
	"sort"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"
)

// Fields represents structured logging fields.
type Fields map[string]interface{}

// Logger is the logging surface the client writes to.
type Logger interface {
	Debug(ctx context.Context, msg string, fields Fields)
	Info(ctx context.Context, msg string, fields Fields)
	Warn(ctx context.Context, msg string, fields Fields)
	Error(ctx context.Context, err error, fields Fields)
}

// secretFields are masked before they reach the log.
var secretFields = map[string]struct{}{
	"api_key":       {},
	"authorization": {},
}

type logxLogger struct{}

// NewLogger sets the logx level and returns a Logger backed by logx.
func NewLogger(level string) Logger {
	logx.SetLevel(parseLevel(level))
	return logxLogger{}
}

func (logxLogger) Debug(ctx context.Context, msg string, fields Fields) {
	logx.WithContext(ctx).Debugw(msg, logFields(fields)...)
}

func (logxLogger) Info(ctx context.Context, msg string, fields Fields) {
	logx.WithContext(ctx).Infow(msg, logFields(fields)...)
}

// Warn goes to the slow channel; logx has no warn level.
func (logxLogger) Warn(ctx context.Context, msg string, fields Fields) {
	logx.WithContext(ctx).Sloww(msg, logFields(fields)...)
}

func (logxLogger) Error(ctx context.Context, err error, fields Fields) {
	logx.WithContext(ctx).Errorw(err.Error(), logFields(fields)...)
}

func parseLevel(level string) uint32 {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logx.DebugLevel
	case "error":
		return logx.ErrorLevel
	case "severe", "fatal":
		return logx.SevereLevel
	default:
		return logx.InfoLevel
	}
}

// logFields orders fields by key and masks secrets.
func logFields(fields Fields) []logx.LogField {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]logx.LogField, 0, len(keys))
	for _, k := range keys {
		v := fields[k]
		if _, secret := secretFields[strings.ToLower(k)]; secret {
			v = maskSecret(v)
		}
		out = append(out, logx.Field(k, v))
	}
	return out
}

// maskSecret keeps a key's four-character prefix (gsk_, sk-p) and drops the rest.
func maskSecret(v interface{}) string {
	s, _ := v.(string)
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}
