package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// level is shared by every handler Setup creates so it can be changed after config load
var level = new(slog.LevelVar)

// 원문이 로그에 남으면 안 되는 속성 키
var redactedKeys = map[string]struct{}{
	"password":        {},
	"authorization":   {},
	"session_token":   {},
	"recipient_phone": {},
	"address":         {},
}

// Setup configures the global slog logger based on environment
func Setup(env string) {
	slog.SetDefault(slog.New(newHandler(env, os.Stdout)))
	slog.Info("Logger 초기화", "env", env, "level", level.Level().String())
}

// SetLevel overrides the environment default, e.g. LOG_LEVEL=warn
func SetLevel(name string) error {
	if name == "" {
		return nil
	}
	if err := level.UnmarshalText([]byte(strings.ToUpper(name))); err != nil {
		return err
	}
	slog.Info("로그 레벨 변경", "level", level.Level().String())
	return nil
}

func newHandler(env string, w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redact,
	}

	switch env {
	case "production", "prod":
		level.Set(slog.LevelInfo)
		return slog.NewJSONHandler(w, opts)
	case "local", "dev", "development":
		level.Set(slog.LevelDebug)
		return slog.NewTextHandler(w, opts)
	default:
		level.Set(slog.LevelInfo)
		return slog.NewTextHandler(w, opts)
	}
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if _, ok := redactedKeys[strings.ToLower(a.Key)]; ok && a.Value.String() != "" {
		return slog.String(a.Key, "[REDACTED]")
	}
	return a
}
