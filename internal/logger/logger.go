package logger

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync/atomic"

	"github.com/go-chi/chi/v5/middleware"
)

type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
)

var level atomic.Int32

func init() {
	level.Store(int32(LevelInfo))
}

// SetLevel sets the minimum level that gets written.
func SetLevel(l Level) {
	level.Store(int32(l))
}

// ParseLevel converts a config value such as "debug" into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

func enabled(l Level) bool {
	return l >= Level(level.Load())
}

func Debug(ctx context.Context, msg string, kv ...any) {
	if !enabled(LevelDebug) {
		return
	}
	log.Print(format(ctx, "DEBUG", msg, kv))
}

func Info(ctx context.Context, msg string, kv ...any) {
	if !enabled(LevelInfo) {
		return
	}
	log.Print(format(ctx, "INFO", msg, kv))
}

// Error logs msg with err appended. A nil err logs msg alone.
func Error(ctx context.Context, err error, msg string, kv ...any) {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	log.Print(format(ctx, "ERROR", msg, kv))
}

func format(ctx context.Context, tag, msg string, kv []any) string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(tag)
	b.WriteString("] ")
	b.WriteString(msg)

	for i := 0; i < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		if i+1 < len(kv) {
			fmt.Fprintf(&b, " %s=%v", key, kv[i+1])
		} else {
			fmt.Fprintf(&b, " %s=<missing>", key)
		}
	}

	if ctx != nil {
		if id := middleware.GetReqID(ctx); id != "" {
			fmt.Fprintf(&b, " request_id=%s", id)
		}
	}

	return b.String()
}
