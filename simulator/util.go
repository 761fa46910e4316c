package simulator

import (
	"context"
	"log/slog"
)

const LevelTrace slog.Level = slog.LevelInfo + 1

func Trace(msg string, args ...any) {
	slog.Log(context.Background(), LevelTrace, msg, args...)
}
