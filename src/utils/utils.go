package utils

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"liftsim/src/types"
)

// InitLogger sets the default slog logger. Output goes to stdout, and also to logPath when it is not empty.
func InitLogger(level slog.Level, logPath string) error {
	var out io.Writer = os.Stdout
	if logPath != "" {
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return err
		}
		out = io.MultiWriter(os.Stdout, logFile)
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format("15:04:05"))
				}
			}
			if a.Key == slog.SourceKey {
				if source, ok := a.Value.Any().(*slog.Source); ok {
					file := source.File
					if lastSlash := strings.LastIndexByte(file, '/'); lastSlash >= 0 {
						file = file[lastSlash+1:]
					}
					a.Value = slog.StringValue(fmt.Sprintf("%s:%d", file, source.Line))
				}
			}
			return a
		},
	})

	slog.SetDefault(slog.New(handler))
	return nil
}

func FormatRequest(req types.FloorRequest) string {
	switch req.Dir {
	case types.DirUp:
		return fmt.Sprintf("HallUp(%d)", req.Floor)
	case types.DirDown:
		return fmt.Sprintf("HallDown(%d)", req.Floor)
	}
	return fmt.Sprintf("Call(%d)", req.Floor)
}
