package database

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm/logger"
)

// slogWriter routes GORM's printf-style log lines into a slog.Logger.
type slogWriter struct {
	log *slog.Logger
}

func (w slogWriter) Printf(format string, args ...any) {
	w.log.Info(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "gorm")
}

func newGormLogger(log *slog.Logger, level logger.LogLevel) logger.Interface {
	if log == nil {
		log = slog.Default()
	}
	return logger.New(slogWriter{log: log}, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
