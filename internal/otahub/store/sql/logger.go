package sql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/autopeer-io/otahub/pkg/log"
)

const slowQueryThreshold = 200 * time.Millisecond

// gormLogger routes gorm's logging into pkg/log.
type gormLogger struct {
	level logger.LogLevel
	log   log.Logger
}

func newGormLogger(l log.Logger) logger.Interface {
	return &gormLogger{level: logger.Warn, log: l}
}

func (g *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	c := *g
	c.level = level
	return &c
}

func (g *gormLogger) Info(_ context.Context, msg string, args ...any) {
	if g.level >= logger.Info {
		g.log.Info(fmt.Sprintf(msg, args...))
	}
}

func (g *gormLogger) Warn(_ context.Context, msg string, args ...any) {
	if g.level >= logger.Warn {
		g.log.Warn(fmt.Sprintf(msg, args...))
	}
}

func (g *gormLogger) Error(_ context.Context, msg string, args ...any) {
	if g.level >= logger.Error {
		g.log.Error(nil, fmt.Sprintf(msg, args...))
	}
}

// Trace logs failed and slow statements. Not-found and constraint errors
// are expected outcomes and only show up at debug level.
func (g *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && !errors.Is(err, gorm.ErrDuplicatedKey) && g.level >= logger.Error:
		sql, rows := fc()
		g.log.Error(err, "SQL statement failed", "sql", sql, "rows", rows, "elapsed", elapsed)
	case elapsed > slowQueryThreshold && g.level >= logger.Warn:
		sql, rows := fc()
		g.log.Warn("Slow SQL statement", "sql", sql, "rows", rows, "elapsed", elapsed)
	case g.level >= logger.Info:
		sql, rows := fc()
		g.log.Debug("SQL statement", "sql", sql, "rows", rows, "elapsed", elapsed, "error", err)
	}
}
