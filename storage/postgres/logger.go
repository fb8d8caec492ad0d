package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// slogGormLogger adapts slog to GORM's logger.Interface. Queries are logged
// at Debug level; level filtering is left to the slog handler.
type slogGormLogger struct {
	logger *slog.Logger
}

var _ logger.Interface = slogGormLogger{}

// LogMode is a no-op; level filtering is handled by slog.
func (l slogGormLogger) LogMode(logger.LogLevel) logger.Interface { return l }

func (l slogGormLogger) Info(ctx context.Context, msg string, args ...any) {
	l.logger.InfoContext(ctx, fmt.Sprintf(msg, args...))
}

func (l slogGormLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.logger.WarnContext(ctx, fmt.Sprintf(msg, args...))
}

func (l slogGormLogger) Error(ctx context.Context, msg string, args ...any) {
	l.logger.ErrorContext(ctx, fmt.Sprintf(msg, args...))
}

// maxSQLLength bounds the SQL text included in log lines. Upserts carry
// whole vectors, so statements get long quickly.
const maxSQLLength = 200

func truncateSQL(sql string) string {
	if len(sql) <= maxSQLLength {
		return sql
	}
	half := (maxSQLLength - 3) / 2
	return sql[:half] + "..." + sql[len(sql)-half:]
}

// Trace is called by GORM after every SQL operation.
func (l slogGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		sql, rows := fc()
		l.logger.ErrorContext(ctx, "query failed",
			"sql", truncateSQL(sql),
			"rows", rows,
			"duration", elapsed,
			"error", err,
		)
		return
	}

	if !l.logger.Enabled(ctx, slog.LevelDebug) {
		return
	}

	sql, rows := fc()
	l.logger.DebugContext(ctx, "query",
		"sql", truncateSQL(sql),
		"rows", rows,
		"duration", elapsed,
	)
}
