package sqlx

import (
	"context"
	"log/slog"
	"time"
)

// LogSettings is the statement-logging configuration shared by the erased
// and concrete connect options. Deriving concrete options from erased ones
// preserves it verbatim.
type LogSettings struct {
	// Logger receives statement logs. A nil Logger disables them.
	Logger *slog.Logger

	// StatementLevel is the level statements are logged at.
	StatementLevel slog.Level

	// SlowStatementLevel is the level used once a statement's execution
	// time reaches SlowThreshold.
	SlowStatementLevel slog.Level

	// SlowThreshold is the execution time past which a statement is
	// considered slow. Zero disables slow-statement escalation.
	SlowThreshold time.Duration
}

func DefaultLogSettings() LogSettings {
	return LogSettings{
		Logger:             slog.Default(),
		StatementLevel:     slog.LevelDebug,
		SlowStatementLevel: slog.LevelWarn,
		SlowThreshold:      time.Second,
	}
}

// LogStatement logs one executed statement at the level selected by its
// elapsed time.
func (l LogSettings) LogStatement(ctx context.Context, sql string, elapsed time.Duration, attrs ...any) {
	if l.Logger == nil {
		return
	}

	level := l.StatementLevel
	if l.SlowThreshold > 0 && elapsed >= l.SlowThreshold {
		level = l.SlowStatementLevel
	}

	attrs = append(attrs, "sql", sql, "elapsed", elapsed)
	l.Logger.Log(ctx, level, "executed statement", attrs...)
}

// ConnectOptions is the erased connection configuration. Concrete backends
// derive their native options from it, parsing URL themselves and carrying
// Log over unchanged.
type ConnectOptions struct {
	// URL is the backend connection string, e.g. "sqlite://app.db".
	URL string

	Log LogSettings
}
