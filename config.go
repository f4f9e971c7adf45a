package sqlx

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables read by
// [LoadConnectOptions]. A double underscore separates nested keys, so
// SQLX_LOG__SLOW_THRESHOLD sets log.slow_threshold.
const EnvPrefix = "SQLX_"

// LoadConnectOptions builds erased connect options from defaults, an
// optional YAML file, and SQLX_-prefixed environment variables, in
// increasing order of precedence. path may be empty to skip the file layer.
func LoadConnectOptions(path string) (ConnectOptions, error) {
	k := koanf.New(".")

	defaults := map[string]any{
		"log.statement_level":      "debug",
		"log.slow_statement_level": "warn",
		"log.slow_threshold":       "1s",
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return ConnectOptions{}, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return ConnectOptions{}, fmt.Errorf("loading config file %q: %w", path, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".",
		)
	}), nil)
	if err != nil {
		return ConnectOptions{}, fmt.Errorf("loading environment: %w", err)
	}

	opts := ConnectOptions{
		URL: k.String("url"),
		Log: LogSettings{
			Logger:        slog.Default(),
			SlowThreshold: k.Duration("log.slow_threshold"),
		},
	}

	if opts.Log.StatementLevel, err = parseLevel(k.String("log.statement_level")); err != nil {
		return ConnectOptions{}, err
	}
	if opts.Log.SlowStatementLevel, err = parseLevel(k.String("log.slow_statement_level")); err != nil {
		return ConnectOptions{}, err
	}

	return opts, nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}
