package sqlite

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/LovecraftianHorror/sqlx"
)

// ConnectOptions configures one SQLite connection.
type ConnectOptions struct {
	// Filename is the database file. Ignored when InMemory is set.
	Filename string

	// InMemory opens a private in-memory database.
	InMemory bool

	ReadOnly bool

	// CreateIfMissing creates the database file when it does not exist.
	CreateIfMissing bool

	// SharedCache enables SQLite's shared-cache mode.
	SharedCache bool

	ForeignKeys bool

	// BusyTimeout is how long the engine waits on a locked database before
	// returning SQLITE_BUSY.
	BusyTimeout time.Duration

	// JournalMode is applied with PRAGMA journal_mode when non-empty.
	JournalMode string

	// RowChannelSize is the capacity of the channel between the execution
	// worker and a statement's result stream. It bounds how far the worker
	// can run ahead of a slow consumer.
	RowChannelSize int

	// StatementCacheCapacity bounds the prepared-statement cache used for
	// persistent statements.
	StatementCacheCapacity int

	Log sqlx.LogSettings
}

func DefaultConnectOptions() ConnectOptions {
	return ConnectOptions{
		CreateIfMissing:        true,
		ForeignKeys:            true,
		BusyTimeout:            5 * time.Second,
		RowChannelSize:         50,
		StatementCacheCapacity: 100,
		Log:                    sqlx.DefaultLogSettings(),
	}
}

// ParseURL builds connect options from a connection URL. Accepted forms are
// sqlite://path, sqlite:path, sqlite::memory: and file:path, with sqlite3 as
// an alias, plus query parameters mode (ro, rw, rwc, memory), cache (shared,
// private), foreign_keys, busy_timeout, journal_mode and row_channel_size.
func ParseURL(rawURL string) (ConnectOptions, error) {
	opts := DefaultConnectOptions()

	rest := rawURL
	for _, scheme := range []string{"sqlite3://", "sqlite://", "sqlite3:", "sqlite:", "file://", "file:"} {
		if strings.HasPrefix(strings.ToLower(rest), scheme) {
			rest = rest[len(scheme):]
			break
		}
	}

	path, query, _ := strings.Cut(rest, "?")
	switch path {
	case ":memory:", "":
		opts.InMemory = true
	default:
		opts.Filename = path
	}

	params, err := url.ParseQuery(query)
	if err != nil {
		return ConnectOptions{}, fmt.Errorf("sqlite: malformed connection URL %q: %w", rawURL, err)
	}

	for key, values := range params {
		value := values[len(values)-1]

		switch strings.ToLower(key) {
		case "mode":
			switch value {
			case "ro":
				opts.ReadOnly = true
				opts.CreateIfMissing = false
			case "rw":
				opts.CreateIfMissing = false
			case "rwc":
				opts.CreateIfMissing = true
			case "memory":
				opts.InMemory = true
			default:
				return ConnectOptions{}, fmt.Errorf("sqlite: unknown mode %q", value)
			}
		case "cache":
			switch value {
			case "shared":
				opts.SharedCache = true
			case "private":
				opts.SharedCache = false
			default:
				return ConnectOptions{}, fmt.Errorf("sqlite: unknown cache mode %q", value)
			}
		case "foreign_keys":
			opts.ForeignKeys, err = parseBool(value)
			if err != nil {
				return ConnectOptions{}, fmt.Errorf("sqlite: foreign_keys: %w", err)
			}
		case "busy_timeout":
			opts.BusyTimeout, err = parseTimeout(value)
			if err != nil {
				return ConnectOptions{}, fmt.Errorf("sqlite: busy_timeout: %w", err)
			}
		case "journal_mode":
			opts.JournalMode = value
		case "row_channel_size":
			opts.RowChannelSize, err = strconv.Atoi(value)
			if err != nil {
				return ConnectOptions{}, fmt.Errorf("sqlite: row_channel_size: %w", err)
			}
		default:
			return ConnectOptions{}, fmt.Errorf("sqlite: unknown connection parameter %q", key)
		}
	}

	return opts, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "on", "yes", "1":
		return true, nil
	case "false", "off", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", s)
	}
}

// parseTimeout accepts either a Go duration or a bare millisecond count.
func parseTimeout(s string) (time.Duration, error) {
	if ms, err := strconv.Atoi(s); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(s)
}

// dsn builds the data source name passed to the engine.
func (o ConnectOptions) dsn() string {
	if o.InMemory {
		return ":memory:"
	}

	var params []string
	if o.ReadOnly {
		params = append(params, "mode=ro")
	} else if !o.CreateIfMissing {
		params = append(params, "mode=rw")
	}
	if o.SharedCache {
		params = append(params, "cache=shared")
	}

	dsn := "file:" + o.Filename
	if len(params) > 0 {
		dsn += "?" + strings.Join(params, "&")
	}
	return dsn
}
