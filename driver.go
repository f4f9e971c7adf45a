package sqlx

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Driver opens backend connections for the URL schemes it claims. Backends
// register themselves in an init function, database/sql style, so importing
// a backend package for side effects is enough to make its schemes
// connectable.
type Driver struct {
	// Name is the backend name reported by its connections.
	Name string

	// Schemes lists the URL schemes the driver accepts, lower case.
	Schemes []string

	// Open establishes one concrete connection and wraps it in the erased
	// contract.
	Open func(ctx context.Context, opts ConnectOptions) (ConnectionBackend, error)
}

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Driver)
)

// Register makes a driver available to [Connect] under its schemes. It
// panics if a scheme is already claimed.
func Register(d Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()

	for _, scheme := range d.Schemes {
		scheme = strings.ToLower(scheme)
		if prev, dup := drivers[scheme]; dup {
			panic(fmt.Sprintf("sqlx: scheme %q already registered by driver %q", scheme, prev.Name))
		}
		drivers[scheme] = d
	}
}

// Drivers returns the registered scheme names, sorted.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()

	schemes := make([]string, 0, len(drivers))
	for scheme := range drivers {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)
	return schemes
}

func driverForURL(url string) (Driver, error) {
	// The scheme runs up to the first colon; "sqlite::memory:" style URLs
	// have no "//".
	i := strings.IndexByte(url, ':')
	if i < 1 {
		return Driver{}, fmt.Errorf("sqlx: connection URL %q has no scheme", url)
	}
	scheme := strings.ToLower(url[:i])

	driversMu.RLock()
	d, ok := drivers[scheme]
	driversMu.RUnlock()
	if !ok {
		return Driver{}, fmt.Errorf(
			"sqlx: no driver registered for scheme %q (registered: %s)",
			scheme, strings.Join(Drivers(), ", "),
		)
	}
	return d, nil
}

// Connect opens a connection to the database at url using the driver
// registered for its scheme, with default logging settings.
func Connect(ctx context.Context, url string) (*Connection, error) {
	return ConnectWith(ctx, ConnectOptions{URL: url, Log: DefaultLogSettings()})
}

// ConnectWith is like [Connect] but takes full erased connect options.
func ConnectWith(ctx context.Context, opts ConnectOptions) (*Connection, error) {
	d, err := driverForURL(opts.URL)
	if err != nil {
		return nil, err
	}

	backend, err := d.Open(ctx, opts)
	if err != nil {
		return nil, err
	}

	return NewConnection(backend), nil
}
