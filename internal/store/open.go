package store

import (
	"context"
	"fmt"
)

// Drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Options selects and configures a backend.
type Options struct {
	Driver   string
	URL      string
	Database string // mongo only
}

// Open returns the Store for opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverPostgres:
		s, err := OpenPostgres(ctx, opts.URL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverMongo:
		s, err := OpenMongo(ctx, opts.URL, opts.Database)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
