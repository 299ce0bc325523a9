package dbconnect

import "context"

// Database is the process-wide storage handle: opened once at startup,
// borrowed by requests, closed at shutdown.
type Database interface {
	DbConnector
	Ping(ctx context.Context) error
	Close() error
}
