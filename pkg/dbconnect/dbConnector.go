package dbconnect

import (
	"context"
	"database/sql"
)

type DbConnector interface {
	Connect(ctx context.Context) (*sql.DB, error)
}
