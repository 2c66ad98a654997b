package donation

import "context"

type DBPool = dbPool
type SQLDB = sqlDB
type ObjectStore = objectStore

// WithNewPool overrides the PostgreSQL pool constructor.
func WithNewPool(newPool func(ctx context.Context, dsn string) (DBPool, error)) Options {
	return func(o *options) {
		o.newPool = newPool
	}
}

// WithNewSQLDB overrides the MySQL database constructor.
func WithNewSQLDB(newSQLDB func(dsn string) (SQLDB, error)) Options {
	return func(o *options) {
		o.newSQLDB = newSQLDB
	}
}

// WithNewStore overrides the object store constructor.
func WithNewStore(newStore func(cfg S3Config) (ObjectStore, error)) Options {
	return func(o *options) {
		o.newStore = newStore
	}
}
