// Package db opens pgx connection pools for the databases that cache loaders
// query on a miss.
//
//	pool, err := db.Connect(ctx, db.Config{
//	    ConnectionString: os.Getenv("DATABASE_CONN_URL"),
//	})
//
// [Healthcheck] returns a probe for readiness endpoints and [Shutdown] a
// closure for shutdown-hook registries.
package db
