// Package database opens the PostgreSQL pool used by the update recorder.
package database
