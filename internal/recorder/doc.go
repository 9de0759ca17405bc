// Package recorder persists received account updates to PostgreSQL.
//
// Updates are batched and inserted append-only into order_updates, keyed by
// message id so a redelivered message is stored once.
package recorder
