// Package model defines the JSON bodies exchanged with the exchange:
// order, exchange and offer requests sent by the client, and the order
// state and account updates it receives.
package model
