// Package session exchanges an API key for a session cookie.
//
// The exchange marks the session cookie Secure. Login re-stores it without
// that flag so the client keeps sending it over plain http, which is how
// the exchange is usually run on a local network.
package session
