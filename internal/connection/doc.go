// Package connection implements the Push Subscriber.
//
// A Subscriber keeps one logical subscription to an account's update topic:
//   - Dials the exchange's /ws endpoint with a credential cookie
//   - Sends CONNECT then SUBSCRIBE on every (re)connection
//   - Publishes MESSAGE bodies on a channel
//   - Reconnects with exponential backoff until its context ends
package connection
