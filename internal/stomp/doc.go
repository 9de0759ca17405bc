// Package stomp encodes and decodes the text frames of the exchange's
// push protocol, a small subset of STOMP carried in WebSocket text
// messages.
//
// The decoder accepts the exchange's dialect: header keys written with
// underscores (content_length, message_id), frames without a trailing NUL,
// and bare newlines sent as heart-beats.
package stomp
