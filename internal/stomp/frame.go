package stomp

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Commands.
const (
	CommandConnect     = "CONNECT"
	CommandConnected   = "CONNECTED"
	CommandSubscribe   = "SUBSCRIBE"
	CommandUnsubscribe = "UNSUBSCRIBE"
	CommandMessage     = "MESSAGE"
	CommandSend        = "SEND"
	CommandReceipt     = "RECEIPT"
	CommandError       = "ERROR"
	CommandDisconnect  = "DISCONNECT"
)

// Header keys.
const (
	HeaderAcceptVersion = "accept-version"
	HeaderVersion       = "version"
	HeaderDestination   = "destination"
	HeaderID            = "id"
	HeaderAck           = "ack"
	HeaderSubscription  = "subscription"
	HeaderMessageID     = "message-id"
	HeaderContentType   = "content-type"
	HeaderContentLength = "content-length"
	HeaderMessage       = "message"
)

// Errors
var (
	ErrEmptyFrame           = errors.New("empty frame")
	ErrUnknownCommand       = errors.New("unknown command")
	ErrMalformedHeader      = errors.New("malformed header")
	ErrInvalidContentLength = errors.New("invalid content-length")
	ErrTruncatedBody        = errors.New("body shorter than content-length")
)

var knownCommands = map[string]struct{}{
	CommandConnect:     {},
	CommandConnected:   {},
	CommandSubscribe:   {},
	CommandUnsubscribe: {},
	CommandMessage:     {},
	CommandSend:        {},
	CommandReceipt:     {},
	CommandError:       {},
	CommandDisconnect:  {},
}

// Header is one key:value line of a frame.
type Header struct {
	Key   string
	Value string
}

// Frame is a single protocol frame. Header order is preserved on encode.
type Frame struct {
	Command string
	Headers []Header
	Body    []byte
}

// Get returns the first value for key, or "".
func (f Frame) Get(key string) string {
	v, _ := f.Lookup(key)
	return v
}

// Lookup returns the first value for key and whether it was present.
func (f Frame) Lookup(key string) (string, bool) {
	for _, h := range f.Headers {
		if h.Key == key {
			return h.Value, true
		}
	}
	return "", false
}

// Encode renders the frame as COMMAND, header lines, a blank line, the body
// and a terminating NUL.
func (f Frame) Encode() []byte {
	var buf bytes.Buffer
	buf.WriteString(f.Command)
	buf.WriteByte('\n')
	for _, h := range f.Headers {
		buf.WriteString(h.Key)
		buf.WriteByte(':')
		buf.WriteString(h.Value)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	buf.Write(f.Body)
	buf.WriteByte(0)
	return buf.Bytes()
}

// String is the encoded frame with the NUL dropped, for logs.
func (f Frame) String() string {
	return strings.TrimSuffix(string(f.Encode()), "\x00")
}

// IsHeartbeat reports whether data only carries end-of-line bytes.
func IsHeartbeat(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	for _, b := range data {
		if b != '\n' && b != '\r' {
			return false
		}
	}
	return true
}

// Decode parses one frame.
func Decode(data []byte) (Frame, error) {
	rest := strings.TrimLeft(string(data), "\r\n\x00")
	if rest == "" {
		return Frame{}, ErrEmptyFrame
	}

	var f Frame
	line, rest, _ := cutLine(rest)
	f.Command = strings.TrimRight(line, "\x00 \t")
	if _, ok := knownCommands[f.Command]; !ok {
		return Frame{}, fmt.Errorf("%w: %q", ErrUnknownCommand, f.Command)
	}

	for rest != "" {
		line, rest, _ = cutLine(rest)
		if line == "" {
			break
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok || key == "" {
			return Frame{}, fmt.Errorf("%w: %q", ErrMalformedHeader, line)
		}
		f.Headers = append(f.Headers, Header{Key: normalizeKey(key), Value: value})
	}

	body, err := decodeBody(f, rest)
	if err != nil {
		return Frame{}, err
	}
	f.Body = body

	return f, nil
}

func decodeBody(f Frame, rest string) ([]byte, error) {
	if raw, ok := f.Lookup(HeaderContentLength); ok {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidContentLength, raw)
		}
		if n > len(rest) {
			return nil, fmt.Errorf("%w: want %d bytes, have %d", ErrTruncatedBody, n, len(rest))
		}
		return []byte(rest[:n]), nil
	}

	if i := strings.IndexByte(rest, 0); i >= 0 {
		rest = rest[:i]
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return nil, nil
	}
	return []byte(rest), nil
}

// cutLine splits at the first LF, dropping a trailing CR from the line.
func cutLine(s string) (line, rest string, found bool) {
	line, rest, found = strings.Cut(s, "\n")
	return strings.TrimSuffix(line, "\r"), rest, found
}

func normalizeKey(key string) string {
	return strings.ReplaceAll(strings.TrimSpace(key), "_", "-")
}
