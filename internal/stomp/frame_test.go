package stomp

import (
	"errors"
	"testing"
)

func TestConnectEncode(t *testing.T) {
	got := string(Connect("").Encode())
	want := "CONNECT\naccept-version:1.0,1.1,2.0\n\n\x00"
	if got != want {
		t.Errorf("Connect().Encode() = %q, want %q", got, want)
	}
}

func TestSubscribeEncode(t *testing.T) {
	got := string(Subscribe("/accounts/ACC1/order_updates", "1", "auto").Encode())
	want := "SUBSCRIBE\nid:1\ndestination:/accounts/ACC1/order_updates\nack:auto\n\n\x00"
	if got != want {
		t.Errorf("Subscribe().Encode() = %q, want %q", got, want)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	in := Subscribe("/accounts/ACC1/updates", "1", "auto")

	out, err := Decode(in.Encode())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if out.Command != CommandSubscribe {
		t.Errorf("Command = %q, want %q", out.Command, CommandSubscribe)
	}
	for _, key := range []string{HeaderID, HeaderDestination, HeaderAck} {
		if out.Get(key) != in.Get(key) {
			t.Errorf("header %s = %q, want %q", key, out.Get(key), in.Get(key))
		}
	}
	if len(out.Body) != 0 {
		t.Errorf("Body = %q, want empty", out.Body)
	}
}

func TestDecodeServerMessage(t *testing.T) {
	// Shape produced by the exchange: underscore header keys, body followed
	// by blank lines before the NUL.
	body := `{"status":"FILLED"}`
	raw := "MESSAGE\n" +
		"destination:/accounts/ACC1/order_updates\n" +
		"content_type:application/json\n" +
		"subscription:1\n" +
		"message_id:6f1c\n" +
		"content_length:19\n\n" +
		body + "\n\n\x00"

	f, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if f.Command != CommandMessage {
		t.Errorf("Command = %q, want %q", f.Command, CommandMessage)
	}
	if string(f.Body) != body {
		t.Errorf("Body = %q, want %q", f.Body, body)
	}
	if f.Get(HeaderMessageID) != "6f1c" {
		t.Errorf("message-id = %q, want %q", f.Get(HeaderMessageID), "6f1c")
	}
	if f.Get(HeaderContentType) != "application/json" {
		t.Errorf("content-type = %q, want %q", f.Get(HeaderContentType), "application/json")
	}
	if f.Get(HeaderSubscription) != "1" {
		t.Errorf("subscription = %q, want %q", f.Get(HeaderSubscription), "1")
	}
}

func TestDecodeVariants(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		command string
		body    string
		headerK string
		headerV string
	}{
		{
			name:    "no content length, body to NUL",
			raw:     "MESSAGE\ndestination:/d\n\n{\"a\":1}\n\x00",
			command: CommandMessage,
			body:    `{"a":1}`,
			headerK: HeaderDestination,
			headerV: "/d",
		},
		{
			name:    "no trailing NUL",
			raw:     "CONNECT\naccept-version:1.0,1.1,2.0\n\n\n",
			command: CommandConnect,
			headerK: HeaderAcceptVersion,
			headerV: "1.0,1.1,2.0",
		},
		{
			name:    "CRLF line endings",
			raw:     "CONNECTED\r\nversion:1.2\r\n\r\n\x00",
			command: CommandConnected,
			headerK: HeaderVersion,
			headerV: "1.2",
		},
		{
			name:    "leading heart-beats",
			raw:     "\n\nRECEIPT\nreceipt-id:7\n\n\x00",
			command: CommandReceipt,
			headerK: "receipt-id",
			headerV: "7",
		},
		{
			name:    "value containing colon",
			raw:     "ERROR\nmessage:bad: frame\n\noops\x00",
			command: CommandError,
			body:    "oops",
			headerK: HeaderMessage,
			headerV: "bad: frame",
		},
		{
			name:    "first repeated header wins",
			raw:     "MESSAGE\ndestination:/first\ndestination:/second\n\n\x00",
			command: CommandMessage,
			headerK: HeaderDestination,
			headerV: "/first",
		},
		{
			name:    "dashed content-length",
			raw:     "MESSAGE\ncontent-length:3\n\nabcdef\x00",
			command: CommandMessage,
			body:    "abc",
			headerK: HeaderContentLength,
			headerV: "3",
		},
		{
			name:    "headers without blank line",
			raw:     "CONNECTED\nversion:1.2",
			command: CommandConnected,
			headerK: HeaderVersion,
			headerV: "1.2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Decode([]byte(tt.raw))
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if f.Command != tt.command {
				t.Errorf("Command = %q, want %q", f.Command, tt.command)
			}
			if string(f.Body) != tt.body {
				t.Errorf("Body = %q, want %q", f.Body, tt.body)
			}
			if got := f.Get(tt.headerK); got != tt.headerV {
				t.Errorf("header %s = %q, want %q", tt.headerK, got, tt.headerV)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "", ErrEmptyFrame},
		{"only newlines", "\n\n", ErrEmptyFrame},
		{"only NUL", "\x00", ErrEmptyFrame},
		{"unknown command", "HELLO\n\n\x00", ErrUnknownCommand},
		{"lowercase command", "message\n\n\x00", ErrUnknownCommand},
		{"header without colon", "MESSAGE\ndestination\n\n\x00", ErrMalformedHeader},
		{"empty header key", "MESSAGE\n:value\n\n\x00", ErrMalformedHeader},
		{"non-numeric content length", "MESSAGE\ncontent_length:abc\n\nbody\x00", ErrInvalidContentLength},
		{"negative content length", "MESSAGE\ncontent-length:-1\n\nbody\x00", ErrInvalidContentLength},
		{"truncated body", "MESSAGE\ncontent-length:20\n\nshort\x00", ErrTruncatedBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestIsHeartbeat(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"\n", true},
		{"\r\n", true},
		{"\n\n\n", true},
		{"", false},
		{"MESSAGE\n", false},
	}

	for _, tt := range tests {
		if got := IsHeartbeat([]byte(tt.raw)); got != tt.want {
			t.Errorf("IsHeartbeat(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestFrameString(t *testing.T) {
	got := Disconnect().String()
	if got != "DISCONNECT\n\n" {
		t.Errorf("String() = %q, want %q", got, "DISCONNECT\n\n")
	}
}
