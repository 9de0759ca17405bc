package main

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/openbroker/exchange-client/internal/exchangetest"
)

// syncBuffer is a bytes.Buffer safe for a concurrent reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut syncBuffer
	code = run(context.Background(), append([]string{"exchangectl"}, args...), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestSubmitOrder(t *testing.T) {
	server := exchangetest.NewServer(t, "K1")
	server.RequireSession = true
	server.Respond(http.MethodPost, "/accounts/ACC1/orders", http.StatusOK, `{"order_status":"Pending"}`)

	code, stdout, stderr := runCLI(t,
		"--addr", server.Addr(), "--apiKey", "K1",
		"orders", "submit",
		"--accountKey", "ACC1", "--price", "10.5", "--quantity", "3", "--instrumentId", "42",
	)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr)
	}

	req, _ := server.LastRequest()
	if req.Path != "/accounts/ACC1/orders" {
		t.Errorf("path = %s", req.Path)
	}
	want := `{"price":10.5,"quantity":3,"legs":[{"ratio":1,"instrument_id":42}]}`
	if string(req.Body) != want {
		t.Errorf("body = %s, want %s", req.Body, want)
	}
	if req.Cookies["id"] != "S-K1" {
		t.Errorf("id cookie = %q, want S-K1", req.Cookies["id"])
	}

	if !strings.Contains(stdout, "Requesting at path "+server.URL+"/accounts/ACC1/orders") {
		t.Errorf("stdout missing request line:\n%s", stdout)
	}
	if !strings.Contains(stdout, "req "+want) {
		t.Errorf("stdout missing request body:\n%s", stdout)
	}
	if !strings.Contains(stdout, `"order_status": "Pending"`) {
		t.Errorf("stdout missing indented response:\n%s", stdout)
	}
}

func TestCredentialCookieSkipsLogin(t *testing.T) {
	server := exchangetest.NewServer(t, "K1")
	server.RequireSession = true

	code, _, stderr := runCLI(t,
		"--addr", server.Addr(), "--apiKey", "K1", "--credentialCookie", "customer_key",
		"orders", "list", "--accountKey", "ACC1",
	)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr)
	}

	req, _ := server.LastRequest()
	if req.Cookies["customer_key"] != "K1" {
		t.Errorf("customer_key cookie = %q", req.Cookies["customer_key"])
	}
	if _, ok := req.Cookies["id"]; ok {
		t.Error("no session cookie expected")
	}
}

func TestLogin(t *testing.T) {
	server := exchangetest.NewServer(t, "K1")

	code, stdout, stderr := runCLI(t, "--addr", server.Addr(), "--apiKey", "K1", "login")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr)
	}
	if !strings.Contains(stdout, "Session cookie: id=S-K1\n") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestLoginRejected(t *testing.T) {
	server := exchangetest.NewServer(t, "K1")

	code, _, _ := runCLI(t, "--addr", server.Addr(), "--apiKey", "WRONG", "login")
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestInvalidArguments(t *testing.T) {
	server := exchangetest.NewServer(t, "K1")

	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"orders", "list", "--bogus", "x"}},
		{"missing account", []string{"orders", "list"}},
		{"bad price", []string{"orders", "submit", "--accountKey", "A", "--price", "abc", "--quantity", "1", "--instrumentId", "1"}},
		{"bad quantity", []string{"orders", "submit", "--accountKey", "A", "--price", "1", "--quantity", "1.5", "--instrumentId", "1"}},
		{"missing quantity", []string{"orders", "submit", "--accountKey", "A", "--price", "1", "--instrumentId", "1"}},
		{"bad instrument id", []string{"orders", "submit", "--accountKey", "A", "--price", "1", "--quantity", "1", "--instrumentId", "x1"}},
		{"bad ratio", []string{"orders", "submit", "--accountKey", "A", "--price", "1", "--quantity", "1", "--instrumentId", "1", "--ratio", "half"}},
		{"no instrument", []string{"orders", "preview", "--accountKey", "A", "--price", "1", "--quantity", "1"}},
		{"bad expiration", []string{"admin", "create-offer", "--code", "C", "--expiration_days", "soon"}},
		{"bad topic", []string{"updates", "--accountKey", "A", "--topic", "trades"}},
		{"bad scheme", []string{"--scheme", "ftp", "orders", "list", "--accountKey", "A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--addr", server.Addr(), "--apiKey", "K1"}, tt.args...)
			code, _, stderr := runCLI(t, args...)
			if code != 2 {
				t.Errorf("exit code = %d, want 2 (stderr %q)", code, stderr)
			}
			if !strings.Contains(stderr, "invalid arguments") {
				t.Errorf("stderr = %q, want invalid arguments", stderr)
			}
		})
	}
}

func TestMissingAPIKey(t *testing.T) {
	t.Setenv("EXCHANGE_API_KEY", "")
	server := exchangetest.NewServer(t)

	code, _, stderr := runCLI(t, "--addr", server.Addr(), "login")
	if code != 2 || !strings.Contains(stderr, "--apiKey is required") {
		t.Errorf("code = %d, stderr = %q", code, stderr)
	}
}

func TestAdminLoadInstruments(t *testing.T) {
	server := exchangetest.NewServer(t, "ADMIN")
	server.RequireSession = true

	code, _, stderr := runCLI(t, "--addr", server.Addr(), "--apiKey", "ADMIN", "admin", "load-instruments", "--code", "KRK")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr)
	}
	req, _ := server.LastRequest()
	if req.Method != http.MethodPut || req.Path != "/admin/exchange/KRK" {
		t.Errorf("request = %s %s", req.Method, req.Path)
	}
}

func TestUpdatesPrintsEachMessageOnce(t *testing.T) {
	server := exchangetest.NewServer(t, "K1")
	server.Push("/accounts/ACC1/order_updates", `{"status":"FILLED"}`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stdout, stderr syncBuffer
	done := make(chan int, 1)
	go func() {
		done <- run(ctx, []string{"exchangectl", "--addr", server.Addr(), "--apiKey", "K1", "updates", "--accountKey", "ACC1"}, &stdout, &stderr)
	}()

	const line = `Received the application message: {"status":"FILLED"}`
	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(stdout.String(), line) {
		if time.Now().After(deadline) {
			t.Fatalf("message not printed; stdout %q stderr %q", stdout.String(), stderr.String())
		}
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case code := <-done:
		if code != 0 {
			t.Errorf("exit code = %d, stderr = %s", code, stderr.String())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("updates did not stop after cancel")
	}

	if n := strings.Count(stdout.String(), line); n != 1 {
		t.Errorf("printed %d times, want 1", n)
	}
	if cookies := server.WebSocketCookies(); len(cookies) != 1 || cookies[0] != "id=S-K1" {
		t.Errorf("websocket cookies = %q", cookies)
	}
}
