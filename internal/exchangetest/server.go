// Package exchangetest runs an in-process fake of the exchange for tests:
// API-key login, the account and admin REST routes, and the /ws push
// endpoint speaking the exchange's frame dialect.
package exchangetest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Request is a REST call received by the fake.
type Request struct {
	Method  string
	Path    string
	Body    []byte
	Cookies map[string]string
}

// Response is a canned reply.
type Response struct {
	Status int
	Body   string
}

// Server is a fake exchange.
type Server struct {
	*httptest.Server

	// RequireSession rejects REST calls without a valid credential cookie.
	RequireSession bool

	mu        sync.Mutex
	apiKeys   map[string]string // api key → session id
	sessions  map[string]bool
	responses map[string]Response
	requests  []Request
	pushes    map[string][]string // destination → bodies
	frames    [][]string          // per ws connection, raw frames received
	wsCookies []string
}

// NewServer starts a fake exchange that accepts the given API keys.
// Each key logs in to session "S-<key>".
func NewServer(t testing.TB, apiKeys ...string) *Server {
	t.Helper()

	s := &Server{
		apiKeys:   make(map[string]string),
		sessions:  make(map[string]bool),
		responses: make(map[string]Response),
		pushes:    make(map[string][]string),
	}
	for _, key := range apiKeys {
		s.apiKeys[key] = "S-" + key
	}

	r := chi.NewRouter()
	r.Post("/loginapi", s.login)
	r.Route("/accounts/{account}", func(r chi.Router) {
		r.Get("/orders", s.record)
		r.Post("/orders", s.record)
		r.Get("/orders/{clientOrderId}", s.record)
		r.Delete("/orders/{clientOrderId}", s.record)
		r.Post("/previewOrder", s.record)
		r.Get("/positions", s.record)
		r.Get("/balances", s.record)
	})
	r.Post("/admin/exchange", s.record)
	r.Put("/admin/exchange/{code}", s.record)
	r.Post("/admin/offer", s.record)
	r.Get("/ws", s.serveWS)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Addr returns host:port.
func (s *Server) Addr() string {
	return strings.TrimPrefix(s.URL, "http://")
}

// Respond sets the reply for method and path.
func (s *Server) Respond(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[method+" "+path] = Response{Status: status, Body: body}
}

// Push queues a message body delivered to every subscriber of destination.
func (s *Server) Push(destination, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushes[destination] = append(s.pushes[destination], body)
}

// Requests returns the REST calls received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// LastRequest returns the most recent REST call.
func (s *Server) LastRequest() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}, false
	}
	return s.requests[len(s.requests)-1], true
}

// Frames returns the raw frames received, one slice per ws connection.
func (s *Server) Frames() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.frames))
	for i, f := range s.frames {
		out[i] = append([]string(nil), f...)
	}
	return out
}

// WebSocketCookies returns the Cookie header of each ws upgrade.
func (s *Server) WebSocketCookies() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.wsCookies...)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	id, ok := s.apiKeys[body.APIKey]
	if ok {
		s.sessions[id] = true
	}
	s.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	w.Header().Add("Set-Cookie", "id="+id+"; Path=/; Secure; HttpOnly")
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, `"{}"`)
}

func (s *Server) authorized(r *http.Request) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, err := r.Cookie("id"); err == nil && s.sessions[c.Value] {
		return true
	}
	for _, name := range []string{"api_key", "customer_key"} {
		if c, err := r.Cookie(name); err == nil {
			if _, ok := s.apiKeys[c.Value]; ok {
				return true
			}
		}
	}
	return false
}

func (s *Server) record(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	cookies := make(map[string]string)
	for _, c := range r.Cookies() {
		cookies[c.Name] = c.Value
	}

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method:  r.Method,
		Path:    r.URL.EscapedPath(),
		Body:    body,
		Cookies: cookies,
	})
	resp, ok := s.responses[r.Method+" "+r.URL.EscapedPath()]
	s.mu.Unlock()

	if s.RequireSession && !s.authorized(r) {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	if !ok {
		resp = Response{Status: http.StatusOK, Body: "{}"}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	io.WriteString(w, resp.Body)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.mu.Lock()
	s.wsCookies = append(s.wsCookies, r.Header.Get("Cookie"))
	s.frames = append(s.frames, nil)
	idx := len(s.frames) - 1
	s.mu.Unlock()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		s.mu.Lock()
		s.frames[idx] = append(s.frames[idx], string(data))
		s.mu.Unlock()

		command, headers := parseClientFrame(string(data))
		switch command {
		case "CONNECT":
			conn.WriteMessage(websocket.TextMessage, []byte("CONNECTED\nversion:1.2\n\n\x00"))
		case "SUBSCRIBE":
			dest := headers["destination"]
			s.mu.Lock()
			bodies := append([]string(nil), s.pushes[dest]...)
			s.mu.Unlock()
			for _, body := range bodies {
				if err := conn.WriteMessage(websocket.TextMessage, []byte(MessageFrame(dest, headers["id"], body))); err != nil {
					return
				}
			}
		case "DISCONNECT":
			return
		}
	}
}

// MessageFrame renders a MESSAGE frame the way the exchange does.
func MessageFrame(destination, subscription, body string) string {
	return fmt.Sprintf("MESSAGE\n"+
		"destination:%s\n"+
		"content_type:application/json\n"+
		"subscription:%s\n"+
		"message_id:%s\n"+
		"content_length:%d\n\n"+
		"%s\n\n\x00",
		destination, subscription, uuid.NewString(), len(body), body)
}

func parseClientFrame(raw string) (string, map[string]string) {
	headers := make(map[string]string)
	lines := strings.Split(strings.TrimLeft(raw, "\n"), "\n")
	if len(lines) == 0 {
		return "", headers
	}
	for _, line := range lines[1:] {
		if line == "" {
			break
		}
		if k, v, ok := strings.Cut(line, ":"); ok {
			headers[k] = v
		}
	}
	return lines[0], headers
}
