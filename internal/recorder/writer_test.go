package recorder

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/openbroker/exchange-client/internal/connection"
)

// fakeDB records queued inserts and treats a repeated message id as a conflict.
type fakeDB struct {
	mu      sync.Mutex
	seen    map[string]bool
	batches int
	execs   []string
	err     error
}

func newFakeDB() *fakeDB {
	return &fakeDB{seen: make(map[string]bool)}
}

func (db *fakeDB) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.batches++

	res := &fakeResults{err: db.err}
	if err := ctx.Err(); err != nil {
		res.err = err
		return res
	}
	for _, q := range b.QueuedQueries {
		id := q.Arguments[0].(string)
		if db.seen[id] {
			res.tags = append(res.tags, pgconn.NewCommandTag("INSERT 0 0"))
			continue
		}
		if db.err == nil {
			db.seen[id] = true
		}
		res.tags = append(res.tags, pgconn.NewCommandTag("INSERT 0 1"))
	}
	return res
}

func (db *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.execs = append(db.execs, sql)
	return pgconn.NewCommandTag("CREATE TABLE"), db.err
}

func (db *fakeDB) stored() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.seen)
}

type fakeResults struct {
	tags []pgconn.CommandTag
	err  error
	next int
}

func (r *fakeResults) Exec() (pgconn.CommandTag, error) {
	if r.err != nil {
		return pgconn.CommandTag{}, r.err
	}
	tag := r.tags[r.next]
	r.next++
	return tag, nil
}

func (r *fakeResults) Query() (pgx.Rows, error) { return nil, errors.New("not supported") }
func (r *fakeResults) QueryRow() pgx.Row        { return nil }
func (r *fakeResults) Close() error             { return nil }

func message(id string) connection.Message {
	return connection.Message{
		ConnID:      "conn-1",
		Destination: "/accounts/ACC1/order_updates",
		MessageID:   id,
		Body:        []byte(`{"status":"FILLED"}`),
		ReceivedAt:  time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestTransform(t *testing.T) {
	row := transform(message("m-1"))

	if row.MessageID != "m-1" {
		t.Errorf("MessageID = %s, want m-1", row.MessageID)
	}
	if row.ConnID != "conn-1" {
		t.Errorf("ConnID = %s, want conn-1", row.ConnID)
	}
	if row.Destination != "/accounts/ACC1/order_updates" {
		t.Errorf("Destination = %s", row.Destination)
	}
	if row.Body != `{"status":"FILLED"}` {
		t.Errorf("Body = %s", row.Body)
	}
	if !row.ReceivedAt.Equal(time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("ReceivedAt = %v", row.ReceivedAt)
	}
}

func TestTransform_MissingMessageID(t *testing.T) {
	a := transform(message(""))
	b := transform(message(""))

	if a.MessageID == "" || a.MessageID == b.MessageID {
		t.Errorf("generated ids = %q, %q; want distinct non-empty", a.MessageID, b.MessageID)
	}
}

func TestWriter_FlushesFullBatch(t *testing.T) {
	db := newFakeDB()
	w := NewWriter(Config{BatchSize: 2, FlushInterval: time.Hour}, db, nil)

	w.Write(message("m-1"))
	if db.stored() != 0 {
		t.Fatalf("stored = %d before batch filled, want 0", db.stored())
	}
	w.Write(message("m-2"))

	if db.stored() != 2 {
		t.Errorf("stored = %d, want 2", db.stored())
	}
	stats := w.Stats()
	if stats.Received != 2 || stats.Inserts != 2 || stats.Flushes != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestWriter_CountsDuplicates(t *testing.T) {
	db := newFakeDB()
	w := NewWriter(Config{BatchSize: 1, FlushInterval: time.Hour}, db, nil)

	w.Write(message("m-1"))
	w.Write(message("m-1"))

	stats := w.Stats()
	if stats.Inserts != 1 {
		t.Errorf("Inserts = %d, want 1", stats.Inserts)
	}
	if stats.Duplicates != 1 {
		t.Errorf("Duplicates = %d, want 1", stats.Duplicates)
	}
}

func TestWriter_FlushErrorIsCounted(t *testing.T) {
	db := newFakeDB()
	db.err = errors.New("connection refused")
	w := NewWriter(Config{BatchSize: 1, FlushInterval: time.Hour}, db, nil)

	w.Write(message("m-1"))

	stats := w.Stats()
	if stats.Errors != 1 {
		t.Errorf("Errors = %d, want 1", stats.Errors)
	}
	if stats.Inserts != 0 {
		t.Errorf("Inserts = %d, want 0", stats.Inserts)
	}
}

func TestWriter_PeriodicFlush(t *testing.T) {
	db := newFakeDB()
	w := NewWriter(Config{BatchSize: 100, FlushInterval: 10 * time.Millisecond}, db, nil)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop(context.Background())

	w.Write(message("m-1"))

	deadline := time.Now().Add(time.Second)
	for db.stored() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("batch was not flushed by the ticker")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWriter_StopFlushesRemainder(t *testing.T) {
	db := newFakeDB()
	w := NewWriter(Config{BatchSize: 100, FlushInterval: time.Hour}, db, nil)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	w.Write(message("m-1"))
	w.Write(message("m-2"))

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := w.Stop(stopCtx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if db.stored() != 2 {
		t.Errorf("stored = %d, want 2", db.stored())
	}
}

func TestWriter_FullBatchAfterCancelWaitsForStop(t *testing.T) {
	db := newFakeDB()
	w := NewWriter(Config{BatchSize: 2, FlushInterval: time.Hour}, db, nil)

	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	cancel()

	w.Write(message("m-1"))
	w.Write(message("m-2"))

	if stats := w.Stats(); stats.Errors != 0 || stats.Flushes != 0 {
		t.Fatalf("stats = %+v after cancel, want no flush attempt", stats)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := w.Stop(stopCtx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}

	if db.stored() != 2 {
		t.Errorf("stored = %d, want 2", db.stored())
	}
	if stats := w.Stats(); stats.Errors != 0 || stats.Inserts != 2 {
		t.Errorf("stats = %+v, want 2 inserts and no errors", stats)
	}
}

func TestWriter_EnsureSchema(t *testing.T) {
	db := newFakeDB()
	w := NewWriter(DefaultConfig(), db, nil)

	if err := w.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if len(db.execs) != 1 || !strings.Contains(db.execs[0], "CREATE TABLE IF NOT EXISTS order_updates") {
		t.Errorf("execs = %q", db.execs)
	}
}

func TestNewWriter_Defaults(t *testing.T) {
	w := NewWriter(Config{}, newFakeDB(), nil)

	if w.cfg.BatchSize != 100 {
		t.Errorf("BatchSize = %d, want 100", w.cfg.BatchSize)
	}
	if w.cfg.FlushInterval != time.Second {
		t.Errorf("FlushInterval = %v, want 1s", w.cfg.FlushInterval)
	}
}
