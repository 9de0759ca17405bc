package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/openbroker/exchange-client/internal/connection"
)

// Execer is the subset of *pgxpool.Pool the writer needs.
type Execer interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Config controls batching.
type Config struct {
	BatchSize     int
	FlushInterval time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     100,
		FlushInterval: time.Second,
	}
}

// Metrics counts writer activity.
type Metrics struct {
	Received   int64
	Inserts    int64
	Duplicates int64
	Flushes    int64
	Errors     int64
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS order_updates (
	message_id  TEXT PRIMARY KEY,
	conn_id     TEXT NOT NULL,
	destination TEXT NOT NULL,
	body        TEXT NOT NULL,
	received_at TIMESTAMPTZ NOT NULL
)`

const insertSQL = `
INSERT INTO order_updates (message_id, conn_id, destination, body, received_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (message_id) DO NOTHING`

type updateRow struct {
	MessageID   string
	ConnID      string
	Destination string
	Body        string
	ReceivedAt  time.Time
}

// Writer batches messages into the order_updates table.
type Writer struct {
	cfg    Config
	db     Execer
	logger *slog.Logger

	batch       []updateRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics Metrics
}

// NewWriter creates a Writer.
func NewWriter(cfg Config, db Execer, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = def.FlushInterval
	}
	return &Writer{
		cfg:    cfg,
		db:     db,
		logger: logger,
		batch:  make([]updateRow, 0, cfg.BatchSize),
		ctx:    context.Background(),
	}
}

// EnsureSchema creates the order_updates table if it is missing.
func (w *Writer) EnsureSchema(ctx context.Context) error {
	_, err := w.db.Exec(ctx, schemaSQL)
	return err
}

// Start begins periodic flushing.
func (w *Writer) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("update recorder started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop halts the flush loop and writes what is left using ctx.
func (w *Writer) Stop(ctx context.Context) error {
	w.logger.Info("stopping update recorder")

	if w.cancel != nil {
		w.cancel()
	}
	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("update recorder stop timed out")
	}

	w.flush(ctx)

	w.logger.Info("update recorder stopped")
	return nil
}

// Write queues msg, flushing when the batch is full.
func (w *Writer) Write(msg connection.Message) {
	row := transform(msg)

	w.batchMu.Lock()
	w.batch = append(w.batch, row)
	w.metrics.Received++
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	// Once the parent context is done the batch waits for Stop, which
	// flushes with its own context.
	if shouldFlush && w.ctx.Err() == nil {
		w.flush(w.ctx)
	}
}

// Stats returns current metrics.
func (w *Writer) Stats() Metrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

func (w *Writer) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			if w.ctx.Err() != nil {
				return
			}
			w.flush(w.ctx)
		}
	}
}

// transform converts a Message to a row. Messages without an id get a
// random one so they are never collapsed.
func transform(msg connection.Message) updateRow {
	id := msg.MessageID
	if id == "" {
		id = uuid.NewString()
	}
	receivedAt := msg.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}
	return updateRow{
		MessageID:   id,
		ConnID:      msg.ConnID,
		Destination: msg.Destination,
		Body:        string(msg.Body),
		ReceivedAt:  receivedAt.UTC(),
	}
}

func (w *Writer) flush(ctx context.Context) {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	batch := w.batch
	w.batch = make([]updateRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	duplicates, err := w.batchInsert(ctx, batch)
	if err != nil {
		w.logger.Error("batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return
	}

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(batch) - duplicates)
	w.metrics.Duplicates += int64(duplicates)
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed updates",
		"count", len(batch),
		"duplicates", duplicates,
		"duration", time.Since(start),
	)
}

func (w *Writer) batchInsert(ctx context.Context, rows []updateRow) (duplicates int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(insertSQL, r.MessageID, r.ConnID, r.Destination, r.Body, r.ReceivedAt)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			duplicates++
		}
	}

	return duplicates, nil
}
