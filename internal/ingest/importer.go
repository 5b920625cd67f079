// Package ingest implements the streaming CSV import pipeline: chunked
// reading, line reassembly across chunk boundaries, header-driven record
// building, progress reporting, and the atomic persist-and-publish hand-off
// to the store.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"bankledger/internal/datasource"
	"bankledger/internal/ledger"
	"bankledger/internal/metrics"
	csvparser "bankledger/internal/parser/csv"
	"bankledger/internal/store"
	"bankledger/internal/store/blob"
)

// DefaultChunkSize is the per-chunk read size when none is configured.
const DefaultChunkSize = 2 << 20 // 2 MiB

// rejectSampleLimit caps how many rejection reasons are kept for diagnostics.
const rejectSampleLimit = 3

// Options tunes an Importer.
type Options struct {
	// ChunkSize is the fixed byte length of each read. It does not adapt to
	// observed throughput.
	ChunkSize int

	// FlushTrailing emits a final unterminated line instead of discarding it.
	// Off by default: a trailing partial line without a newline is dropped.
	FlushTrailing bool

	// Job labels metrics emitted by this importer.
	Job string
}

// Importer drives imports against a single store. Exactly one import runs at
// a time per Importer; a successful import fully replaces the store, so two
// concurrent imports against the same store would race with last-writer-wins.
type Importer struct {
	store *store.Store
	opts  Options
}

// New returns an Importer writing into st.
func New(st *store.Store, opts Options) *Importer {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Job == "" {
		opts.Job = "import"
	}
	return &Importer{store: st, opts: opts}
}

// Run starts an import and returns its event stream: progress-only events in
// strictly non-decreasing order, then exactly one terminal event, then the
// channel closes.
//
// ctx is checked between chunks, the only safe preemption boundary (mid-chunk
// the reassembler's leftover would be left inconsistent). On cancellation the
// store is untouched and the terminal event carries the context error.
func (imp *Importer) Run(ctx context.Context, src datasource.Source) <-chan Event {
	out := make(chan Event, 1)
	go func() {
		defer close(out)
		imp.run(ctx, src, out)
	}()
	return out
}

func (imp *Importer) run(ctx context.Context, src datasource.Source, out chan<- Event) {
	start := time.Now()
	var runErr error
	defer func() {
		metrics.RecordStep(imp.opts.Job, "import", runErr, time.Since(start))
		if err := metrics.Flush(); err != nil {
			log.Debug().Err(err).Msg("metrics flush")
		}
	}()

	send := func(e Event) {
		select {
		case out <- e:
		case <-ctx.Done():
		}
	}
	fail := func(err error) {
		runErr = err
		send(Event{Progress: 100, Err: err})
	}

	total, err := src.Size(ctx)
	if err != nil {
		fail(fmt.Errorf("%w: %v", ErrRead, err))
		return
	}

	rc, err := src.Open(ctx)
	if err != nil {
		fail(fmt.Errorf("%w: %v", ErrRead, err))
		return
	}
	defer rc.Close()

	run := &runState{
		scanner: csvparser.NewLineScanner(),
		rejects: newRejectLog(rejectSampleLimit),
		txs:     []ledger.Transaction{},
	}

	buf := make([]byte, imp.opts.ChunkSize)
	var offset int64

	for offset < total {
		// Cooperative suspension point: between chunks only.
		select {
		case <-ctx.Done():
			fail(ctx.Err())
			return
		default:
		}

		n, rerr := io.ReadFull(rc, buf)
		if n > 0 {
			if perr := run.processChunk(string(buf[:n])); perr != nil {
				fail(perr)
				return
			}
		}

		offset += int64(imp.opts.ChunkSize)
		progress := int(math.Round(float64(offset) / float64(total) * 100))
		if progress > 99 {
			progress = 99
		}
		send(Event{Progress: progress})

		if rerr == io.EOF || rerr == io.ErrUnexpectedEOF {
			break
		}
		if rerr != nil {
			fail(fmt.Errorf("%w: %v", ErrRead, rerr))
			return
		}
	}

	if imp.opts.FlushTrailing {
		if perr := run.finish(); perr != nil {
			fail(perr)
			return
		}
	}

	if err := imp.store.ReplaceAll(ctx, run.txs); err != nil {
		if errors.Is(err, blob.ErrQuotaExceeded) {
			fail(fmt.Errorf("%w", blob.ErrQuotaExceeded))
		} else {
			fail(err)
		}
		return
	}

	metrics.RecordRows(imp.opts.Job, "parsed", int64(len(run.txs)))
	metrics.RecordRows(imp.opts.Job, "rejected", int64(run.rejects.count))
	log.Info().
		Int("parsed", len(run.txs)).
		Int("rejected", run.rejects.count).
		Dur("elapsed", time.Since(start)).
		Msg("import complete")

	send(Event{
		Progress:      100,
		Transactions:  run.txs,
		Rejected:      run.rejects.count,
		RejectSamples: run.rejects.first,
	})
}

// runState is one import's parsing state: the line carry, the resolved
// header, the accumulated records, and the reject log.
type runState struct {
	scanner    *csvparser.LineScanner
	header     csvparser.Header
	haveHeader bool
	txs        []ledger.Transaction
	rejects    *rejectLog
	line       int
}

// processChunk feeds one chunk through reassembly, tokenizing, and record
// building. A panic anywhere in the parse chain is converted into a terminal
// parse error.
func (r *runState) processChunk(chunk string) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrParse, p)
		}
	}()
	for _, line := range r.scanner.Split(chunk) {
		r.processLine(line)
	}
	return nil
}

// finish flushes the residual unterminated line, when one exists.
func (r *runState) finish() (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrParse, p)
		}
	}()
	if line, ok := r.scanner.Finish(); ok {
		r.processLine(line)
	}
	return nil
}

func (r *runState) processLine(line string) {
	r.line++
	if !r.haveHeader {
		r.header = csvparser.ResolveHeader(line)
		r.haveHeader = true
		return
	}

	tx, reason := buildRecord(csvparser.Tokenize(line), r.header)
	if reason != "" {
		r.rejects.add(fmt.Sprintf("line %d: %s", r.line, reason))
		return
	}
	r.txs = append(r.txs, tx)
}

// rejectLog counts rejections and keeps the first few messages, enough to
// tell a user what kind of rows were dropped without retaining every one.
type rejectLog struct {
	mu    sync.Mutex
	limit int
	count int
	first []string
}

func newRejectLog(limit int) *rejectLog {
	return &rejectLog{limit: limit}
}

func (l *rejectLog) add(msg string) {
	l.mu.Lock()
	if len(l.first) < l.limit {
		l.first = append(l.first, msg)
	}
	l.count++
	l.mu.Unlock()
}
