// Package analytics is the logging collaborator: it receives complete
// search-flow records and persists them for later analysis. Recording is
// strictly fire-and-forget; a slow or dead sink must never add latency or
// failure to a response that has already been computed.
package analytics

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/opentoolhub/search-agent/internal/models"
)

const (
	defaultBufferSize = 256
	saveTimeout       = 10 * time.Second
)

// Recorder decouples callers from the repository with a bounded channel and
// a single worker goroutine. When the buffer is full the record is dropped.
type Recorder struct {
	repo   Repository
	ch     chan models.FlowRecord
	logger *zerolog.Logger

	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func NewRecorder(repo Repository, logger *zerolog.Logger) *Recorder {
	r := &Recorder{
		repo:   repo,
		ch:     make(chan models.FlowRecord, defaultBufferSize),
		logger: logger,
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	go r.run()

	return r
}

// Record enqueues one flow record. It never blocks and never fails the
// caller.
func (r *Recorder) Record(rec models.FlowRecord) {
	select {
	case <-r.quit:
		return
	default:
	}

	select {
	case r.ch <- rec:
	default:
		r.logger.Warn().Str("query", rec.OriginalQuery).Msg("analytics buffer full, dropping flow record")
	}
}

// Close stops accepting records, drains what is already buffered, and waits
// for the worker to finish.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		close(r.quit)
	})
	<-r.done
}

func (r *Recorder) run() {
	defer close(r.done)

	for {
		select {
		case rec := <-r.ch:
			r.save(rec)
		case <-r.quit:
			for {
				select {
				case rec := <-r.ch:
					r.save(rec)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) save(rec models.FlowRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	fingerprint := Fingerprint(rec.ClientIP, rec.UserAgent)

	if err := r.repo.SaveFlow(ctx, fingerprint, rec); err != nil {
		r.logger.Warn().Err(err).Str("query", rec.OriginalQuery).Msg("failed to persist flow record")
		return
	}

	r.logger.Debug().Str("query", rec.OriginalQuery).Bool("from_cache", rec.FromCache).Msg("flow record persisted")
}

// Fingerprint derives a stable, anonymized identity from client IP and
// user agent. Good enough to group a session; not an authentication token.
func Fingerprint(clientIP string, userAgent string) string {
	if len(userAgent) > 50 {
		userAgent = userAgent[:50]
	}

	h := fnv.New64a()
	h.Write([]byte(clientIP))
	h.Write([]byte("-"))
	h.Write([]byte(userAgent))

	return strconv.FormatUint(h.Sum64(), 36)
}
