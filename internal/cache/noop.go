package cache

import (
	"context"
	"time"

	"github.com/opentoolhub/search-agent/internal/models"
)

// Noop returns a Store used when no cache backend is configured: every read
// misses and every write is dropped. The search flow works unchanged, it
// just pays for generation each time.
func Noop() Store {
	return noopStore{}
}

type noopStore struct{}

func (noopStore) Get(context.Context, string) (models.Payload, bool) { return nil, false }

func (noopStore) Put(context.Context, string, models.Payload, time.Duration) {}

func (noopStore) Delete(context.Context, string) {}
