package analytics

import (
	"github.com/opentoolhub/search-agent/internal/models"
)

// Sink is the one-way flow-record receiver the rest of the system talks to.
type Sink interface {
	Record(rec models.FlowRecord)
}

// NopSink discards every record, used when no log store is configured.
func NopSink() Sink {
	return nopSink{}
}

type nopSink struct{}

func (nopSink) Record(models.FlowRecord) {}
