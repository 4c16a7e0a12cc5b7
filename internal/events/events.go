// Package events defines the events published on the event bus while
// serving requests.
package events

import (
	"net/http"
	"time"

	"github.com/hanpama/blockql/internal/blockptr"
)

// HTTPStart is published when a request is received. The context carries
// the request id.
type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish is published after the handler has written its response.
type HTTPFinish struct {
	Request  *http.Request
	Status   int
	Duration time.Duration
}

// QueryStart is published before a query is answered.
type QueryStart struct {
	SchemaID      string
	OperationName string
	Block         *blockptr.Ptr
}

// QueryFinish is published after a query is answered.
type QueryFinish struct {
	SchemaID      string
	OperationName string
	Block         *blockptr.Ptr
	// Cached is set when the answer came from the block cache or from
	// another caller's execution.
	Cached   bool
	Errors   int
	Duration time.Duration
}

// StoreQuery is published for every entity store read.
type StoreQuery struct {
	Entity   string
	Block    uint64
	Rows     int
	Err      error
	Start    time.Time
	Duration time.Duration
}

// BlockAppended is published after a block has been written to the store.
type BlockAppended struct {
	Block    blockptr.Ptr
	Entities int
}
