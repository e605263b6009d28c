package feed

import (
	"errors"

	"github.com/pders01/headlines/internal/storage"
)

var (
	// ErrInFlight is returned when a request for this feed is already pending.
	// The call is dropped, not queued.
	ErrInFlight = errors.New("request already in flight")
	// ErrExhausted is returned by FetchNextPage once every result is loaded.
	ErrExhausted = errors.New("no more pages")
	// ErrNotInitialized is returned by FetchNextPage before Initialize succeeded.
	ErrNotInitialized = errors.New("feed not initialized")
)

// Status is the outcome of the most recent request.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusSuccess
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is a snapshot of a controller. Articles is a copy; the articles it
// points to are shared and must not be modified.
type State struct {
	Category     string
	Articles     []*storage.Article
	Page         int
	TotalResults int
	Loading      bool
	Status       Status
	Err          error
	Exhausted    bool
}

// Progress checkpoints reported during Initialize.
const (
	ProgressStart    = 10
	ProgressReceived = 30
	ProgressDecoded  = 70
	ProgressDone     = 100
)
