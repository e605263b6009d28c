package newsapi

import (
	"errors"
	"fmt"
)

// ErrFetchFailed matches every error returned by TopHeadlines.
var ErrFetchFailed = errors.New("fetch failed")

type ErrorKind int

const (
	KindTransport ErrorKind = iota
	KindStatus
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// FetchError describes why a page could not be loaded.
type FetchError struct {
	Kind       ErrorKind
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindStatus:
		if e.Message != "" {
			return fmt.Sprintf("%s: HTTP %d: %s", ErrFetchFailed, e.StatusCode, e.Message)
		}
		return fmt.Sprintf("%s: HTTP %d", ErrFetchFailed, e.StatusCode)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", ErrFetchFailed, e.Kind, e.Err)
		}
		return fmt.Sprintf("%s: %s", ErrFetchFailed, e.Kind)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}
