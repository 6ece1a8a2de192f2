package enrich

import "fmt"

// ApplyError reports a failed write of an accepted match to the local store.
type ApplyError struct {
	LocalID int64
	Err     error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("apply match for local id %d: %v", e.LocalID, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}
