package normalize

import "fmt"

// ResourceError reports a missing or unusable external resource (reference
// index, chain file, panel). Always fatal, and raised before any row is
// processed.
type ResourceError struct {
	Resource string
	Path     string
	Err      error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s resource unavailable at %s: %v", e.Resource, e.Path, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

// EmptyOutputError is returned when every record was filtered away and the
// run was not configured to allow that.
type EmptyOutputError struct {
	Input int64
}

func (e *EmptyOutputError) Error() string {
	return fmt.Sprintf("no records survived filtering (%d input rows); pass --allow-empty to accept", e.Input)
}
