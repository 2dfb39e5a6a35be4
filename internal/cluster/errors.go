package cluster

import (
	"errors"
	"fmt"
)

var (
	// ErrNoInstances is returned when a job has neither local threads nor servers.
	ErrNoInstances = errors.New("cluster: no instances")
	// ErrNonContiguous is returned when a job's chunks do not form one edge range.
	ErrNonContiguous = errors.New("cluster: chunks are not contiguous")
)

// RemoteError reports the failure of one server.
type RemoteError struct {
	Server string
	Err    error
}

func (e *RemoteError) Error() string { return fmt.Sprintf("server %s: %v", e.Server, e.Err) }

func (e *RemoteError) Unwrap() error { return e.Err }
