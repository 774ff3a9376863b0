package publisher

import (
	"fmt"

	"scripters-bot/internal/posts"
)

// ErrInvalidRecord is reported for posts without an identity. Nothing is
// written for such posts.
var ErrInvalidRecord = posts.ErrInvalidRecord

// PersistenceError reports a failed artifact write for one post.
type PersistenceError struct {
	Artifact string
	PostID   int
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s for post %d: %v", e.Artifact, e.PostID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// TransportError reports a failure to reach the upstream event source.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
