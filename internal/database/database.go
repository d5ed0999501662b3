// Package database provides the optional database collaborator. The service
// runs without it; callers discover it through a Locator.
package database

import (
	"context"
	"errors"
)

// ErrModuleNotFound means no database was enabled for this process.
var ErrModuleNotFound = errors.New("database module not found")

// Handle is a live database connection.
type Handle interface {
	ListCollectionNames(ctx context.Context) ([]string, error)
}

// Namer is implemented by handles that expose a display name.
type Namer interface {
	Name() string
}

// Locator resolves the collaborator. A nil Handle with a nil error means the
// module is known but was never initialized.
type Locator interface {
	Locate() (Handle, error)
}

// Absent is the Locator used when no database was enabled.
type Absent struct{}

func (Absent) Locate() (Handle, error) {
	return nil, ErrModuleNotFound
}

// Static returns the handle and error captured when the database was opened.
type Static struct {
	Handle Handle
	Err    error
}

func (s Static) Locate() (Handle, error) {
	return s.Handle, s.Err
}
