package store

import "fmt"

// ErrConflict is returned when a unique constraint is violated.
var ErrConflict = fmt.Errorf("conflict")
