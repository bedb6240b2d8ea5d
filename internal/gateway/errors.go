package gateway

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNotFound means nothing has been stored in the slot yet.
var ErrNotFound = errors.New("gateway: no image stored")

// SizeMismatchError rejects an upload whose length is not the packed frame size.
type SizeMismatchError struct {
	Expected int
	Actual   int
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("Invalid file size. Expected %d bytes, got %d.", e.Expected, e.Actual)
}

func IsSizeMismatch(err error) bool {
	var sm *SizeMismatchError
	return errors.As(err, &sm)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
