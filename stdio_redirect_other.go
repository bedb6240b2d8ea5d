//go:build !unix

package main

import (
	"os"

	"github.com/pkg/errors"
)

// redirectStdIO swaps the os.Stdout and os.Stderr handles. Runtime-level
// output such as panics still goes to the original stderr.
func redirectStdIO(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "open stdio log")
	}
	os.Stdout = f
	os.Stderr = f
	return nil
}
