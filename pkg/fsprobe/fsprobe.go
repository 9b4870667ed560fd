// Package fsprobe checks that a filesystem honours O_APPEND and O_TRUNC.
//
// Each check seeds a file with known content, reopens it with the flag under
// test, writes a marker and compares the resulting content. It is typically
// pointed at a path on an NFS mount to validate the server's write semantics.
package fsprobe

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/marmos91/nfs4probe/internal/logger"
)

// Check contents.
const (
	SeedContent    = "0123456789abcdef"
	AppendMarker   = "____"
	TruncateMarker = "++++"
)

// Mode names a check.
type Mode string

const (
	ModeAppend   Mode = "append"
	ModeTruncate Mode = "truncate"
)

// Result is the outcome of one check.
type Result struct {
	Mode     Mode
	Path     string
	Expected string
	Actual   string
}

// Passed reports whether the file ended with the expected content.
func (r *Result) Passed() bool {
	return r.Expected == r.Actual
}

// MismatchError reports file content that differs from what the open mode implies.
type MismatchError struct {
	Mode     Mode
	Path     string
	Expected string
	Actual   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s check on %s: expected %q, got %q", e.Mode, e.Path, e.Expected, e.Actual)
}

// Checker runs open-mode checks against a single file path.
//
// The file is removed before it is seeded and after every check.
type Checker struct {
	Path string

	// Perm is used when seeding the file; zero means 0644.
	Perm os.FileMode
}

// NewChecker returns a Checker for path.
func NewChecker(path string) *Checker {
	return &Checker{Path: path, Perm: 0644}
}

// CheckAppend opens the seeded file with O_APPEND|O_RDWR, writes AppendMarker
// and expects it after the seed content.
func (c *Checker) CheckAppend() (*Result, error) {
	return c.run(ModeAppend, unix.O_APPEND|unix.O_RDWR, AppendMarker, SeedContent+AppendMarker)
}

// CheckTruncate opens the seeded file with O_TRUNC|O_RDWR, writes
// TruncateMarker and expects it to be the only content.
func (c *Checker) CheckTruncate() (*Result, error) {
	return c.run(ModeTruncate, unix.O_TRUNC|unix.O_RDWR, TruncateMarker, TruncateMarker)
}

// Run executes every check and returns all results. The error joins every
// mismatch and failure; results are returned even when some checks fail.
func (c *Checker) Run() ([]*Result, error) {
	var (
		results []*Result
		errs    []error
	)

	for _, check := range []func() (*Result, error){c.CheckAppend, c.CheckTruncate} {
		res, err := check()
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}

	return results, errors.Join(errs...)
}

func (c *Checker) run(mode Mode, flags int, marker, expected string) (*Result, error) {
	if err := c.seed(); err != nil {
		return nil, fmt.Errorf("%s check: %w", mode, err)
	}
	defer c.cleanup()

	if err := writeWithFlags(c.Path, flags, marker); err != nil {
		return nil, fmt.Errorf("%s check: %w", mode, err)
	}

	data, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, fmt.Errorf("%s check: read back %s: %w", mode, c.Path, err)
	}

	res := &Result{Mode: mode, Path: c.Path, Expected: expected, Actual: string(data)}
	logger.Debug("Open mode check", "mode", string(mode), "path", c.Path, "passed", res.Passed())

	if !res.Passed() {
		return res, &MismatchError{Mode: mode, Path: c.Path, Expected: expected, Actual: res.Actual}
	}
	return res, nil
}

func (c *Checker) seed() error {
	if err := os.Remove(c.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale %s: %w", c.Path, err)
	}

	perm := c.Perm
	if perm == 0 {
		perm = 0644
	}
	if err := os.WriteFile(c.Path, []byte(SeedContent), perm); err != nil {
		return fmt.Errorf("seed %s: %w", c.Path, err)
	}
	return nil
}

func (c *Checker) cleanup() {
	if err := os.Remove(c.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Failed to remove probe file", "path", c.Path, "error", err)
	}
}

// writeWithFlags opens path with flags (never creating it), writes data in
// full and closes the descriptor.
func writeWithFlags(path string, flags int, data string) (err error) {
	fd, err := unix.Open(path, flags|unix.O_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		if cerr := unix.Close(fd); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	buf := []byte(data)
	for len(buf) > 0 {
		n, werr := unix.Write(fd, buf)
		if werr != nil {
			if errors.Is(werr, unix.EINTR) {
				continue
			}
			return fmt.Errorf("write %s: %w", path, werr)
		}
		buf = buf[n:]
	}
	return nil
}
