package diag

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
)

// FatalError names an invariant violated by the IR, the pass under which
// the check ran, and the offending node so the caller can abort the
// compilation with a diagnostic. There is no recovery path:
// constructing a FatalError is always followed by unwinding the
// compilation.
type FatalError struct {
	Code      string // one of the F-series codes in codes.go
	Pass      string // name of the pass the check ran under
	NodeKind  string // "block", "edge", "local", "ssa-lifetime", ...
	NodeID    int
	Detail    string
	DumpID    ksuid.KSUID // correlates this failure with a crash dump artifact
	cause     error
}

// NewFatal constructs a FatalError, stamping it with a fresh dump id that
// a caller can use to correlate the failure (cmd/jitcore-dump prints it in
// its fatal report; it writes no artifact of its own).
func NewFatal(code, pass, nodeKind string, nodeID int, detail string) *FatalError {
	return &FatalError{
		Code:     code,
		Pass:     pass,
		NodeKind: nodeKind,
		NodeID:   nodeID,
		Detail:   detail,
		DumpID:   ksuid.New(),
	}
}

// Wrap attaches cause (typically an arena or runtime-interface failure) as
// the underlying reason, preserving its stack via pkg/errors.
func (e *FatalError) Wrap(cause error) *FatalError {
	e.cause = errors.WithStack(cause)
	return e
}

func (e *FatalError) Error() string {
	base := fmt.Sprintf("[%s] %s: invariant violated in pass %q on %s #%d: %s",
		e.Code, Description(e.Code), e.Pass, e.NodeKind, e.NodeID, e.Detail)
	if e.cause != nil {
		return fmt.Sprintf("%s: %+v", base, e.cause)
	}
	return base
}

func (e *FatalError) Unwrap() error {
	return e.cause
}

// Abort is a convenience that satisfies the "abort the build with a
// diagnostic" contract: it never returns.
func Abort(err *FatalError) {
	panic(err)
}
