// Package ctklog wires the module's components to a go-kit/log sink.
// Components accept a Logger at construction and default to a no-op
// sink; the host process installs a real one (console, file, ...) the
// way the reference implementation's ctk_set_logger collaborator does.
package ctklog

import (
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/slatinski/ctk-sub001/internal/ctkerr"
)

// Logger is the sink every package accepts. The zero value is not
// usable; use Nop() or a real go-kit/log.Logger.
type Logger = log.Logger

// Nop returns a logger that discards everything, the default sink
// before a caller installs a real one.
func Nop() Logger { return log.NewNopLogger() }

// WithComponent tags every line emitted through the returned logger
// with component=name, mirroring how the container tags chunk
// handling by chunk ID.
func WithComponent(l Logger, name string) Logger {
	return log.With(l, "component", name)
}

// Report logs err at the level appropriate for its ctkerr.Kind and
// returns err unchanged, so call sites can write `return
// ctklog.Report(logger, err)`.
func Report(l Logger, err error) error {
	if err == nil {
		return nil
	}

	var kind ctkerr.Kind
	var op string
	if e, ok := asCtkErr(err); ok {
		kind = e.Kind
		op = e.Op
	}

	_ = level.Error(l).Log("kind", kind.String(), "op", op, "err", err)
	return err
}

func asCtkErr(err error) (*ctkerr.Error, bool) {
	type unwrapper interface{ Unwrap() error }
	for err != nil {
		if e, ok := err.(*ctkerr.Error); ok {
			return e, true
		}
		u, ok := err.(unwrapper)
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}
