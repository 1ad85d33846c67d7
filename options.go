// Package ctk is the public façade (C11): a Writer taking a stream of
// electrode samples and triggers through New -> setters -> Append* ->
// Embed -> Close, and a Reader taking a closed file through Open ->
// query/access -> Close. Every other package in this module is an
// implementation detail reachable only through these two types.
package ctk

import (
	"github.com/slatinski/ctk-sub001/container"
	"github.com/slatinski/ctk-sub001/internal/ctklog"
)

// Option configures a Writer or Reader at construction.
type Option func(*config)

type config struct {
	logger         ctklog.Logger
	brokenRecovery bool
	width          container.SizeWidth
}

func newConfig(opts []Option) config {
	cfg := config{logger: ctklog.Nop(), width: container.Width32}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithLogger installs a structured logging sink, the way the
// reference collaborator's ctk_set_logger does for the whole process.
func WithLogger(l ctklog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithBrokenFileRecovery enables the Reader's identifier-scan fallback
// (container.BrokenScan) when the chunk tree fails to parse normally.
func WithBrokenFileRecovery() Option {
	return func(c *config) { c.brokenRecovery = true }
}

// WithRiffSize selects the RF64 (64-bit size field) container variant
// for a Writer; the default is the 32-bit RIFF variant.
func WithRiffSize(width container.SizeWidth) Option {
	return func(c *config) { c.width = width }
}
