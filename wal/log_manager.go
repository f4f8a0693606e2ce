// Package wal holds the log manager the buffer pool manager is constructed
// with. The manager is opaque to the BPM: it only carries the reference so
// higher layers (a WAL-aware table heap, a recovery routine) could use it,
// without the BPM itself ever calling into it. This package stops at a
// diagnostic shim: no log records, no replay, no durability.
package wal

import log "github.com/sirupsen/logrus"

// LSN is a log sequence number. It exists only so a future caller can stamp
// a page with "last LSN flushed to this page"; nothing in this module
// interprets it.
type LSN uint64

// ZeroLSN is the LSN of a page that has never been touched by a logged
// operation.
const ZeroLSN LSN = 0

// LogManager is the interface the buffer pool manager is constructed with.
type LogManager interface {
	// Flush blocks until every log record appended so far is durable.
	Flush() error
	// FlushedLSN returns the highest LSN known to be durable.
	FlushedLSN() LSN
}

var _ LogManager = NoopLogManager{}

// NoopLogManager discards everything. It is the default for tests and for
// any caller that does not need logging.
type NoopLogManager struct{}

func (NoopLogManager) Flush() error    { return nil }
func (NoopLogManager) FlushedLSN() LSN { return ZeroLSN }

var _ LogManager = &DiagnosticLogManager{}

// DiagnosticLogManager only logs structured events through logrus; it keeps
// no buffer and writes nothing to disk.
type DiagnosticLogManager struct {
	flushed LSN
}

func (d *DiagnosticLogManager) Flush() error {
	log.WithField("lsn", d.flushed).Debug("wal: flush requested (diagnostic log manager, no-op)")
	return nil
}

func (d *DiagnosticLogManager) FlushedLSN() LSN {
	return d.flushed
}
