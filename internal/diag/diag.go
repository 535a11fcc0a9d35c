// Package diag provides the process-wide diagnostics the pipeline shares:
// an atomic warning/error counter and an append-ordered message log. It
// replaces the teacher's package-level globals (prof.Track/SnapshotAndReset,
// measureutil.SnapshotAndReset) with a value injected through the pipeline,
// so tests never observe state left over by an earlier run.
package diag

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Message is one diagnostic line, optionally annotated with (l,i,j) so a
// given run prints the same messages in the same order regardless of which
// goroutine raised them (each stage appends in its own deterministic
// iteration order; Log never reorders).
type Message struct {
	Stage  string
	Text   string
	L      int
	I, J   int
	HasLIJ bool
}

func (m Message) String() string {
	if m.HasLIJ {
		return fmt.Sprintf("[%s l=%d i=%d j=%d] %s", m.Stage, m.L, m.I, m.J, m.Text)
	}
	return fmt.Sprintf("[%s] %s", m.Stage, m.Text)
}

// Log is a thread-safe, ordered collector of warnings. The zero value is
// ready to use.
type Log struct {
	warnings int64
	mu       sync.Mutex
	messages []Message
}

// New returns an empty Log.
func New() *Log { return &Log{} }

// Warn records a warning under stage with no (l,i,j) annotation.
func (lg *Log) Warn(stage, format string, args ...any) {
	lg.append(Message{Stage: stage, Text: fmt.Sprintf(format, args...)})
}

// WarnLIJ records a warning annotated with (l,i,j).
func (lg *Log) WarnLIJ(stage string, l, i, j int, format string, args ...any) {
	lg.append(Message{Stage: stage, Text: fmt.Sprintf(format, args...), L: l, I: i, J: j, HasLIJ: true})
}

func (lg *Log) append(m Message) {
	atomic.AddInt64(&lg.warnings, 1)
	lg.mu.Lock()
	lg.messages = append(lg.messages, m)
	lg.mu.Unlock()
}

// Count returns the number of warnings recorded so far.
func (lg *Log) Count() int64 {
	return atomic.LoadInt64(&lg.warnings)
}

// Messages returns a snapshot of the recorded messages in the order they
// were appended.
func (lg *Log) Messages() []Message {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	out := make([]Message, len(lg.messages))
	copy(out, lg.messages)
	return out
}

// SnapshotAndReset returns the recorded messages and clears the log,
// mirroring the teacher's prof.SnapshotAndReset/measureutil.SnapshotAndReset
// shape for callers that want to drain diagnostics between pipeline stages.
func (lg *Log) SnapshotAndReset() []Message {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	out := make([]Message, len(lg.messages))
	copy(out, lg.messages)
	lg.messages = nil
	atomic.StoreInt64(&lg.warnings, 0)
	return out
}
