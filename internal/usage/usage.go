package usage

import (
	"sync"
	"time"
)

type Kind string

const (
	KindText  Kind = "Text"
	KindAudio Kind = "Audio"
	KindImage Kind = "Image"
)

// Record is one remote generation call.
type Record struct {
	Timestamp    time.Time `json:"timestamp"`
	Model        string    `json:"model"`
	Kind         Kind      `json:"type"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
}

// Ledger accumulates usage records for the lifetime of a process. A nil
// *Ledger discards everything, so collaborators can record unconditionally.
type Ledger struct {
	mu      sync.Mutex
	records []Record
	now     func() time.Time
}

func NewLedger() *Ledger {
	return &Ledger{now: time.Now}
}

func (l *Ledger) Record(model string, kind Kind, inputTokens, outputTokens int) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, Record{
		Timestamp:    l.now(),
		Model:        model,
		Kind:         kind,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
	})
}

func (l *Ledger) Reset() {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.records = nil
	l.mu.Unlock()
}

// Snapshot returns a copy of every record in arrival order.
func (l *Ledger) Snapshot() []Record {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := make([]Record, len(l.records))
	copy(cp, l.records)
	return cp
}

// Totals sums tokens and call counts per kind.
type Totals struct {
	Calls        int
	InputTokens  int
	OutputTokens int
}

func (l *Ledger) Totals() map[Kind]Totals {
	out := make(map[Kind]Totals)
	for _, r := range l.Snapshot() {
		t := out[r.Kind]
		t.Calls++
		t.InputTokens += r.InputTokens
		t.OutputTokens += r.OutputTokens
		out[r.Kind] = t
	}
	return out
}
