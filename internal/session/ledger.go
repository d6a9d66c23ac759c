package session

// Ledger is the ordered set of message ids displayed during this run.
// It is owned by the Loop and is not safe for concurrent use.
type Ledger struct {
	ids  []string
	seen map[string]struct{}
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{seen: make(map[string]struct{})}
}

// Seen reports whether id has been recorded.
func (l *Ledger) Seen(id string) bool {
	_, ok := l.seen[id]
	return ok
}

// Record adds id and reports whether it was new.
func (l *Ledger) Record(id string) bool {
	if l.Seen(id) {
		return false
	}
	l.seen[id] = struct{}{}
	l.ids = append(l.ids, id)
	return true
}

// Len returns the number of recorded ids.
func (l *Ledger) Len() int { return len(l.ids) }

// IDs returns the recorded ids in insertion order.
func (l *Ledger) IDs() []string { return append([]string(nil), l.ids...) }
