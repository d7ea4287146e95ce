package workspace

import "time"

// ledger remembers when local state was changed so that a fetch issued
// before the change cannot undo it. Last writer wins by timestamp.
type ledger struct {
	writes  map[string]time.Time
	deletes map[string]time.Time
}

func newLedger() *ledger {
	return &ledger{writes: make(map[string]time.Time), deletes: make(map[string]time.Time)}
}

func (l *ledger) wrote(id string, at time.Time) {
	l.writes[id] = at
	delete(l.deletes, id)
}

func (l *ledger) deleted(id string, at time.Time) {
	l.deletes[id] = at
	delete(l.writes, id)
}

// newerThan reports whether id was written locally after t
func (l *ledger) newerThan(id string, t time.Time) bool {
	at, ok := l.writes[id]
	return ok && at.After(t)
}

// deletedAfter reports whether id was deleted locally after t
func (l *ledger) deletedAfter(id string, t time.Time) bool {
	at, ok := l.deletes[id]
	return ok && at.After(t)
}

// prune forgets changes that a fetch issued at t already reflects
func (l *ledger) prune(t time.Time) {
	for id, at := range l.writes {
		if !at.After(t) {
			delete(l.writes, id)
		}
	}
	for id, at := range l.deletes {
		if !at.After(t) {
			delete(l.deletes, id)
		}
	}
}

// reconcile merges a fetch result issued at `issued` with local state:
//   - local entries written after issue and missing from the result are kept,
//     ahead of the fetched entries and in their local order
//   - on ID collision the fetched entry wins
//   - entries deleted locally after issue stay deleted
func reconcile[T any](fetched, local []T, id func(T) string, l *ledger, issued time.Time) []T {
	seen := make(map[string]struct{}, len(fetched))
	for _, item := range fetched {
		seen[id(item)] = struct{}{}
	}

	out := make([]T, 0, len(fetched)+len(l.writes))
	for _, item := range local {
		k := id(item)
		if _, ok := seen[k]; ok {
			continue
		}
		if l.newerThan(k, issued) {
			out = append(out, item)
		}
	}
	for _, item := range fetched {
		if l.deletedAfter(id(item), issued) {
			continue
		}
		out = append(out, item)
	}

	l.prune(issued)
	return out
}
