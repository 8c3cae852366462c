// Package rank provides the bounded-size ranking used by reporting queries:
// keep the N most frequent labels and fold the rest into a single synthetic
// "others" entry.
package rank

import (
	"container/heap"
	"sort"
)

// Entry is one ranked label with its count.
type Entry struct {
	Label string
	Count int
}

// TopNWithOthers ranks counts by descending count and returns the first n
// entries, followed by one synthetic entry labeled otherLabel whose count is
// the sum of everything excluded. Ties on equal counts break on ascending
// label so the output is deterministic. Selection is heap-based: O(total
// log n) rather than a full sort.
//
// If n covers every distinct label, no others entry is emitted.
func TopNWithOthers(counts map[string]int, n int, otherLabel string) []Entry {
	labels := make([]string, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	if n < 0 {
		n = 0
	}

	// Min-heap of the n best entries seen so far; the root is the weakest
	// entry currently kept and is evicted when something better arrives.
	h := &entryHeap{}
	othersSum := 0
	excluded := 0

	for _, l := range labels {
		e := Entry{Label: l, Count: counts[l]}
		if h.Len() < n {
			heap.Push(h, e)
			continue
		}
		if n > 0 && weaker((*h)[0], e) {
			evicted := heap.Pop(h).(Entry)
			othersSum += evicted.Count
			excluded++
			heap.Push(h, e)
			continue
		}
		othersSum += e.Count
		excluded++
	}

	// Drain the heap weakest-first, then reverse to best-first.
	kept := make([]Entry, h.Len())
	for i := h.Len() - 1; i >= 0; i-- {
		kept[i] = heap.Pop(h).(Entry)
	}

	if excluded > 0 {
		kept = append(kept, Entry{Label: otherLabel, Count: othersSum})
	}
	return kept
}

// weaker reports whether a ranks below b: lower count, or equal count with a
// lexicographically greater label.
func weaker(a, b Entry) bool {
	if a.Count != b.Count {
		return a.Count < b.Count
	}
	return a.Label > b.Label
}

type entryHeap []Entry

func (h entryHeap) Len() int           { return len(h) }
func (h entryHeap) Less(i, j int) bool { return weaker(h[i], h[j]) }
func (h entryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)        { *h = append(*h, x.(Entry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}
