package rhythm

type (
	// Order lists phrase indices in playback order. Negative entries are
	// rests: one empty bar each.
	Order []int

	// Arrangement describes a long pattern as a handful of phrases and the
	// order in which they are played, the way choreographies are written:
	// four bars of idling, eight of swimming, a turn, and so on.
	Arrangement[T any] struct {
		// Phrases are the building blocks; each may span one or more bars.
		Phrases []Pattern[T]

		// Order lists phrase indices in playback order. An empty Order plays
		// every phrase once, in declaration order.
		Order Order `yaml:",flow,omitempty"`
	}
)

// Phrase returns the phrase played at position i of the order, or nil for a
// rest: i out of range, or an entry naming no phrase. A rest, like an empty
// phrase, lasts one bar.
func (a Arrangement[T]) Phrase(i int) Pattern[T] {
	if i < 0 || i >= len(a.Order) {
		return nil
	}
	idx := a.Order[i]
	if idx < 0 || idx >= len(a.Phrases) {
		return nil
	}
	return a.Phrases[idx]
}

// Pattern flattens the arrangement into a single Pattern. An order entry that
// does not name a phrase contributes one empty bar, so the bars after it stay
// where the order says they are.
func (a Arrangement[T]) Pattern() Pattern[T] {
	if len(a.Order) == 0 {
		return Concat(a.Phrases...)
	}
	var ret Pattern[T]
	for i := range a.Order {
		if p := a.Phrase(i); len(p) > 0 {
			ret = append(ret, p...)
		} else {
			ret = append(ret, nil)
		}
	}
	return ret
}

// Bars returns the number of bars of the flattened arrangement.
func (a Arrangement[T]) Bars() int {
	if len(a.Order) == 0 {
		n := 0
		for _, p := range a.Phrases {
			n += len(p)
		}
		return n
	}
	n := 0
	for i := range a.Order {
		n += max(len(a.Phrase(i)), 1)
	}
	return n
}
