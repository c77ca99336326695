package rhythm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

type (
	// Optional holds a value that may be absent. The zero value is absent, so
	// a freshly allocated Pattern is silent everywhere.
	Optional[T any] struct {
		Value T
		Valid bool
	}

	// Pattern is a sparse sequence of notes addressed by bar, beat and
	// sub-beat, in playback order. Bars and beats may be ragged: any index
	// outside of the declared range reads as an absent note, so lookups never
	// fail. Patterns are treated as read-only once handed to a listener.
	Pattern[T any] [][][]Optional[T]

	// WrapPolicy tells which declared bar of a Pattern is consulted once the
	// playback bar index meets or exceeds the number of bars in the pattern.
	WrapPolicy int
)

const (
	// Loop starts the pattern over: bar b reads bar b mod nBars.
	Loop WrapPolicy = iota
	// HoldLast keeps repeating the last bar of the pattern.
	HoldLast
	// End reads nothing past the last bar.
	End
)

var wrapPolicyNames = [...]string{"loop", "hold-last", "end"}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Valid: true}
}

// None returns an absent Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Valid
}

// Or returns the value if present, def otherwise.
func (o Optional[T]) Or(def T) T {
	if o.Valid {
		return o.Value
	}
	return def
}

func (o Optional[T]) String() string {
	if !o.Valid {
		return "none"
	}
	return fmt.Sprint(o.Value)
}

func (o Optional[T]) MarshalYAML() (interface{}, error) {
	if !o.Valid {
		return nil, nil
	}
	return o.Value, nil
}

func (o *Optional[T]) UnmarshalYAML(value *yaml.Node) error {
	if value.ShortTag() == "!!null" {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := value.Decode(&v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// UnmarshalYAML decodes the nested bar, beat and sub-beat sequences node by
// node. yaml.v3 skips null elements of a sequence instead of handing them to
// Optional.UnmarshalYAML, which would shift the notes after a rest.
func (p *Pattern[T]) UnmarshalYAML(value *yaml.Node) error {
	bars, err := yamlSequence(value)
	if err != nil {
		return fmt.Errorf("pattern: %w", err)
	}
	ret := make(Pattern[T], len(bars))
	for i, barNode := range bars {
		beats, err := yamlSequence(barNode)
		if err != nil {
			return fmt.Errorf("bar %d: %w", i+1, err)
		}
		ret[i] = make([][]Optional[T], len(beats))
		for j, beatNode := range beats {
			notes, err := yamlSequence(beatNode)
			if err != nil {
				return fmt.Errorf("bar %d, beat %d: %w", i+1, j+1, err)
			}
			ret[i][j] = make([]Optional[T], len(notes))
			for k, note := range notes {
				if err := ret[i][j][k].UnmarshalYAML(note); err != nil {
					return fmt.Errorf("bar %d, beat %d, sub %d: %w", i+1, j+1, k+1, err)
				}
			}
		}
	}
	*p = ret
	return nil
}

// yamlSequence returns the elements of a sequence node; a null node is an
// empty sequence.
func yamlSequence(n *yaml.Node) ([]*yaml.Node, error) {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	switch {
	case n.Kind == yaml.SequenceNode:
		return n.Content, nil
	case n.ShortTag() == "!!null":
		return nil, nil
	}
	return nil, fmt.Errorf("line %d: expected a sequence, got %v", n.Line, n.ShortTag())
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// Dense builds a Pattern in which every given note is present.
func Dense[T any](bars [][][]T) Pattern[T] {
	ret := make(Pattern[T], len(bars))
	for i, bar := range bars {
		ret[i] = make([][]Optional[T], len(bar))
		for j, beat := range bar {
			ret[i][j] = make([]Optional[T], len(beat))
			for k, note := range beat {
				ret[i][j][k] = Some(note)
			}
		}
	}
	return ret
}

// Repeat returns a pattern that plays p n times in a row. The bars are shared
// with p, not copied.
func Repeat[T any](p Pattern[T], n int) Pattern[T] {
	ret := make(Pattern[T], 0, max(n, 0)*len(p))
	for i := 0; i < n; i++ {
		ret = append(ret, p...)
	}
	return ret
}

// Concat returns a pattern that plays the given patterns one after another.
// The bars are shared with the arguments, not copied.
func Concat[T any](ps ...Pattern[T]) Pattern[T] {
	var ret Pattern[T]
	for _, p := range ps {
		ret = append(ret, p...)
	}
	return ret
}

// Bars returns the number of declared bars.
func (p Pattern[T]) Bars() int {
	return len(p)
}

// At returns the note at the given bar, beat and sub-beat; or an absent note
// if any of the indices is out of range.
func (p Pattern[T]) At(bar, beat, sub int) Optional[T] {
	if bar < 0 || bar >= len(p) {
		return Optional[T]{}
	}
	b := p[bar]
	if beat < 0 || beat >= len(b) {
		return Optional[T]{}
	}
	s := b[beat]
	if sub < 0 || sub >= len(s) {
		return Optional[T]{}
	}
	return s[sub]
}

// Resolve returns the note of the pattern sounding at c, choosing the bar
// according to policy.
func (p Pattern[T]) Resolve(c Coordinate, policy WrapPolicy) Optional[T] {
	bar, ok := policy.Bar(c.Bar, len(p))
	if !ok {
		return Optional[T]{}
	}
	return p.At(bar, c.Beat, c.Sub)
}

// Resolve is the function form of Pattern.Resolve.
func Resolve[T any](p Pattern[T], c Coordinate, policy WrapPolicy) Optional[T] {
	return p.Resolve(c, policy)
}

// Count returns the number of present notes in p for which f returns true.
func Count[T any](p Pattern[T], f func(T) bool) int {
	ret := 0
	for _, bar := range p {
		for _, beat := range bar {
			for _, note := range beat {
				if note.Valid && f(note.Value) {
					ret++
				}
			}
		}
	}
	return ret
}

// Bar maps the playback bar index to the index of the declared bar to read,
// given nBars declared bars. ok is false when no bar should be read: the
// pattern is empty, bar is negative, or the policy is End and bar is past the
// last declared bar.
func (w WrapPolicy) Bar(bar, nBars int) (idx int, ok bool) {
	if nBars <= 0 || bar < 0 {
		return 0, false
	}
	switch w {
	case Loop:
		return bar % nBars, true
	case HoldLast:
		return min(bar, nBars-1), true
	default:
		return bar, bar < nBars
	}
}

func (w WrapPolicy) String() string {
	if w < 0 || int(w) >= len(wrapPolicyNames) {
		return fmt.Sprintf("WrapPolicy(%d)", int(w))
	}
	return wrapPolicyNames[w]
}

// ParseWrapPolicy parses the names returned by WrapPolicy.String, ignoring
// case; "holdlast" and "hold_last" are accepted too.
func ParseWrapPolicy(s string) (WrapPolicy, error) {
	n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	if n == "holdlast" {
		n = "hold-last"
	}
	for i, name := range wrapPolicyNames {
		if n == name {
			return WrapPolicy(i), nil
		}
	}
	return 0, fmt.Errorf("unknown wrap policy %q", s)
}

func (w WrapPolicy) MarshalText() ([]byte, error) {
	if w < 0 || int(w) >= len(wrapPolicyNames) {
		return nil, fmt.Errorf("unknown wrap policy %d", int(w))
	}
	return []byte(wrapPolicyNames[w]), nil
}

func (w *WrapPolicy) UnmarshalText(b []byte) error {
	p, err := ParseWrapPolicy(string(b))
	if err != nil {
		return err
	}
	*w = p
	return nil
}
