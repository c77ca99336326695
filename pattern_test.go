package rhythm_test

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/dalps/rhythm"
	"gopkg.in/yaml.v3"
)

var twoBars = rhythm.Pattern[int]{
	{{rhythm.Some(1)}, {rhythm.Some(2)}},
	{{rhythm.Some(3)}, {rhythm.Some(4), rhythm.Some(5)}},
}

func TestResolveHoldLast(t *testing.T) {
	last := rhythm.At(1, 1, 1)
	want := twoBars.Resolve(last, rhythm.HoldLast)
	for bar := 1; bar < 10; bar++ {
		c := rhythm.At(bar, 1, 1)
		if got := rhythm.Resolve(twoBars, c, rhythm.HoldLast); got != want {
			t.Fatalf("bar %d: got %v, want %v", bar, got, want)
		}
	}
}

func TestResolveLoop(t *testing.T) {
	for bar := 0; bar < 10; bar++ {
		for beat := 0; beat < 2; beat++ {
			got := twoBars.Resolve(rhythm.At(bar, beat, 0), rhythm.Loop)
			want := twoBars.Resolve(rhythm.At(bar%2, beat, 0), rhythm.Loop)
			if got != want {
				t.Fatalf("bar %d beat %d: got %v, want %v", bar, beat, got, want)
			}
		}
	}
}

func TestResolveEnd(t *testing.T) {
	if got := twoBars.Resolve(rhythm.At(1, 0, 0), rhythm.End); got != rhythm.Some(3) {
		t.Fatalf("got %v, want 3", got)
	}
	if got := twoBars.Resolve(rhythm.At(2, 0, 0), rhythm.End); got.Valid {
		t.Fatalf("expected none past the end, got %v", got)
	}
}

func TestResolveEmptyPattern(t *testing.T) {
	var empty rhythm.Pattern[int]
	for _, policy := range []rhythm.WrapPolicy{rhythm.Loop, rhythm.HoldLast, rhythm.End} {
		if got := empty.Resolve(rhythm.At(3, 0, 0), policy); got.Valid {
			t.Fatalf("%v: expected none from an empty pattern, got %v", policy, got)
		}
	}
}

func TestResolveRaggedNeverPanics(t *testing.T) {
	ragged := rhythm.Pattern[string]{
		{},
		{{}, {rhythm.Some("a")}},
		nil,
		{{rhythm.None[string](), rhythm.Some("b")}},
	}
	for bar := -1; bar < 6; bar++ {
		for beat := -1; beat < 4; beat++ {
			for sub := -1; sub < 3; sub++ {
				ragged.Resolve(rhythm.At(bar, beat, sub), rhythm.Loop)
				ragged.At(bar, beat, sub)
			}
		}
	}
	if got := ragged.Resolve(rhythm.At(5, 1, 0), rhythm.Loop); got != rhythm.Some("a") {
		t.Fatalf("got %v, want a", got)
	}
	if got := ragged.Resolve(rhythm.At(3, 0, 0), rhythm.Loop); got.Valid {
		t.Fatalf("explicit none should resolve to none, got %v", got)
	}
}

func TestRepeatConcatCount(t *testing.T) {
	idle := rhythm.Dense([][][]string{{{"idle"}, {"idle"}, {"idle"}, {"idle"}}})
	swim := rhythm.Dense([][][]string{{{"idle"}, {"swim"}, {"idle"}, {"swim"}}})
	p := rhythm.Concat(rhythm.Repeat(idle, 4), rhythm.Repeat(swim, 8))
	if p.Bars() != 12 {
		t.Fatalf("expected 12 bars, got %d", p.Bars())
	}
	if n := rhythm.Count(p, func(a string) bool { return a == "swim" }); n != 16 {
		t.Fatalf("expected 16 swims, got %d", n)
	}
	if rhythm.Repeat(idle, -1).Bars() != 0 {
		t.Fatalf("negative repeat should be empty")
	}
}

func TestWrapPolicyText(t *testing.T) {
	for _, p := range []rhythm.WrapPolicy{rhythm.Loop, rhythm.HoldLast, rhythm.End} {
		b, err := p.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d): %v", p, err)
		}
		var q rhythm.WrapPolicy
		if err := q.UnmarshalText(b); err != nil || q != p {
			t.Fatalf("UnmarshalText(%q) = %v, %v; want %v", b, q, err, p)
		}
	}
	if p, err := rhythm.ParseWrapPolicy("HoldLast"); err != nil || p != rhythm.HoldLast {
		t.Fatalf("ParseWrapPolicy(HoldLast) = %v, %v", p, err)
	}
	if _, err := rhythm.ParseWrapPolicy("bounce"); err == nil {
		t.Fatalf("expected an error for an unknown policy")
	}
}

func TestOptionalNullInYamlAndJson(t *testing.T) {
	const doc = "[[[2], [null], [], [1, null]]]"
	var fromYaml rhythm.Pattern[int]
	if err := yaml.Unmarshal([]byte(doc), &fromYaml); err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}
	var fromJSON rhythm.Pattern[int]
	if err := json.Unmarshal([]byte(doc), &fromJSON); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	want := rhythm.Pattern[int]{{{rhythm.Some(2)}, {rhythm.None[int]()}, {}, {rhythm.Some(1), rhythm.None[int]()}}}
	if !reflect.DeepEqual(fromYaml, want) {
		t.Fatalf("yaml: got %v, want %v", fromYaml, want)
	}
	if !reflect.DeepEqual(fromJSON, want) {
		t.Fatalf("json: got %v, want %v", fromJSON, want)
	}
	out, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	if string(out) != "[[[2],[null],[],[1,null]]]" {
		t.Fatalf("unexpected json %s", out)
	}
}
