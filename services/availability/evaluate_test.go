package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateIntersectsAndSubtracts(t *testing.T) {
	records := []Record{
		{PassID: "88", Date: "2026-03-01", Open: true},
		{PassID: "88", Date: "2026-03-02", Open: false},
		{PassID: "88", Date: "2026-03-05", Open: true}, // not desired
	}
	desired := NewDateSet("2026-03-01", "2026-03-02", "2026-03-03")

	got := Evaluate(records, desired, NewDateSet())
	assert.Equal(t, []string{"2026-03-01"}, got.Sorted())

	// already-notified dates are subtracted
	got = Evaluate(records, desired, NewDateSet("2026-03-01"))
	assert.Empty(t, got)
}

func TestEvaluateMergesPasses(t *testing.T) {
	// the same date open on two passes is still one date
	records := []Record{
		{PassID: "88", Date: "2026-03-01", Open: true},
		{PassID: "89", Date: "2026-03-01", Open: true},
		{PassID: "89", Date: "2026-03-02", Open: true},
	}
	desired := NewDateSet("2026-03-01", "2026-03-02")

	got := Evaluate(records, desired, NewDateSet())
	assert.Equal(t, []string{"2026-03-01", "2026-03-02"}, got.Sorted())
}

func TestEvaluateIsPure(t *testing.T) {
	records := []Record{{PassID: "88", Date: "2026-03-01", Open: true}}
	desired := NewDateSet("2026-03-01")
	notified := NewDateSet()

	first := Evaluate(records, desired, notified)
	second := Evaluate(records, desired, notified)
	assert.Equal(t, first, second)

	// inputs are not mutated
	assert.Equal(t, 0, notified.Len())
	assert.Equal(t, 1, desired.Len())
}

func TestEvaluateEmptyInputs(t *testing.T) {
	assert.Empty(t, Evaluate(nil, NewDateSet("2026-03-01"), NewDateSet()))
	assert.Empty(t, Evaluate([]Record{{Date: "2026-03-01", Open: true}}, NewDateSet(), NewDateSet()))
}

func TestDateSetClone(t *testing.T) {
	orig := NewDateSet("2026-03-01")
	clone := orig.Clone()
	clone.Add("2026-03-02")

	assert.Equal(t, 1, orig.Len())
	assert.Equal(t, 2, clone.Len())
	assert.True(t, orig.Has("2026-03-01"))
	assert.False(t, orig.Has("2026-03-02"))
}
