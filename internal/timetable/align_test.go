package timetable

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func render(edits []Edit) string {
	parts := make([]string, len(edits))
	for i, e := range edits {
		parts[i] = e.Kind.String() + e.Token
	}
	return strings.Join(parts, " ")
}

func TestAlign(t *testing.T) {
	testCases := []struct {
		name string
		old  []string
		new  []string
		want string
	}{
		{name: "Identical", old: []string{"A", "B"}, new: []string{"A", "B"}, want: "=A =B"},
		{name: "IntoEmpty", old: nil, new: []string{"A", "B"}, want: "+A +B"},
		{name: "ToEmpty", old: []string{"A", "B"}, new: nil, want: "-A -B"},
		{name: "DifferentTerminus", old: []string{"A", "B", "C"}, new: []string{"A", "B", "D"}, want: "=A =B -C +D"},
		{name: "InsertInMiddle", old: []string{"A", "C"}, new: []string{"A", "B", "C"}, want: "=A +B =C"},
		{name: "DeletesBeforeInserts", old: []string{"A", "X", "Y", "D"}, new: []string{"A", "P", "D"}, want: "=A -X -Y +P =D"},
		{name: "Loop", old: []string{"A", "B", "A"}, new: []string{"A", "B", "C", "A"}, want: "=A =B +C =A"},
		{name: "NothingShared", old: []string{"A"}, new: []string{"B"}, want: "-A +B"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, render(Align(tc.old, tc.new)))
		})
	}
}

func TestAlignIndexes(t *testing.T) {
	old := []string{"A", "B", "C"}
	new := []string{"B", "C", "D"}
	edits := Align(old, new)

	var kept, added int
	for _, e := range edits {
		switch e.Kind {
		case EditEqual:
			assert.Equal(t, old[e.Old], new[e.New])
			kept++
		case EditInsert:
			assert.Equal(t, -1, e.Old)
			assert.Equal(t, new[e.New], e.Token)
			added++
		case EditDelete:
			assert.Equal(t, -1, e.New)
			assert.Equal(t, old[e.Old], e.Token)
		}
	}
	assert.Equal(t, 2, kept)
	assert.Equal(t, 1, added)
}
