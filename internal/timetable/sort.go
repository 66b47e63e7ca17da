package timetable

import (
	"cmp"
	"time"
)

// columnSpan is the first and last row a column calls at; top is -1 for a
// column with no visits.
type columnSpan struct {
	top, bottom int
}

func (g *Grouping) spans() []columnSpan {
	spans := make([]columnSpan, len(g.Trips))
	for x := range spans {
		spans[x] = columnSpan{top: -1, bottom: -1}
		for y := range g.order {
			if g.visitAt(y, x) == nil {
				continue
			}
			if spans[x].top < 0 {
				spans[x].top = y
			}
			spans[x].bottom = y
		}
	}
	return spans
}

// comparator orders columns by time at their first shared row, falling back
// to row position and start times for columns with no row in common.
type comparator struct {
	g     *Grouping
	spans []columnSpan
}

func (g *Grouping) comparator() *comparator {
	return &comparator{g: g, spans: g.spans()}
}

func (c *comparator) start(x int) time.Duration {
	return c.g.Trips[x].Start
}

func (c *comparator) end(x int) time.Duration {
	return c.g.Trips[x].End
}

// byStart breaks ties by start time, then original trip order.
func (c *comparator) byStart(a, b int) int {
	if n := cmp.Compare(c.start(a), c.start(b)); n != 0 {
		return n
	}
	return cmp.Compare(c.g.seq[a], c.g.seq[b])
}

// Compare returns a negative number when column a belongs left of column b.
func (c *comparator) Compare(a, b int) int {
	if a == b {
		return 0
	}
	sa, sb := c.spans[a], c.spans[b]
	switch {
	case sa.top < 0 && sb.top < 0:
		return cmp.Compare(c.g.seq[a], c.g.seq[b])
	case sa.top < 0 || sb.top < 0:
		return c.byStart(a, b)
	}

	from, to := max(sa.top, sb.top), min(sa.bottom, sb.bottom)
	for y := from; y <= to; y++ {
		va, vb := c.g.visitAt(y, a), c.g.visitAt(y, b)
		if va == nil || vb == nil {
			continue
		}
		if n := cmp.Compare(va.Time(), vb.Time()); n != 0 {
			return n
		}
		// same time at the same stop: the run that joined further down is later
		if n := cmp.Compare(sa.top, sb.top); n != 0 {
			return n
		}
		return c.byStart(a, b)
	}

	// no shared row
	if sa.top >= sb.bottom && c.start(a) >= c.end(b) {
		return 1
	}
	if sb.top >= sa.bottom && c.start(b) >= c.end(a) {
		return -1
	}
	return c.byStart(a, b)
}

// Sort orders the columns left to right.
//
// The comparator can be intransitive for columns with no shared rows, so the
// sort repeatedly takes the column that the fewest remaining columns must
// precede, preferring the earliest original trip. For a consistent comparator
// this is exactly the sorted order.
func (g *Grouping) Sort() error {
	if err := g.transition(StateBuilding, StateSorted); err != nil {
		return err
	}
	if len(g.Trips) > 1 {
		g.permute(sortColumns(len(g.Trips), g.seq, g.comparator().Compare))
	}
	return nil
}

// sortColumns returns a permutation of 0..n-1. seq breaks ties between
// equally eligible columns.
func sortColumns(n int, seq []int, compare func(a, b int) int) []int {
	// before[a][b] is true when a must come before b
	before := make([][]bool, n)
	for a := range before {
		before[a] = make([]bool, n)
	}
	indegree := make([]int, n)
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			switch c := compare(a, b); {
			case c < 0:
				before[a][b] = true
				indegree[b]++
			case c > 0:
				before[b][a] = true
				indegree[a]++
			}
		}
	}

	done := make([]bool, n)
	perm := make([]int, 0, n)
	for len(perm) < n {
		pick := -1
		for x := 0; x < n; x++ {
			if done[x] {
				continue
			}
			if pick < 0 || indegree[x] < indegree[pick] ||
				(indegree[x] == indegree[pick] && seq[x] < seq[pick]) {
				pick = x
			}
		}
		done[pick] = true
		perm = append(perm, pick)
		for x := 0; x < n; x++ {
			if !done[x] && before[pick][x] {
				indegree[x]--
			}
		}
	}
	return perm
}
