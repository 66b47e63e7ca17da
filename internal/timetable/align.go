package timetable

// EditKind says how one token takes part in an alignment.
type EditKind uint8

const (
	// EditEqual matches a token present in both sequences.
	EditEqual EditKind = iota
	// EditInsert is a token only in the new sequence.
	EditInsert
	// EditDelete is a token only in the old sequence.
	EditDelete
)

func (k EditKind) String() string {
	switch k {
	case EditEqual:
		return "="
	case EditInsert:
		return "+"
	case EditDelete:
		return "-"
	}
	return "?"
}

// Edit is one step of an alignment. Old and New index into the two sequences
// and are -1 where the token is absent from that side.
type Edit struct {
	Kind  EditKind
	Token string
	Old   int
	New   int
}

// Align computes a longest common subsequence alignment of old and new,
// treating each token as opaque. Within each unmatched gap deletions come
// before insertions, so tokens new to old are placed after the old tokens the
// new sequence skips. The result is deterministic.
func Align(old, new []string) []Edit {
	n, m := len(old), len(new)

	// lcs[i*(m+1)+j] is the LCS length of old[i:] and new[j:]
	lcs := make([]int32, (n+1)*(m+1))
	at := func(i, j int) int32 { return lcs[i*(m+1)+j] }
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			switch {
			case old[i] == new[j]:
				lcs[i*(m+1)+j] = at(i+1, j+1) + 1
			case at(i+1, j) >= at(i, j+1):
				lcs[i*(m+1)+j] = at(i+1, j)
			default:
				lcs[i*(m+1)+j] = at(i, j+1)
			}
		}
	}

	edits := make([]Edit, 0, n+m)
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case old[i] == new[j]:
			edits = append(edits, Edit{Kind: EditEqual, Token: old[i], Old: i, New: j})
			i++
			j++
		case at(i+1, j) >= at(i, j+1):
			edits = append(edits, Edit{Kind: EditDelete, Token: old[i], Old: i, New: -1})
			i++
		default:
			edits = append(edits, Edit{Kind: EditInsert, Token: new[j], Old: -1, New: j})
			j++
		}
	}
	for ; i < n; i++ {
		edits = append(edits, Edit{Kind: EditDelete, Token: old[i], Old: i, New: -1})
	}
	for ; j < m; j++ {
		edits = append(edits, Edit{Kind: EditInsert, Token: new[j], Old: -1, New: j})
	}
	return edits
}
