package export

import "strings"

// CountWordChanges counts word-level edits between two captions. Words are
// aligned with a longest-common-subsequence match; each non-matching region
// contributes the larger of its two side lengths, so a replacement of three
// words by one counts as three.
func CountWordChanges(preCaption, finalCaption string) int {
	preWords := strings.Fields(preCaption)
	finalWords := strings.Fields(finalCaption)

	changes := 0
	for _, op := range diffOpcodes(preWords, finalWords) {
		if op.tag == opEqual {
			continue
		}
		left := op.i2 - op.i1
		right := op.j2 - op.j1
		if left > right {
			changes += left
		} else {
			changes += right
		}
	}
	return changes
}

type opTag int

const (
	opEqual opTag = iota
	opReplace
	opDelete
	opInsert
)

type opcode struct {
	tag            opTag
	i1, i2, j1, j2 int
}

// diffOpcodes aligns two word slices and returns contiguous edit regions.
// LCS dynamic programming; caption lengths keep the table small.
func diffOpcodes(a, b []string) []opcode {
	n, m := len(a), len(b)

	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	var ops []opcode
	i, j := 0, 0
	for i < n || j < m {
		if i < n && j < m && a[i] == b[j] {
			start := opcode{tag: opEqual, i1: i, j1: j}
			for i < n && j < m && a[i] == b[j] {
				i++
				j++
			}
			start.i2, start.j2 = i, j
			ops = append(ops, start)
			continue
		}

		start := opcode{i1: i, j1: j}
		for i < n || j < m {
			if i < n && j < m && a[i] == b[j] {
				break
			}
			if i < n && (j == m || lcs[i+1][j] >= lcs[i][j+1]) {
				i++
			} else {
				j++
			}
		}
		start.i2, start.j2 = i, j

		switch {
		case start.i2 > start.i1 && start.j2 > start.j1:
			start.tag = opReplace
		case start.i2 > start.i1:
			start.tag = opDelete
		default:
			start.tag = opInsert
		}
		ops = append(ops, start)
	}
	return ops
}
