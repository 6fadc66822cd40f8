package models

import "slices"

// transitions lists, for each status, the statuses it may move to.
// A status with no entry is terminal.
type transitions[S ~string] map[S][]S

func (t transitions[S]) allows(from, to S) bool {
	return slices.Contains(t[from], to)
}

func (t transitions[S]) next(from S) []S {
	return slices.Clone(t[from])
}
