package sqlx

// Either holds exactly one of two values. Result streams use it to multiplex
// statement summaries and data rows over a single ordered sequence.
type Either[L, R any] struct {
	left    L
	right   R
	isRight bool
}

func Left[L, R any](val L) Either[L, R] {
	return Either[L, R]{left: val}
}

func Right[L, R any](val R) Either[L, R] {
	return Either[L, R]{right: val, isRight: true}
}

// Left returns the left value and whether it is the one present.
func (e Either[L, R]) Left() (L, bool) {
	return e.left, !e.isRight
}

// Right returns the right value and whether it is the one present.
func (e Either[L, R]) Right() (R, bool) {
	return e.right, e.isRight
}
