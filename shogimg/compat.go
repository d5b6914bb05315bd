package shogimg

import "github.com/pkg/errors"

// NewBoard returns the standard initial position.
func NewBoard() *Board { return MustParseSFEN(StartSFEN) }

// MustParseSFEN parses s and panics on error. Meant for constants and tests.
func MustParseSFEN(s string) *Board {
	b, err := ParseSFEN(s)
	if err != nil {
		panic(err)
	}
	return b
}

// Clone returns an independent copy of b.
func (b *Board) Clone() *Board {
	nb := *b
	return &nb
}

// Apply plays a legal move and returns an undo closure.
func (b *Board) Apply(m Move) func() {
	lm, ok := b.FindLegal(m)
	if !ok {
		panic("shogimg.Apply: illegal move " + m.String())
	}
	st := b.MakeMove(lm)
	return func() { b.UnmakeMove(st) }
}

// ApplyUSI parses and plays a sequence of USI move strings, stopping at the
// first one that is malformed or illegal. It returns the legal moves played.
func (b *Board) ApplyUSI(moves ...string) ([]Move, error) {
	played := make([]Move, 0, len(moves))
	for i, s := range moves {
		m, err := ParseMove(s)
		if err != nil {
			return played, errors.Wrapf(err, "move %d", i+1)
		}
		lm, ok := b.FindLegal(m)
		if !ok {
			return played, errors.Wrapf(ErrIllegalMove, "move %d %q in %v", i+1, s, b.SFEN())
		}
		b.MakeMove(lm)
		played = append(played, lm)
	}
	return played, nil
}

// OurKingInCheck reports whether the side to move has its king in check.
func (b *Board) OurKingInCheck() bool { return b.InCheck(b.sideToMove) }
