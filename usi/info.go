package usi

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	sg "shogi-engine/shogimg"
)

// Bound qualifies a score.
type Bound int

const (
	Exact Bound = iota
	LowerBound
	UpperBound
)

// Score is either a centipawn value or a mate distance in plies (negative
// when the engine is being mated).
type Score struct {
	Mate  bool
	Value int
	Bound Bound
}

// Cp is a centipawn score.
func Cp(v int) Score { return Score{Value: v} }

// MateIn is a mate score n plies away.
func MateIn(n int) Score { return Score{Mate: true, Value: n} }

// Lower marks the score as a lower bound.
func (s Score) Lower() Score {
	s.Bound = LowerBound
	return s
}

// Upper marks the score as an upper bound.
func (s Score) Upper() Score {
	s.Bound = UpperBound
	return s
}

func (s Score) String() string {
	kind := "cp"
	if s.Mate {
		kind = "mate"
	}
	out := "score " + kind + " " + strconv.Itoa(s.Value)
	switch s.Bound {
	case LowerBound:
		out += " lowerbound"
	case UpperBound:
		out += " upperbound"
	}
	return out
}

type infoField uint16

const (
	fDepth infoField = 1 << iota
	fSelDepth
	fTime
	fNodes
	fPV
	fScore
	fCurrMove
	fHashFull
	fNPS
	fString
)

var infoFieldNames = map[infoField]string{
	fDepth: "depth", fSelDepth: "seldepth", fTime: "time", fNodes: "nodes", fPV: "pv",
	fScore: "score", fCurrMove: "currmove", fHashFull: "hashfull", fNPS: "nps", fString: "string",
}

// Info builds an "info" line. Each sub-field may be set once; setters
// chain. Format reports duplicates and conflicting fields.
type Info struct {
	set  infoField
	dups infoField

	depth, selDepth int
	elapsed         time.Duration
	nodes, nps      uint64
	pv              []sg.Move
	score           Score
	currMove        sg.Move
	hashFull        int
	str             string
}

// NewInfo starts an empty info line.
func NewInfo() *Info { return &Info{} }

// InfoString is a convenience for "info string <s>".
func InfoString(s string) *Info { return NewInfo().Text(s) }

func (i *Info) mark(f infoField) {
	if i.set&f != 0 {
		i.dups |= f
	}
	i.set |= f
}

func (i *Info) Depth(d int) *Info {
	i.mark(fDepth)
	i.depth = d
	return i
}

func (i *Info) SelDepth(d int) *Info {
	i.mark(fSelDepth)
	i.selDepth = d
	return i
}

// Time sets the elapsed search time, sent in milliseconds.
func (i *Info) Time(d time.Duration) *Info {
	i.mark(fTime)
	i.elapsed = d
	return i
}

func (i *Info) Nodes(n uint64) *Info {
	i.mark(fNodes)
	i.nodes = n
	return i
}

func (i *Info) NPS(n uint64) *Info {
	i.mark(fNPS)
	i.nps = n
	return i
}

func (i *Info) Score(s Score) *Info {
	i.mark(fScore)
	i.score = s
	return i
}

func (i *Info) CurrMove(m sg.Move) *Info {
	i.mark(fCurrMove)
	i.currMove = m
	return i
}

// HashFull sets the hash usage in permille.
func (i *Info) HashFull(permille int) *Info {
	i.mark(fHashFull)
	i.hashFull = permille
	return i
}

// PV sets the principal variation.
func (i *Info) PV(moves ...sg.Move) *Info {
	i.mark(fPV)
	i.pv = append(i.pv[:0], moves...)
	return i
}

// Text sets the free-text "string" field. It runs to the end of the line.
func (i *Info) Text(s string) *Info {
	i.mark(fString)
	i.str = s
	return i
}

// Format renders the line. pv and string are mutually exclusive and
// seldepth needs depth.
func (i *Info) Format() (string, error) {
	if i.set == 0 {
		return "", errors.Wrap(ErrInvalidInfo, "info: no fields")
	}
	if i.dups != 0 {
		var names []string
		for f := fDepth; f <= fString; f <<= 1 {
			if i.dups&f != 0 {
				names = append(names, infoFieldNames[f])
			}
		}
		return "", errors.Wrapf(ErrInvalidInfo, "info: repeated %s", strings.Join(names, ", "))
	}
	if i.set&fPV != 0 && i.set&fString != 0 {
		return "", errors.Wrap(ErrInvalidInfo, "info: pv and string together")
	}
	if i.set&fSelDepth != 0 && i.set&fDepth == 0 {
		return "", errors.Wrap(ErrInvalidInfo, "info: seldepth without depth")
	}
	if i.set&fPV != 0 && len(i.pv) == 0 {
		return "", errors.Wrap(ErrInvalidInfo, "info: empty pv")
	}

	parts := []string{"info"}
	if i.set&fDepth != 0 {
		parts = append(parts, "depth", strconv.Itoa(i.depth))
	}
	if i.set&fSelDepth != 0 {
		parts = append(parts, "seldepth", strconv.Itoa(i.selDepth))
	}
	if i.set&fTime != 0 {
		parts = append(parts, "time", strconv.FormatInt(i.elapsed.Milliseconds(), 10))
	}
	if i.set&fNodes != 0 {
		parts = append(parts, "nodes", strconv.FormatUint(i.nodes, 10))
	}
	if i.set&fScore != 0 {
		parts = append(parts, i.score.String())
	}
	if i.set&fCurrMove != 0 {
		parts = append(parts, "currmove", i.currMove.String())
	}
	if i.set&fHashFull != 0 {
		parts = append(parts, "hashfull", strconv.Itoa(i.hashFull))
	}
	if i.set&fNPS != 0 {
		parts = append(parts, "nps", strconv.FormatUint(i.nps, 10))
	}
	if i.set&fPV != 0 {
		parts = append(parts, "pv")
		for _, m := range i.pv {
			parts = append(parts, m.String())
		}
	}
	if i.set&fString != 0 {
		parts = append(parts, "string", i.str)
	}
	return strings.Join(parts, " "), nil
}
