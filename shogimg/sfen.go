package shogimg

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// StartSFEN is the standard initial position.
const StartSFEN = "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1"

// ErrInvalidSFEN is returned for malformed SFEN strings.
var ErrInvalidSFEN = errors.New("invalid sfen")

// pieceTypeFromLetter maps an upper-case SFEN letter to its base kind.
func pieceTypeFromLetter(c byte) PieceType {
	switch c {
	case 'P':
		return Pawn
	case 'L':
		return Lance
	case 'N':
		return Knight
	case 'S':
		return Silver
	case 'G':
		return Gold
	case 'B':
		return Bishop
	case 'R':
		return Rook
	case 'K':
		return King
	}
	return NoPieceType
}

func toUpper(c byte) (byte, bool) {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A', true
	}
	return c, false
}

// ParseSFEN parses a position. It accepts a bare SFEN, one prefixed with
// "sfen ", or the word "startpos". The move number may be omitted.
func ParseSFEN(s string) (*Board, error) {
	s = strings.TrimSpace(s)
	if s == "startpos" {
		s = StartSFEN
	}
	s = strings.TrimPrefix(s, "sfen ")
	fields := strings.Fields(s)
	if len(fields) < 3 || len(fields) > 4 {
		return nil, errors.Wrapf(ErrInvalidSFEN, "%q: want 3 or 4 fields", s)
	}

	b := newEmptyBoard()
	if err := b.parseSquares(fields[0]); err != nil {
		return nil, errors.Wrapf(err, "%q", s)
	}

	switch fields[1] {
	case "b":
		b.sideToMove = First
	case "w":
		b.sideToMove = Second
	default:
		return nil, errors.Wrapf(ErrInvalidSFEN, "%q: bad side %q", s, fields[1])
	}

	if err := b.parseHands(fields[2]); err != nil {
		return nil, errors.Wrapf(err, "%q", s)
	}

	if len(fields) == 4 {
		n, err := strconv.Atoi(fields[3])
		if err != nil || n < 1 {
			return nil, errors.Wrapf(ErrInvalidSFEN, "%q: bad move number %q", s, fields[3])
		}
		b.moveNumber = n
	}

	if err := b.checkMaterial(); err != nil {
		return nil, errors.Wrapf(err, "%q", s)
	}
	b.hash = ComputeHash(b)
	return b, nil
}

// checkMaterial rejects positions holding more of a kind, on the board and in
// both hands together, than a set contains.
func (b *Board) checkMaterial() error {
	var total [HandKinds]int
	for sq := Square(0); sq < NumSquares; sq++ {
		p := b.squares[sq]
		if p.IsBlank() || p.Type() == King {
			continue
		}
		total[p.Type().HandType()-1]++
	}
	for c := range b.hands {
		for i, n := range b.hands[c] {
			total[i] += int(n)
		}
	}
	for i, n := range total {
		if n > int(handCap[i]) {
			return errors.Wrapf(ErrInvalidSFEN, "%d %v in play", n, PieceType(i+1))
		}
	}
	return nil
}

func (b *Board) parseSquares(field string) error {
	ranks := strings.Split(field, "/")
	if len(ranks) != 9 {
		return errors.Wrapf(ErrInvalidSFEN, "want 9 ranks, got %d", len(ranks))
	}
	for rank, row := range ranks {
		file := 8
		promoted := false
		for i := 0; i < len(row); i++ {
			c := row[i]
			switch {
			case c >= '1' && c <= '9':
				if promoted {
					return errors.Wrapf(ErrInvalidSFEN, "rank %d: '+' before digit", rank+1)
				}
				file -= int(c - '0')
				if file < -1 {
					return errors.Wrapf(ErrInvalidSFEN, "rank %d: too many squares", rank+1)
				}
			case c == '+':
				if promoted {
					return errors.Wrapf(ErrInvalidSFEN, "rank %d: double '+'", rank+1)
				}
				promoted = true
			default:
				upper, lower := toUpper(c)
				pt := pieceTypeFromLetter(upper)
				if pt == NoPieceType {
					return errors.Wrapf(ErrInvalidSFEN, "rank %d: bad piece %q", rank+1, c)
				}
				if file < 0 {
					return errors.Wrapf(ErrInvalidSFEN, "rank %d: too many squares", rank+1)
				}
				if promoted {
					if !pt.Promotable() {
						return errors.Wrapf(ErrInvalidSFEN, "rank %d: %q cannot promote", rank+1, c)
					}
					pt = pt.Promote()
					promoted = false
				}
				color := First
				if lower {
					color = Second
				}
				if pt == King && b.kingSq[color] != NoSquare {
					return errors.Wrapf(ErrInvalidSFEN, "two kings for %v", color)
				}
				b.addPiece(NewSquare(file, rank), NewPiece(color, pt))
				file--
			}
		}
		if promoted {
			return errors.Wrapf(ErrInvalidSFEN, "rank %d: dangling '+'", rank+1)
		}
		if file != -1 {
			return errors.Wrapf(ErrInvalidSFEN, "rank %d: want 9 squares", rank+1)
		}
	}
	return nil
}

func (b *Board) parseHands(field string) error {
	if field == "-" {
		return nil
	}
	n := 0
	for i := 0; i < len(field); i++ {
		c := field[i]
		if c >= '0' && c <= '9' {
			n = n*10 + int(c-'0')
			if n > 18 {
				return errors.Wrapf(ErrInvalidSFEN, "hand count too large in %q", field)
			}
			continue
		}
		upper, lower := toUpper(c)
		pt := pieceTypeFromLetter(upper)
		if pt == NoPieceType || pt == King {
			return errors.Wrapf(ErrInvalidSFEN, "bad hand piece %q", c)
		}
		if n == 0 {
			if i > 0 && field[i-1] == '0' {
				return errors.Wrapf(ErrInvalidSFEN, "zero hand count in %q", field)
			}
			n = 1
		}
		color := First
		if lower {
			color = Second
		}
		if b.hands[color].Count(pt)+n > HandCap(pt) {
			return errors.Wrapf(ErrInvalidSFEN, "too many %v in hand", NewPiece(color, pt))
		}
		b.hands[color][pt-1] += uint8(n)
		n = 0
	}
	if n != 0 {
		return errors.Wrapf(ErrInvalidSFEN, "dangling count in %q", field)
	}
	return nil
}

// handString renders one side's hand in SFEN order, with Second's letters in
// lower case. An empty hand renders as "".
func handString(h Hand, c Color) string {
	var sb strings.Builder
	for _, pt := range handOrder {
		n := h.Count(pt)
		if n == 0 {
			continue
		}
		if n > 1 {
			sb.WriteString(strconv.Itoa(n))
		}
		sb.WriteString(NewPiece(c, pt).String())
	}
	return sb.String()
}

// SFEN renders b. ParseSFEN(b.SFEN()) reproduces b.
func (b *Board) SFEN() string {
	var sb strings.Builder
	for rank := 0; rank < 9; rank++ {
		if rank > 0 {
			sb.WriteByte('/')
		}
		empty := 0
		for file := 8; file >= 0; file-- {
			p := b.squares[NewSquare(file, rank)]
			if p == Blank {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteString(p.String())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
	}
	sb.WriteByte(' ')
	sb.WriteString(b.sideToMove.String())
	sb.WriteByte(' ')
	hands := handString(b.hands[First], First) + handString(b.hands[Second], Second)
	if hands == "" {
		hands = "-"
	}
	sb.WriteString(hands)
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(b.moveNumber))
	return sb.String()
}
