package selfmatch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	sg "shogi-engine/shogimg"
)

// KifuWriter stores finished games.
type KifuWriter interface {
	WriteGame(g *GameRecord) error
}

// USIWriter writes one "<initial-sfen> moves ..." line per game.
type USIWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewUSIWriter(w io.Writer) *USIWriter { return &USIWriter{w: w} }

func (u *USIWriter) WriteGame(g *GameRecord) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	_, err := io.WriteString(u.w, g.USI()+"\n")
	return errors.Wrap(err, "write kifu line")
}

// KIFWriter writes each game to its own .kif file in Dir. Files are
// Shift_JIS unless UTF8 is set.
type KIFWriter struct {
	Dir  string
	UTF8 bool
}

func NewKIFWriter(dir string, utf8 bool) (*KIFWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "kif dir")
	}
	return &KIFWriter{Dir: dir, UTF8: utf8}, nil
}

// Path is the file a game is written to.
func (k *KIFWriter) Path(g *GameRecord) string {
	ext := ".kif"
	if k.UTF8 {
		ext = ".kifu"
	}
	return filepath.Join(k.Dir, fmt.Sprintf("game%04d%s", g.Game, ext))
}

func (k *KIFWriter) WriteGame(g *GameRecord) error {
	text, err := FormatKIF(g)
	if err != nil {
		return err
	}
	f, err := os.Create(k.Path(g))
	if err != nil {
		return errors.Wrap(err, "create kif")
	}
	var w io.Writer = f
	var enc *transform.Writer
	if !k.UTF8 {
		enc = transform.NewWriter(f, japanese.ShiftJIS.NewEncoder())
		w = enc
	}
	if _, err := io.WriteString(w, text); err != nil {
		f.Close()
		return errors.Wrap(err, "write kif")
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			f.Close()
			return errors.Wrap(err, "encode kif")
		}
	}
	return errors.Wrap(f.Close(), "close kif")
}

var fwDigits = [10]string{"０", "１", "２", "３", "４", "５", "６", "７", "８", "９"}

var rankKanji = [10]string{"", "一", "二", "三", "四", "五", "六", "七", "八", "九"}

// Names used in move text.
var movePieceJP = map[sg.PieceType]string{
	sg.Pawn: "歩", sg.Lance: "香", sg.Knight: "桂", sg.Silver: "銀", sg.Gold: "金",
	sg.Bishop: "角", sg.Rook: "飛", sg.King: "玉",
	sg.ProPawn: "と", sg.ProLance: "成香", sg.ProKnight: "成桂", sg.ProSilver: "成銀",
	sg.Horse: "馬", sg.Dragon: "龍",
}

// One-character names used in the board diagram.
var boardPieceJP = map[sg.PieceType]string{
	sg.Pawn: "歩", sg.Lance: "香", sg.Knight: "桂", sg.Silver: "銀", sg.Gold: "金",
	sg.Bishop: "角", sg.Rook: "飛", sg.King: "玉",
	sg.ProPawn: "と", sg.ProLance: "杏", sg.ProKnight: "圭", sg.ProSilver: "全",
	sg.Horse: "馬", sg.Dragon: "竜",
}

var handOrderJP = []sg.PieceType{sg.Rook, sg.Bishop, sg.Gold, sg.Silver, sg.Knight, sg.Lance, sg.Pawn}

var countKanji = []string{
	"", "", "二", "三", "四", "五", "六", "七", "八", "九",
	"十", "十一", "十二", "十三", "十四", "十五", "十六", "十七", "十八",
}

func sideJP(c sg.Color) string {
	if c == sg.First {
		return "先手"
	}
	return "後手"
}

func squareJP(sq sg.Square) string {
	return fwDigits[sq.File()+1] + rankKanji[sq.Rank()+1]
}

// MoveJP renders m in KIF notation. prev is the destination of the
// previous move, or NoSquare.
func MoveJP(m sg.Move, prev sg.Square) string {
	var sb strings.Builder
	if m.To() == prev {
		sb.WriteString("同　")
	} else {
		sb.WriteString(squareJP(m.To()))
	}
	if m.IsDrop() {
		sb.WriteString(movePieceJP[m.DropType()])
		sb.WriteString("打")
		return sb.String()
	}
	sb.WriteString(movePieceJP[m.MovedPiece().Type()])
	if m.IsPromotion() {
		sb.WriteString("成")
	}
	from := m.From()
	fmt.Fprintf(&sb, "(%d%d)", from.File()+1, from.Rank()+1)
	return sb.String()
}

func clockJP(move, total time.Duration) string {
	m := int(move / time.Minute)
	s := int(move%time.Minute) / int(time.Second)
	h := int(total / time.Hour)
	tm := int(total%time.Hour) / int(time.Minute)
	ts := int(total%time.Minute) / int(time.Second)
	return fmt.Sprintf("(%2d:%02d/%02d:%02d:%02d)", m, s, h, tm, ts)
}

func handJP(h sg.Hand) string {
	var parts []string
	for _, pt := range handOrderJP {
		if n := h.Count(pt); n > 0 {
			parts = append(parts, boardPieceJP[pt]+countKanji[n])
		}
	}
	if len(parts) == 0 {
		return "なし"
	}
	return strings.Join(parts, "　") + "　"
}

// boardJP draws the position as a KIF board diagram.
func boardJP(b *sg.Board) string {
	lines := []string{
		"後手の持駒：" + handJP(b.Hand(sg.Second)),
		"  ９ ８ ７ ６ ５ ４ ３ ２ １",
		"+---------------------------+",
	}
	for rank := 0; rank < 9; rank++ {
		var row strings.Builder
		row.WriteByte('|')
		for file := 8; file >= 0; file-- {
			p := b.PieceAt(sg.NewSquare(file, rank))
			switch {
			case p == sg.Blank:
				row.WriteString(" ・")
			case p.Color() == sg.Second:
				row.WriteString("v" + boardPieceJP[p.Type()])
			default:
				row.WriteString(" " + boardPieceJP[p.Type()])
			}
		}
		row.WriteString("|" + rankKanji[rank+1])
		lines = append(lines, row.String())
	}
	lines = append(lines,
		"+---------------------------+",
		"先手の持駒："+handJP(b.Hand(sg.First)),
	)
	if b.SideToMove() == sg.Second {
		lines = append(lines, "後手番")
	}
	return strings.Join(lines, "\n")
}

// terminalJP is the last move line of a game, naming how it ended.
func terminalJP(r Reason) string {
	switch r {
	case ReasonMate:
		return "詰み"
	case ReasonResign:
		return "投了"
	case ReasonTimeout:
		return "切れ負け"
	case ReasonNyugyoku:
		return "入玉勝ち"
	case ReasonSennichite:
		return "千日手"
	case ReasonMaxPly:
		return "持将棋"
	case ReasonKingCapture, ReasonIllegalMove, ReasonFalseDeclaration, ReasonPerpetualCheck, ReasonDropPawnMate:
		return "反則負け"
	}
	return "中断"
}

// FormatKIF renders a game as KIF text.
func FormatKIF(g *GameRecord) (string, error) {
	b, err := sg.ParseSFEN(g.Initial)
	if err != nil {
		return "", errors.Wrap(err, "kif initial position")
	}
	const stamp = "2006/01/02 15:04:05"
	out := []string{
		"# ---- shogi-engine selfmatch ----",
		"開始日時：" + g.Started.Format(stamp),
		"終了日時：" + g.Finished.Format(stamp),
	}
	if g.Initial == sg.StartSFEN {
		out = append(out, "手合割：平手")
	} else {
		out = append(out, boardJP(b))
	}
	out = append(out,
		"先手："+g.First,
		"後手："+g.Second,
		"手数----指手---------消費時間--",
	)

	prev := sg.NoSquare
	for i, m := range g.Moves {
		var used, total time.Duration
		if i < len(g.Times) {
			used = g.Times[i]
			total = sumEvery(g.Times[:i+1], i%2)
		}
		out = append(out, fmt.Sprintf("%4d %s %s", i+1, padJP(MoveJP(m, prev), 12), clockJP(used, total)))
		prev = m.To()
	}
	n := len(g.Moves)
	out = append(out, fmt.Sprintf("%4d %s", n+1, terminalJP(g.Reason)))

	switch {
	case g.Reason == ReasonMate && g.Outcome != Draw:
		out = append(out, fmt.Sprintf("まで%d手で詰み", n))
	case g.Outcome == Draw:
		out = append(out, fmt.Sprintf("まで%d手で%s", n, terminalJP(g.Reason)))
	default:
		winner := sg.First
		if g.Outcome == SecondWins {
			winner = sg.Second
		}
		out = append(out, fmt.Sprintf("まで%d手で%sの勝ち", n, sideJP(winner)))
	}
	return strings.Join(out, "\n") + "\n", nil
}

// sumEvery adds every second entry of ts starting at from.
func sumEvery(ts []time.Duration, from int) time.Duration {
	var sum time.Duration
	for i := from; i < len(ts); i += 2 {
		sum += ts[i]
	}
	return sum
}

// padJP pads s with spaces to width columns, counting a wide rune as two.
func padJP(s string, width int) string {
	w := 0
	for _, r := range s {
		if r < 0x80 {
			w++
		} else {
			w += 2
		}
	}
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}
