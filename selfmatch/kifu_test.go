package selfmatch_test

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/encoding/japanese"

	"shogi-engine/selfmatch"
	sg "shogi-engine/shogimg"
)

func TestMoveJP(t *testing.T) {
	b := sg.NewBoard()
	played, err := b.ApplyUSI("7g7f", "3c3d", "8h2b+", "3a2b", "B*4e")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"７六歩(77)", "３四歩(33)", "２二角成(88)", "同　銀(31)", "４五角打"}
	prev := sg.NoSquare
	for i, m := range played {
		if got := selfmatch.MoveJP(m, prev); got != want[i] {
			t.Fatalf("move %d: got %q want %q", i+1, got, want[i])
		}
		prev = m.To()
	}
}

func TestFormatKIF(t *testing.T) {
	g := record(t, "7g7f", "3c3d")
	g.Times = []time.Duration{3 * time.Second, 65 * time.Second}
	g.Started = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	g.Finished = g.Started.Add(time.Minute)
	text, err := selfmatch.FormatKIF(g)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"開始日時：2024/05/01 10:00:00",
		"手合割：平手",
		"先手：alice",
		"後手：bob",
		"   1 ７六歩(77)   ( 0:03/00:00:03)",
		"   2 ３四歩(33)   ( 1:05/00:01:05)",
		"   3 投了",
		"まで2手で先手の勝ち",
	} {
		if !strings.Contains(text, want+"\n") {
			t.Fatalf("missing %q in\n%s", want, text)
		}
	}
}

func TestFormatKIFDiagram(t *testing.T) {
	b := sg.MustParseSFEN(matePosition)
	played, err := b.ApplyUSI("G*5b")
	if err != nil {
		t.Fatal(err)
	}
	g := &selfmatch.GameRecord{
		Initial: matePosition,
		Moves:   played,
		First:   "a",
		Second:  "b",
		Outcome: selfmatch.FirstWins,
		Reason:  selfmatch.ReasonMate,
	}
	text, err := selfmatch.FormatKIF(g)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"後手の持駒：なし",
		"| ・ ・ ・ ・v玉 ・ ・ ・ ・|一",
		"| ・ ・ ・ ・ 歩 ・ ・ ・ ・|三",
		"| ・ ・ ・ ・ 玉 ・ ・ ・ ・|九",
		"先手の持駒：金　",
		"   1 ５二金打",
		"まで1手で詰み",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("missing %q in\n%s", want, text)
		}
	}
	if strings.Contains(text, "手合割") {
		t.Fatal("handicap header for a custom position")
	}
}

func TestKIFWriterShiftJIS(t *testing.T) {
	dir := t.TempDir()
	w, err := selfmatch.NewKIFWriter(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	g := record(t, "7g7f")
	if err := w.WriteGame(g); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(w.Path(g))
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(raw, []byte("平手")) {
		t.Fatal("file is not Shift_JIS")
	}
	text, err := japanese.ShiftJIS.NewDecoder().Bytes(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(text), "手合割：平手") || !strings.Contains(string(text), "７六歩(77)") {
		t.Fatalf("decoded:\n%s", text)
	}

	u, _ := selfmatch.NewKIFWriter(dir, true)
	if err := u.WriteGame(g); err != nil {
		t.Fatal(err)
	}
	raw, _ = os.ReadFile(u.Path(g))
	if !strings.HasSuffix(u.Path(g), ".kifu") || !bytes.Contains(raw, []byte("手合割：平手")) {
		t.Fatalf("utf-8 kifu %s", u.Path(g))
	}
}

func TestUSIWriter(t *testing.T) {
	var buf bytes.Buffer
	w := selfmatch.NewUSIWriter(&buf)
	if err := w.WriteGame(record(t, "7g7f")); err != nil {
		t.Fatal(err)
	}
	if buf.String() != sg.StartSFEN+" moves 7g7f\n" {
		t.Fatalf("got %q", buf.String())
	}
}
