package monitor_test

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"shogi-engine/selfmatch"
	"shogi-engine/selfmatch/monitor"
	sg "shogi-engine/shogimg"
)

func newServer(t *testing.T) (*monitor.Server, *httptest.Server) {
	t.Helper()
	m := monitor.New(log.New(io.Discard, "", 0))
	ts := httptest.NewServer(m.Handler())
	t.Cleanup(ts.Close)
	return m, ts
}

func getJSON(t *testing.T, url string, v any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("%s: %s", url, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatal(err)
	}
}

func finished(game int) *selfmatch.GameRecord {
	b := sg.NewBoard()
	played, _ := b.ApplyUSI("7g7f")
	return &selfmatch.GameRecord{
		Game:    game,
		Initial: sg.StartSFEN,
		Moves:   played,
		First:   "a",
		Second:  "b",
		Outcome: selfmatch.SecondWins,
		Reason:  selfmatch.ReasonResign,
	}
}

func TestStatusAndGames(t *testing.T) {
	m, ts := newServer(t)

	m.OnGameStart(selfmatch.GameStart{Game: 1, First: "a", Second: "b", SFEN: sg.StartSFEN})
	m.OnMove(selfmatch.MoveEvent{Game: 1, Ply: 1, Side: "b", Move: "7g7f", SFEN: "after"})

	var st struct {
		Tally   selfmatch.TallySnapshot `json:"tally"`
		Current *struct {
			Game  int      `json:"game"`
			Moves []string `json:"moves"`
			SFEN  string   `json:"sfen"`
		} `json:"current"`
	}
	getJSON(t, ts.URL+"/status", &st)
	if st.Current == nil || st.Current.Game != 1 || len(st.Current.Moves) != 1 || st.Current.SFEN != "after" {
		t.Fatalf("current %+v", st.Current)
	}

	m.OnGameEnd(finished(1))
	st.Current = nil
	getJSON(t, ts.URL+"/status", &st)
	if st.Current != nil || st.Tally.Games != 1 || st.Tally.Agents["b"].Wins != 1 {
		t.Fatalf("status after game %+v", st)
	}

	var games []struct {
		Game  int      `json:"game"`
		Moves []string `json:"moves"`
	}
	getJSON(t, ts.URL+"/games", &games)
	if len(games) != 1 || games[0].Moves[0] != "7g7f" {
		t.Fatalf("games %+v", games)
	}
}

func TestGamesKeepsRecent(t *testing.T) {
	m, ts := newServer(t)
	for i := 1; i <= monitor.DefaultRecent+5; i++ {
		m.OnGameEnd(finished(i))
	}
	var games []struct {
		Game int `json:"game"`
	}
	getJSON(t, ts.URL+"/games", &games)
	if len(games) != monitor.DefaultRecent || games[0].Game != 6 {
		t.Fatalf("kept %d games starting at %d", len(games), games[0].Game)
	}
}

func TestWebsocketStream(t *testing.T) {
	m, ts := newServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	read := func() (string, json.RawMessage) {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		var msg struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatal(err)
		}
		return msg.Type, msg.Payload
	}
	if kind, _ := read(); kind != "status" {
		t.Fatalf("first frame %q", kind)
	}

	m.OnGameStart(selfmatch.GameStart{Game: 3, First: "a", Second: "b", SFEN: sg.StartSFEN})
	m.OnMove(selfmatch.MoveEvent{Game: 3, Ply: 1, Move: "7g7f"})
	m.OnGameEnd(finished(3))

	if kind, _ := read(); kind != "start" {
		t.Fatalf("got %q want start", kind)
	}
	kind, payload := read()
	var mv selfmatch.MoveEvent
	if err := json.Unmarshal(payload, &mv); err != nil || kind != "move" || mv.Move != "7g7f" {
		t.Fatalf("got %q %s", kind, payload)
	}
	if kind, _ := read(); kind != "end" {
		t.Fatalf("got %q want end", kind)
	}
}
