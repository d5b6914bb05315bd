// Package monitor serves the state of a running self-match over HTTP and
// streams its moves to websocket clients.
package monitor

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"shogi-engine/selfmatch"
)

// DefaultRecent is how many finished games /games keeps.
const DefaultRecent = 20

// liveGame is the game being played.
type liveGame struct {
	selfmatch.GameStart
	Moves []string `json:"moves"`
	SFEN  string   `json:"sfen"`
}

type status struct {
	Tally   selfmatch.TallySnapshot `json:"tally"`
	Current *liveGame               `json:"current,omitempty"`
	Clients int                     `json:"clients"`
}

// Server is a selfmatch.Observer that publishes what it sees.
type Server struct {
	tally  *selfmatch.Tally
	logger *log.Logger
	hub    *hub
	router chi.Router

	mu      sync.Mutex
	current *liveGame
	recent  []*selfmatch.GameRecord
	keep    int
}

var _ selfmatch.Observer = (*Server)(nil)

// New builds a monitor. It keeps its own tally of the games it sees end.
func New(logger *log.Logger) *Server {
	s := &Server{
		tally:  selfmatch.NewTally(),
		logger: logger,
		hub:    newHub(),
		keep:   DefaultRecent,
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: logger, NoColor: true}))
	r.Use(middleware.Recoverer)
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.status())
	})
	r.Get("/games", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		games := append([]*selfmatch.GameRecord(nil), s.recent...)
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, games)
	})
	r.Get("/ws", s.serveWS)
	s.router = r
	return s
}

// Handler is the HTTP entry point.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) status() status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := status{Tally: s.tally.Snapshot(), Clients: s.hub.count()}
	if s.current != nil {
		cur := *s.current
		cur.Moves = append([]string(nil), s.current.Moves...)
		st.Current = &cur
	}
	return st
}

func (s *Server) OnGameStart(e selfmatch.GameStart) {
	s.mu.Lock()
	s.current = &liveGame{GameStart: e, SFEN: e.SFEN}
	s.mu.Unlock()
	s.hub.broadcast("start", e)
}

func (s *Server) OnMove(e selfmatch.MoveEvent) {
	s.mu.Lock()
	if s.current != nil && s.current.Game == e.Game {
		s.current.Moves = append(s.current.Moves, e.Move)
		s.current.SFEN = e.SFEN
	}
	s.mu.Unlock()
	s.hub.broadcast("move", e)
}

func (s *Server) OnGameEnd(g *selfmatch.GameRecord) {
	s.mu.Lock()
	s.current = nil
	s.recent = append(s.recent, g)
	if len(s.recent) > s.keep {
		s.recent = s.recent[len(s.recent)-s.keep:]
	}
	s.mu.Unlock()
	s.tally.Add(g)
	s.hub.broadcast("end", g)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("websocket upgrade: %v", err)
		return
	}
	c := &client{send: make(chan []byte, 64)}
	s.hub.register(c)
	c.sendJSON(message{Type: "status", Payload: mustMarshal(s.status())})

	go func() {
		defer conn.Close()
		_ = writePump(conn, c.send)
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.hub.unregister(c)
			return
		}
	}
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return errors.Wrap(err, "monitor")
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return errors.Wrap(srv.Shutdown(shutdownCtx), "monitor shutdown")
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
