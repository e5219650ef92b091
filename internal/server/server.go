// Package server exposes the game over WebSocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tatianab/dungeon-crawler/internal/config"
	"github.com/tatianab/dungeon-crawler/internal/engine"
	"github.com/tatianab/dungeon-crawler/internal/logger"
	"github.com/tatianab/dungeon-crawler/internal/storage"
)

// Game is the part of the engine the server drives.
type Game interface {
	ProcessTurn(ctx context.Context, sessionID, input string) (*engine.TurnResult, error)
	Describe(ctx context.Context, sessionID string) (*engine.Snapshot, error)
}

// Reply is one JSON frame sent to the client.
type Reply struct {
	Save      string   `json:"save,omitempty"`
	Narrative string   `json:"narrative,omitempty"`
	Action    string   `json:"action,omitempty"`
	Room      string   `json:"room,omitempty"`
	Exits     []string `json:"exits,omitempty"`
	Error     string   `json:"error,omitempty"`
}

type Server struct {
	game     Game
	cfg      config.ServerConfig
	upgrader websocket.Upgrader
}

func New(game Game, cfg config.ServerConfig) *Server {
	s := &Server{game: game, cfg: cfg}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := s.cfg.IsOriginAllowed(origin, r.Host)
			if !allowed {
				logger.Warning("WebSocket connection rejected - origin not allowed",
					"origin", origin,
					"host", r.Host,
					"remote_addr", r.RemoteAddr)
			}
			return allowed
		},
	}
	return s
}

// Handler routes /play and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/play", s.handlePlay)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})
	return mux
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("WebSocket server listening", "address", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	save := r.URL.Query().Get("save")
	if save == "" {
		save = uuid.NewString()
	}
	if err := storage.ValidateID(save); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.play(r.Context(), conn, save)
}

func (s *Server) play(ctx context.Context, conn *websocket.Conn, save string) {
	log := logger.Logger().With("save", save, "remote_addr", conn.RemoteAddr().String())
	log.Info("Player connected")
	defer log.Info("Player disconnected")

	snap, err := s.game.Describe(ctx, save)
	if err != nil {
		log.Error("Failed to open game", "error", err)
		conn.WriteJSON(Reply{Save: save, Error: err.Error()})
		return
	}
	if err := conn.WriteJSON(Reply{Save: save, Narrative: snap.Description, Room: snap.RoomID, Exits: snap.Exits}); err != nil {
		return
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("Read failed", "error", err)
			}
			return
		}

		for _, line := range strings.Split(string(message), "\n") {
			input := strings.TrimSpace(line)
			if input == "" {
				continue
			}
			if err := conn.WriteJSON(s.turn(ctx, save, input)); err != nil {
				log.Debug("Write failed", "error", err)
				return
			}
		}
	}
}

func (s *Server) turn(ctx context.Context, save, input string) Reply {
	res, err := s.game.ProcessTurn(ctx, save, input)
	if err != nil {
		logger.Warning("Turn failed", "save", save, "error", err)
		return Reply{Save: save, Error: err.Error()}
	}
	reply := Reply{Save: save, Narrative: res.Narrative, Action: res.Intent.Action, Room: res.RoomID}
	if snap, err := s.game.Describe(ctx, save); err == nil {
		reply.Exits = snap.Exits
	}
	return reply
}
