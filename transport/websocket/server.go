package websocket

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/crosszero/tictactoe/internal/entity"
	"github.com/crosszero/tictactoe/internal/pkg"
)

// disconnectGracePeriod is how long a player may stay disconnected before the
// opponent is notified and the game is ended.
const disconnectGracePeriod = 30 * time.Second

const disconnectSweepInterval = 5 * time.Second

type players interface {
	GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error)
}

type gamePlay interface {
	GetOrCreateGame(ctx context.Context, player *entity.Player, gameType, difficulty string) (*entity.Game, error)
	CreateOrJoinPublicGame(ctx context.Context, playerID string) (*entity.Game, error)
	JoinGameByID(ctx context.Context, gameID, playerID string) (*entity.Game, error)
	GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error)

	MakeTurn(ctx context.Context, playerID string, cell int) (*entity.Game, error)
	EndGame(ctx context.Context, game *entity.Game) error
}

// conn pairs a hijacked stream with a write lock. Broadcasts reach a
// connection from other players' goroutines, so every frame write must hold
// the lock or frames interleave on the wire.
type conn struct {
	bufrw *bufio.ReadWriter

	writeMutex sync.Mutex
}

type Server struct {
	logger   *slog.Logger
	players  players
	gamePlay gamePlay

	handlers map[string]func(ctx context.Context, message *Message, c *conn) error

	connectionsMutex sync.RWMutex
	connections      map[string]*conn

	disconnectedMutex   sync.Mutex
	disconnectedPlayers map[string]time.Time
}

func New(logger *slog.Logger, players players, gamePlay gamePlay) *Server {
	server := &Server{
		logger:   logger,
		players:  players,
		gamePlay: gamePlay,

		handlers:            make(map[string]func(context.Context, *Message, *conn) error),
		connections:         make(map[string]*conn),
		disconnectedPlayers: make(map[string]time.Time),
	}

	server.handlers["connect"] = server.handleConnect
	server.handlers["game:new"] = server.handleNewGame
	server.handlers["game:join"] = server.handleJoinGame
	server.handlers["game:turn"] = server.handleGameTurn
	server.handlers["game:leave"] = server.handleGameLeave

	return server
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 0, // connections are long-lived
		IdleTimeout: 30 * time.Second,
	}

	go that.monitorDisconnects(ctx)

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection to WebSocket.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeConnection")

	if req.Header.Get("Upgrade") != "websocket" {
		http.Error(writer, "not a websocket upgrade", http.StatusBadRequest)
		return
	}

	that.setSessionCookie(writer, req)

	key := req.Header.Get("Sec-WebSocket-Key")
	acceptKey := pkg.GenerateAcceptKey(key)

	writer.Header().Set("Upgrade", "websocket")
	writer.Header().Set("Connection", "Upgrade")
	writer.Header().Set("Sec-WebSocket-Accept", acceptKey)
	writer.WriteHeader(http.StatusSwitchingProtocols)

	hijacker, ok := writer.(http.Hijacker)
	if !ok {
		log.Error("web server does not support hijacking", "error", http.StatusText(http.StatusInternalServerError))
		return
	}

	netConn, bufrw, err := hijacker.Hijack()
	if err != nil {
		log.Error("failed to hijack connection", "error", err)
		return
	}

	defer netConn.Close()

	log.Info("WebSocket connection established")

	c := &conn{bufrw: bufrw}

	if err = that.handleMessages(ctx, c); err != nil && !errors.Is(err, io.EOF) {
		log.Error("error handling messages", "error", err)
	}

	that.handleDisconnect(c)
}

// handleMessages - processes messages from the client.
func (that *Server) handleMessages(ctx context.Context, c *conn) error {
	log := that.logger.With("method", "handleMessages")

	for {
		reqBody, err := that.readRequest(c.bufrw)
		if err != nil {
			return err
		}

		if reqBody == nil {
			continue
		}

		var message Message
		if err = json.Unmarshal(reqBody, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Error("unknown action", "action", message.Action)
			continue
		}

		if err = handler(ctx, &message, c); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

// setSessionCookie - set user session.
func (that *Server) setSessionCookie(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "setSessionCookie")

	cookie, err := req.Cookie("user_session")
	if err != nil {
		cookie = &http.Cookie{
			Name:    "user_session",
			Value:   pkg.GenerateNewSessionID(),
			Expires: time.Now().Add(24 * time.Hour),
			Path:    "/ws",
		}
		http.SetCookie(writer, cookie)
		log.Info("session cookie not found, new one created", "cookie", cookie.Value)
		return
	}

	log.Info("session cookie found", "cookie", cookie.Value)
}

// monitorDisconnects periodically sweeps players whose grace period expired.
func (that *Server) monitorDisconnects(ctx context.Context) {
	ticker := time.NewTicker(disconnectSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			that.sweepDisconnected(ctx)
		}
	}
}

func (that *Server) sweepDisconnected(ctx context.Context) {
	var expired []string

	that.disconnectedMutex.Lock()
	for playerID, since := range that.disconnectedPlayers {
		if time.Since(since) >= disconnectGracePeriod {
			expired = append(expired, playerID)
			delete(that.disconnectedPlayers, playerID)
		}
	}
	that.disconnectedMutex.Unlock()

	for _, playerID := range expired {
		that.handleOpponentOut(ctx, playerID)
	}
}
