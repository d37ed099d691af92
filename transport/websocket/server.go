package websocket

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bingoton/bingoton-backend/internal/notify"
)

type hub interface {
	Subscribe(sink notify.Sink)
	Unsubscribe(sink notify.Sink)
}

type Server struct {
	logger *slog.Logger
	hub    hub

	sendTimeout time.Duration
	upgrader    websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func New(logger *slog.Logger, hub hub, sendTimeout time.Duration) *Server {
	return &Server{
		logger: logger.With("component", "websocket"),

		hub: hub,

		sendTimeout: sendTimeout,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},

		conns: make(map[*websocket.Conn]struct{}),
	}
}

// Start - starts the WebSocket server for game update subscribers.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.handleSubscriber(ctx, w, r)
	})

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// Shutdown leaves upgraded connections alone, so close them
		// ourselves to unblock the subscriber read loops.
		_ = srv.Shutdown(shutdownCtx)
		that.closeConnections()
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) handleSubscriber(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		that.logger.Error("upgrade failed", "error", err)
		return
	}

	sink := &connSink{conn: conn, timeout: that.sendTimeout}
	that.track(conn)
	that.hub.Subscribe(sink)

	that.logger.Info("subscriber connected", "remote", conn.RemoteAddr())

	// Drain the connection: nothing meaningful comes back from
	// subscribers, but the read loop is how we learn they are gone.
	go func() {
		defer func() {
			that.untrack(conn)
			that.hub.Unsubscribe(sink)
			_ = sink.Close()
			that.logger.Info("subscriber disconnected", "remote", conn.RemoteAddr())
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}

			select {
			case <-ctx.Done():
				return
			default:
			}
		}
	}()
}

func (that *Server) track(conn *websocket.Conn) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.conns[conn] = struct{}{}
}

func (that *Server) untrack(conn *websocket.Conn) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.conns, conn)
}

func (that *Server) closeConnections() {
	that.mu.Lock()
	defer that.mu.Unlock()

	for conn := range that.conns {
		_ = conn.Close()
	}

	that.conns = make(map[*websocket.Conn]struct{})
}

// connSink adapts one gorilla connection to the hub. The write
// deadline bounds how long a hung subscriber can hold up a broadcast.
type connSink struct {
	conn    *websocket.Conn
	timeout time.Duration
}

func (that *connSink) Send(payload []byte) error {
	if err := that.conn.SetWriteDeadline(time.Now().Add(that.timeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err := that.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (that *connSink) Close() error {
	if err := that.conn.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}

	return nil
}
