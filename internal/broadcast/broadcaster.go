package broadcast

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"notifyd/internal/domain"
	"notifyd/internal/metrics"
)

const (
	commandTimeout = 5 * time.Second
	stopTimeout    = 10 * time.Second

	// historyReplayCount is how many buffered messages a new client gets.
	historyReplayCount = 50

	// maxClients caps concurrent realtime connections.
	maxClients = 512
)

// frame is the server-to-client wire envelope: "history" with a message
// slice on connect, "message" with a single message thereafter.
type frame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// broadcasterCmd is the command interface for the Broadcaster actor.
type broadcasterCmd interface{ isBroadcasterCmd() }

type baseBroadcasterCmd struct{}

func (baseBroadcasterCmd) isBroadcasterCmd() {}

type registerCmd struct {
	baseBroadcasterCmd
	connection   *websocket.Conn
	errorChannel chan error
}

type unregisterCmd struct {
	baseBroadcasterCmd
	connection *websocket.Conn
}

type broadcastCmd struct {
	baseBroadcasterCmd
	message domain.Message
}

type clientCountCmd struct {
	baseBroadcasterCmd
	replyChannel chan int
}

type stopCmd struct {
	baseBroadcasterCmd
}

// historySource provides the replay sent to a freshly connected client.
type historySource interface {
	Recent(n int) []domain.Message
}

// Broadcaster manages the live WebSocket connection set and fans out new
// messages. A single goroutine owns all state; fan-out order equals command
// submission order.
type Broadcaster struct {
	cmdCh   chan broadcasterCmd
	clock   clockwork.Clock
	clients map[*websocket.Conn]*clientWriter
	history historySource
	done    chan struct{}
}

// NewBroadcaster creates a broadcaster replaying from history on connect.
func NewBroadcaster(history historySource, clock clockwork.Clock) *Broadcaster {
	b := &Broadcaster{
		cmdCh:   make(chan broadcasterCmd, 256),
		clock:   clock,
		clients: make(map[*websocket.Conn]*clientWriter),
		history: history,
		done:    make(chan struct{}),
	}
	go b.run()
	return b
}

// Register adds a connection and queues its history frame. Returns an error
// when the connection limit is reached (the connection is closed in that case).
func (b *Broadcaster) Register(conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	b.cmdCh <- registerCmd{connection: conn, errorChannel: errCh}

	timer := b.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.Chan():
		return fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister removes a connection from the fan-out set.
func (b *Broadcaster) Unregister(conn *websocket.Conn) {
	b.cmdCh <- unregisterCmd{connection: conn}
}

// Broadcast queues a message for fan-out to every open connection.
// Best-effort: there is no per-client error reporting.
func (b *Broadcaster) Broadcast(msg domain.Message) {
	b.cmdCh <- broadcastCmd{message: msg}
}

// ClientCount returns the number of connected clients, or -1 on timeout.
func (b *Broadcaster) ClientCount() int {
	replyCh := make(chan int, 1)
	b.cmdCh <- clientCountCmd{replyChannel: replyCh}

	timer := b.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("ClientCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop shuts down the broadcaster, closing all client connections.
// Blocks until the broadcaster goroutine has exited or timeout is reached.
func (b *Broadcaster) Stop() {
	b.cmdCh <- stopCmd{}

	timeout := b.clock.NewTimer(stopTimeout)
	defer timeout.Stop()

	select {
	case <-b.done:
		slog.Info("Broadcaster stopped gracefully")
	case <-timeout.Chan():
		slog.Warn("Broadcaster stop timeout exceeded", "timeout", stopTimeout)
		metrics.BroadcasterStopTimeoutsTotal.Inc()
	}
}

func (b *Broadcaster) run() {
	defer close(b.done)

	for cmd := range b.cmdCh {
		switch c := cmd.(type) {
		case registerCmd:
			b.handleRegister(c)
		case unregisterCmd:
			b.handleUnregister(c.connection)
		case broadcastCmd:
			b.handleBroadcast(c.message)
		case clientCountCmd:
			c.replyChannel <- len(b.clients)
		case stopCmd:
			b.handleStop()
			return
		default:
			slog.Warn("Broadcaster received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (b *Broadcaster) handleRegister(c registerCmd) {
	if len(b.clients) >= maxClients {
		slog.Warn("Rejecting client: max clients reached", "max_clients", maxClients)
		c.connection.Close()
		c.errorChannel <- fmt.Errorf("max clients (%d) reached", maxClients)
		return
	}

	cw := newClientWriter(c.connection, b.clock)

	// History replay goes out before any message frame: the writer drains its
	// channel in order and the actor only queues messages after this point.
	replay, err := json.Marshal(frame{Type: "history", Payload: b.history.Recent(historyReplayCount)})
	if err != nil {
		slog.Error("Failed to marshal history frame", "error", err)
	} else {
		cw.sendChannel <- replay
	}

	b.clients[c.connection] = cw
	metrics.RealtimeConnectedClients.Inc()
	slog.Debug("Client registered", "total_clients", len(b.clients))
	c.errorChannel <- nil
}

func (b *Broadcaster) handleUnregister(conn *websocket.Conn) {
	cw, exists := b.clients[conn]
	if !exists {
		return
	}

	cw.stop()
	delete(b.clients, conn)
	metrics.RealtimeConnectedClients.Dec()
	slog.Debug("Client unregistered", "remaining_clients", len(b.clients))
}

func (b *Broadcaster) handleBroadcast(msg domain.Message) {
	if len(b.clients) == 0 {
		return
	}

	data, err := json.Marshal(frame{Type: "message", Payload: msg})
	if err != nil {
		slog.Error("Failed to marshal message frame", "message_id", msg.ID, "error", err)
		return
	}

	var slow []*websocket.Conn
	for conn, writer := range b.clients {
		select {
		case writer.sendChannel <- data:
		default:
			slow = append(slow, conn)
		}
	}

	for _, conn := range slow {
		slog.Warn("Disconnecting slow client")
		metrics.RealtimeSlowClientsEvicted.Inc()
		b.handleUnregister(conn)
	}
}

func (b *Broadcaster) handleStop() {
	slog.Info("Broadcaster shutting down", "connected_clients", len(b.clients))
	for conn, cw := range b.clients {
		cw.stopGraceful("Server shutting down")
		delete(b.clients, conn)
	}
	metrics.RealtimeConnectedClients.Set(0)
}
