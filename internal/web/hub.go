// Package web serves the recorder to a browser page over a WebSocket.
// The page sends triggers and draws the render states it receives; all
// state lives in scout.Session.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/quickscout/quickscout-go/internal/drafts"
	"github.com/quickscout/quickscout-go/internal/scout"
)

// Options configures a Hub.
type Options struct {
	Logger *zap.Logger
	// Recorder persists every session the hub opens. Optional.
	Recorder *drafts.Recorder
	// SessionOptions are applied to every session, e.g. the submitter
	// and timing.
	SessionOptions []scout.Option
	// CheckOrigin overrides the upgrader's origin check.
	CheckOrigin func(r *http.Request) bool
}

// Hub tracks connected pages and the session each one is driving.
type Hub struct {
	logger   *zap.Logger
	recorder *drafts.Recorder
	opts     []scout.Option
	upgrader websocket.Upgrader

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu       sync.RWMutex
	sessions map[string]*scout.Session // sessionID -> session
	owners   map[string]*Client        // sessionID -> client driving it
}

// NewHub creates a hub. Call Run before serving connections.
func NewHub(o Options) *Hub {
	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		logger:     logger,
		recorder:   o.Recorder,
		opts:       o.SessionOptions,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		sessions:   make(map[string]*scout.Session),
		owners:     make(map[string]*Client),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     o.CheckOrigin,
	}
	return h
}

// Run processes registrations until ctx is cancelled, then closes every
// session.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("client registered", zap.String("remote", client.remote))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
				h.detach(client)
				h.logger.Debug("client unregistered", zap.String("remote", client.remote))
			}

		case <-ctx.Done():
			for client := range h.clients {
				delete(h.clients, client)
				client.closeSend()
				h.detach(client)
			}
			h.logger.Info("websocket hub stopped")
			return
		}
	}
}

// Handler returns the HTTP routes: /ws for the socket and /healthz.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.ServeWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}

// ServeWS upgrades the request and starts the client's pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 256),
		remote: r.RemoteAddr,
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// Session returns the live session with id.
func (h *Hub) Session(id string) (*scout.Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[id]
	return s, ok
}

func (h *Hub) handleMessage(client *Client, msg inbound) {
	h.logger.Debug("received message", zap.String("type", msg.Type), zap.String("remote", client.remote))

	switch msg.Type {
	case TypeStart:
		var data StartData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			client.sendError(fmt.Errorf("decode start: %w", err))
			return
		}
		if err := h.start(client, scout.MatchContext{Match: data.Match, OnLeft: data.OnLeft}); err != nil {
			client.sendError(err)
		}

	case TypeResume:
		var data ResumeData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			client.sendError(fmt.Errorf("decode resume: %w", err))
			return
		}
		if err := h.resume(client, data.DraftID); err != nil {
			client.sendError(err)
		}

	case TypeTrigger:
		session, err := h.clientSession(client, msg.SessionID)
		if err != nil {
			client.sendError(err)
			return
		}
		var data TriggerData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			client.sendError(fmt.Errorf("decode trigger: %w", err))
			return
		}
		trigger, err := data.Trigger(session.Layout())
		if err != nil {
			client.sendError(err)
			return
		}
		if _, ok := trigger.(scout.Submit); ok {
			// Keep reading while the backend call is in flight.
			go h.dispatch(client, session, trigger)
			return
		}
		h.dispatch(client, session, trigger)

	case TypeState:
		session, err := h.clientSession(client, msg.SessionID)
		if err != nil {
			client.sendError(err)
			return
		}
		client.sendState(session.State())

	default:
		client.sendError(fmt.Errorf("unknown message type %q", msg.Type))
	}
}

func (h *Hub) dispatch(client *Client, session *scout.Session, trigger scout.Trigger) {
	err := session.Dispatch(context.Background(), trigger)
	switch {
	case err == nil, errors.Is(err, scout.ErrEmptyUndo):
	default:
		client.sendError(err)
	}
}

func (h *Hub) clientSession(client *Client, requested string) (*scout.Session, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	id := client.sessionID
	if id == "" {
		return nil, fmt.Errorf("no active session; send %q first", TypeStart)
	}
	if requested != "" && requested != id {
		return nil, fmt.Errorf("session %s is not attached to this connection", requested)
	}
	session, ok := h.sessions[id]
	if !ok {
		return nil, scout.ErrSessionClosed
	}
	return session, nil
}

// sessionOptions builds the options for the session with id. The
// navigator swaps the connection over to the next match once id has been
// submitted.
func (h *Hub) sessionOptions(id string) []scout.Option {
	opts := make([]scout.Option, 0, len(h.opts)+3)
	opts = append(opts, scout.WithLogger(h.logger))
	opts = append(opts, h.opts...)
	return append(opts,
		scout.WithID(id),
		scout.WithNavigator(scout.NavigatorFunc(func(next scout.MatchContext) {
			h.navigate(id, next)
		})),
	)
}

func (h *Hub) start(client *Client, match scout.MatchContext) error {
	session, err := scout.NewSession(match, h.sessionOptions(uuid.NewString())...)
	if err != nil {
		return err
	}
	h.attach(client, session)
	return nil
}

func (h *Hub) resume(client *Client, draftID string) error {
	if h.recorder == nil {
		return fmt.Errorf("drafts are not enabled on this server")
	}
	if _, live := h.Session(draftID); live {
		return fmt.Errorf("draft %s is already open", draftID)
	}
	session, _, err := h.recorder.Resume(context.Background(), draftID, h.sessionOptions(draftID)...)
	if err != nil {
		return err
	}
	h.attach(client, session)
	return nil
}

// attach makes session the client's active session, closing the previous
// one, and sends the session and its first render state.
func (h *Hub) attach(client *Client, session *scout.Session) {
	if h.recorder != nil {
		h.recorder.Attach(session)
	}

	h.mu.Lock()
	previous := h.sessions[client.sessionID]
	if previous != nil {
		delete(h.sessions, previous.ID())
		delete(h.owners, previous.ID())
	}
	client.sessionID = session.ID()
	h.sessions[session.ID()] = session
	h.owners[session.ID()] = client
	h.mu.Unlock()

	if previous != nil {
		previous.Close()
	}

	session.Bus().Subscribe(func(n scout.Notification) {
		h.forward(n)
	})

	match := session.Match()
	client.sendMessage(WSMessage{
		Type:      TypeSession,
		SessionID: session.ID(),
		Data:      SessionData{SessionID: session.ID(), Match: match.Match, OnLeft: match.OnLeft},
	})
	client.sendState(session.State())
	h.logger.Info("session attached",
		zap.String("session_id", session.ID()),
		zap.Int("match", match.Match),
		zap.String("remote", client.remote),
	)
}

// detach closes the session driven by client. Its draft stays in the store.
func (h *Hub) detach(client *Client) {
	h.mu.Lock()
	session := h.sessions[client.sessionID]
	if session != nil {
		delete(h.sessions, session.ID())
		delete(h.owners, session.ID())
	}
	client.sessionID = ""
	h.mu.Unlock()

	if session != nil {
		session.Close()
	}
}

// forward relays render-affecting notifications to the owning client.
func (h *Hub) forward(n scout.Notification) {
	switch n.Type {
	case scout.NotifyNavigate, scout.NotifyClosed:
		return
	}
	h.mu.RLock()
	client := h.owners[n.SessionID]
	h.mu.RUnlock()
	if client == nil {
		return
	}
	client.sendState(n.State)
}

// navigate replaces the finished session with one for the next match on
// the same side of the field.
func (h *Hub) navigate(finished string, next scout.MatchContext) {
	h.mu.RLock()
	client := h.owners[finished]
	h.mu.RUnlock()
	if client == nil {
		return
	}

	id := uuid.NewString()
	session, err := scout.NewSession(next, h.sessionOptions(id)...)
	if err != nil {
		client.sendError(err)
		return
	}
	client.sendMessage(WSMessage{
		Type:      TypeNavigate,
		SessionID: id,
		Data:      NavigateData{Match: next.Match, SessionID: id},
	})
	h.attach(client, session)
}
