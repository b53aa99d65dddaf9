// Package spectate streams live narration to browser spectators over
// websockets and serves the leaderboard over HTTP.
package spectate

import (
	"context"
	"encoding/json"
	"html"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/tatianab/tribute-sim/internal/engine"
	"github.com/tatianab/tribute-sim/internal/models"
	"github.com/tatianab/tribute-sim/internal/runner"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = time.Minute
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 512
	backlogSize    = 50
	sendBuffer     = 64
)

// Message is the JSON frame sent to spectators. Text fields are HTML-escaped.
type Message struct {
	Type        string                    `json:"type"`
	GameID      string                    `json:"game_id"`
	Day         int                       `json:"day,omitempty"`
	Title       string                    `json:"title,omitempty"`
	Description string                    `json:"description,omitempty"`
	Color       string                    `json:"color,omitempty"`
	Text        string                    `json:"text,omitempty"`
	Fatal       bool                      `json:"fatal,omitempty"`
	Names       []string                  `json:"names,omitempty"`
	Placements  []models.PlacementSummary `json:"placements,omitempty"`
	Alive       int                       `json:"alive"`
}

// Client is one connected spectator.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub maintains the set of active spectators and broadcasts narration to them.
// It implements runner.Narrator; Run must be running while a game narrates.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	backlog    [][]byte
	namer      engine.Namer
	log        zerolog.Logger
}

var _ runner.Narrator = (*Hub)(nil)

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		namer:      engine.TransformNamer{},
		log:        log.With().Str("component", "spectate").Logger(),
	}
}

// Run owns the client set until ctx is done. New spectators first receive
// the recent backlog so they can catch up on the current game.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.log.Info().Msg("hub shutting down")
			return
		case client := <-h.register:
			h.clients[client] = true
			for _, msg := range h.backlog {
				select {
				case client.send <- msg:
				default:
				}
			}
			h.log.Debug().Int("clients", len(h.clients)).Msg("spectator connected")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.log.Debug().Int("clients", len(h.clients)).Msg("spectator disconnected")
			}
		case message := <-h.broadcast:
			h.backlog = append(h.backlog, message)
			if len(h.backlog) > backlogSize {
				h.backlog = h.backlog[len(h.backlog)-backlogSize:]
			}
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

func (h *Hub) publish(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Str("type", msg.Type).Msg("failed to serialize message")
		return
	}
	select {
	case h.broadcast <- payload:
	case <-h.done:
	}
}

func (h *Hub) PhaseStarted(s *models.GameSession, hd runner.Header) {
	h.publish(Message{
		Type:        "phase",
		GameID:      s.ID,
		Day:         hd.Day,
		Title:       html.EscapeString(hd.Title),
		Description: html.EscapeString(hd.Description),
		Color:       hd.Color,
		Alive:       s.AliveCount(),
	})
}

func (h *Hub) Event(s *models.GameSession, ev models.EventRecord) {
	h.publish(Message{
		Type:   "event",
		GameID: s.ID,
		Day:    s.CurrentDay,
		Text:   html.EscapeString(ev.Text),
		Fatal:  ev.Fatal,
		Alive:  s.AliveCount(),
	})
}

func (h *Hub) Fallen(s *models.GameSession, r runner.Recap) {
	h.publish(Message{
		Type:   "fallen",
		GameID: s.ID,
		Day:    s.CurrentDay,
		Title:  html.EscapeString(r.Title),
		Text:   html.EscapeString(r.Text),
		Names:  escapeAll(r.Names),
		Alive:  s.AliveCount(),
	})
}

func (h *Hub) Finished(s *models.GameSession, res runner.Results) {
	placements := res.Summary.Placements
	if len(placements) > 10 {
		placements = placements[:10]
	}
	escaped := make([]models.PlacementSummary, len(placements))
	for i, p := range placements {
		p.Username = html.EscapeString(h.displayName(s, p))
		escaped[i] = p
	}
	h.publish(Message{
		Type:        "finished",
		GameID:      s.ID,
		Day:         s.CurrentDay,
		Title:       html.EscapeString(res.Title),
		Description: html.EscapeString(res.Description),
		Placements:  escaped,
		Alive:       s.AliveCount(),
	})
}

func (h *Hub) displayName(s *models.GameSession, p models.PlacementSummary) string {
	if part := s.Participant(p.ParticipantID); part != nil {
		return h.namer.DisplayName(s, part)
	}
	return p.Username
}

func escapeAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = html.EscapeString(s)
	}
	return out
}

// Attach registers a websocket connection and starts its pumps.
func (h *Hub) Attach(conn *websocket.Conn) {
	c := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

// readPump only watches for the peer going away; spectators never send.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
