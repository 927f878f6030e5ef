package ws

import (
	"encoding/json"
	"sync"

	"investx/internal/logger"
	"investx/internal/models"
)

const sendBuffer = 32

// AccountUpdate is the only message the server pushes.
type AccountUpdate struct {
	Type    string          `json:"type"`
	Account *models.Account `json:"account"`
}

// Client is one websocket connection bound to an account.
type Client struct {
	AccountID uint
	Send      chan []byte
	hub       *Hub
	once      sync.Once
}

func NewClient(accountID uint) *Client {
	return &Client{AccountID: accountID, Send: make(chan []byte, sendBuffer)}
}

// Close unregisters the client and closes Send. Safe to call more than once.
func (c *Client) Close() {
	c.once.Do(func() {
		if c.hub != nil {
			c.hub.unregister(c)
		}
		close(c.Send)
	})
}

// Hub tracks live sockets per account. One account may hold several connections.
type Hub struct {
	mu        sync.RWMutex
	byAccount map[uint]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{byAccount: make(map[uint]map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.hub = h
	if h.byAccount[c.AccountID] == nil {
		h.byAccount[c.AccountID] = make(map[*Client]struct{})
	}
	h.byAccount[c.AccountID][c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m := h.byAccount[c.AccountID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.byAccount, c.AccountID)
		}
	}
}

// PublishAccount sends the snapshot to every socket of the account. A full buffer drops the message.
func (h *Hub) PublishAccount(a *models.Account) {
	if a == nil {
		return
	}
	data, err := json.Marshal(AccountUpdate{Type: "account_updated", Account: a})
	if err != nil {
		logger.Error().Err(err).Uint("account_id", a.ID).Msg("encode account update")
		return
	}
	// Sends happen under the read lock so Close never closes a channel mid-send.
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.byAccount[a.ID] {
		select {
		case c.Send <- data:
		default:
			logger.Warn().Uint("account_id", a.ID).Msg("websocket client too slow, update dropped")
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, m := range h.byAccount {
		n += len(m)
	}
	return n
}
