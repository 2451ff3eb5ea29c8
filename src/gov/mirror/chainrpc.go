package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vortex-market/vortex-dao/src/gov/types"
)

// ---------- tiny JSON-RPC helpers ----------

type rpcReq struct {
	Jsonrpc string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResp struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ChainRPC mirrors governance events to a ledger node over a websocket
// JSON-RPC connection. The connection is dialed lazily and dropped on any
// error; the next publish redials.
type ChainRPC struct {
	url string

	mu     sync.Mutex
	conn   *websocket.Conn
	nextID uint64
}

func NewChainRPC(url string) *ChainRPC {
	return &ChainRPC{url: url}
}

func (c *ChainRPC) call(ctx context.Context, method string, params ...interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
		conn, _, err := dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			return fmt.Errorf("dial %s: %w", c.url, err)
		}
		c.conn = conn
	}

	c.nextID++
	req := rpcReq{Jsonrpc: "2.0", ID: c.nextID, Method: method, Params: params}
	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetWriteDeadline(deadline)
		c.conn.SetReadDeadline(deadline)
	}
	if err := c.conn.WriteJSON(req); err != nil {
		c.drop()
		return err
	}
	var rsp rpcResp
	if err := c.conn.ReadJSON(&rsp); err != nil {
		c.drop()
		return err
	}
	if rsp.Error != nil {
		return fmt.Errorf("RPC %d: %s", rsp.Error.Code, rsp.Error.Message)
	}
	return nil
}

func (c *ChainRPC) drop() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *ChainRPC) PublishProposal(ctx context.Context, p *types.Proposal) error {
	return c.call(ctx, "vortex_publishProposal", map[string]interface{}{
		"proposal_id": p.ID,
		"type":        p.Type,
		"creator":     p.CreatorID,
		"title":       p.Title,
		"ends_at":     p.VotingEndsAt.Unix(),
	})
}

func (c *ChainRPC) PublishVote(ctx context.Context, proposalID uint64, voterID, choice string, power float64) error {
	return c.call(ctx, "vortex_publishVote", map[string]interface{}{
		"proposal_id": proposalID,
		"voter":       voterID,
		"choice":      choice,
		"power":       power,
	})
}

func (c *ChainRPC) PublishExecution(ctx context.Context, proposalID uint64) error {
	return c.call(ctx, "vortex_publishExecution", map[string]interface{}{
		"proposal_id": proposalID,
	})
}
