package webserver

import (
	"encoding/json"
	"errors"
	"html"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"

	"github.com/vortex-market/vortex-dao/src/gov/engine"
	"github.com/vortex-market/vortex-dao/src/gov/types"
)

type Proposals struct {
	eng       *engine.Engine
	sanitizer *bluemonday.Policy
}

func NewProposals(eng *engine.Engine) Proposals {
	// Strict sanitizer with basic formatting only; descriptions are
	// rendered as HTML downstream.
	sanitizer := bluemonday.StrictPolicy()
	sanitizer.AllowElements("p", "br", "strong", "em", "code", "pre", "blockquote")
	sanitizer.AllowElements("ul", "ol", "li")
	sanitizer.AllowAttrs("href").OnElements("a")
	sanitizer.RequireParseableURLs(true)
	sanitizer.RequireNoFollowOnLinks(true)

	return Proposals{eng: eng, sanitizer: sanitizer}
}

func (h Proposals) Create(c *gin.Context) {
	var req struct {
		Title       string          `json:"title" binding:"required,max=255"`
		Description string          `json:"description" binding:"required,max=20000"`
		Type        string          `json:"type" binding:"required,oneof=parameter_change feature_request fund_allocation membership custom"`
		Parameters  json.RawMessage `json:"parameters" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	req.Title = html.EscapeString(req.Title)
	req.Description = h.sanitizer.Sanitize(req.Description)
	if !utf8.ValidString(req.Title) || !utf8.ValidString(req.Description) {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid characters in input"})
		return
	}

	p, err := h.eng.Propose(c, c.GetString("addr"), req.Title, req.Description, req.Type, req.Parameters)
	if err != nil {
		writeEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"proposalId": p.ID, "votingEndsAt": p.VotingEndsAt})
}

func (h Proposals) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "bad proposal id"})
		return
	}
	p, err := h.eng.GetProposal(c, id)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposalView(p))
}

func (h Proposals) List(c *gin.Context) {
	status := c.Query("status")
	switch status {
	case "", types.StatusActive, types.StatusApproved, types.StatusRejected:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"err": "bad status filter"})
		return
	}
	list, err := h.eng.ListProposals(c, status)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	out := make([]gin.H, 0, len(list))
	for i := range list {
		out = append(out, proposalView(&list[i]))
	}
	c.JSON(http.StatusOK, gin.H{"proposals": out})
}

func proposalView(p *types.Proposal) gin.H {
	v := gin.H{
		"id":           p.ID,
		"title":        p.Title,
		"description":  p.Description,
		"type":         p.Type,
		"creatorId":    p.CreatorID,
		"parameters":   json.RawMessage(p.Parameters),
		"status":       p.Status,
		"votingEndsAt": p.VotingEndsAt,
		"createdAt":    p.CreatedAt,
		"tally": gin.H{
			"yes":     p.YesVotes,
			"no":      p.NoVotes,
			"abstain": p.AbstainVotes,
			"total":   p.TotalVotes,
		},
	}
	if p.FinalizedAt != nil {
		v["finalizedAt"] = p.FinalizedAt
		v["finalizationReason"] = p.FinalizationReason
	}
	return v
}

func writeEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"err": err.Error()})
	case errors.Is(err, engine.ErrIneligible):
		c.JSON(http.StatusForbidden, gin.H{"err": err.Error()})
	case errors.Is(err, engine.ErrInvalidProposal):
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
	case errors.Is(err, engine.ErrInvalidVote):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"err": err.Error()})
	case errors.Is(err, engine.ErrAlreadyVoted), errors.Is(err, engine.ErrVotingClosed):
		c.JSON(http.StatusConflict, gin.H{"err": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
	}
}
