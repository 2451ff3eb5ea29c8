package webserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vortex-market/vortex-dao/src/gov/engine"
)

type Votes struct {
	eng *engine.Engine
}

func NewVotes(eng *engine.Engine) Votes {
	return Votes{eng: eng}
}

func (v Votes) Cast(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "bad proposal id"})
		return
	}

	var req struct {
		Choice string `json:"choice" binding:"required,oneof=yes no abstain"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	if err := v.eng.CastVote(c, c.GetString("addr"), id, req.Choice); err != nil {
		writeEngineError(c, err)
		return
	}

	p, err := v.eng.GetProposal(c, id)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"yes":     p.YesVotes,
		"no":      p.NoVotes,
		"abstain": p.AbstainVotes,
		"total":   p.TotalVotes,
	})
}

// Finalizer triggers a finalization scan; the same scan runs periodically
// inside the service, so hitting this at arbitrary intervals is safe.
type Finalizer struct {
	eng *engine.Engine
}

func NewFinalizer(eng *engine.Engine) Finalizer {
	return Finalizer{eng: eng}
}

func (f Finalizer) Scan(c *gin.Context) {
	results, err := f.eng.ScanAndFinalize(c, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"finalized": results})
}
