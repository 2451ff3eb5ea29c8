package webserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vortex-market/vortex-dao/src/gov/capability"
	"github.com/vortex-market/vortex-dao/src/gov/engine"
	"github.com/vortex-market/vortex-dao/src/gov/store"
	"github.com/vortex-market/vortex-dao/src/gov/types"
	"github.com/vortex-market/vortex-dao/src/govapi/config"
)

const testSecret = "webserver-test-secret"

func newTestRouter(t *testing.T) (*gin.Engine, *engine.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	caps := capability.NewStatic(map[string]capability.StaticMember{
		"5AliceAddress": {CanPropose: true, CanVote: true, Balance: 50},
		"5BobAddress":   {CanVote: true, Balance: 20},
	})
	cfg := engine.DefaultConfig()
	cfg.QuorumThreshold = 10
	eng := engine.New(cfg, store.NewMemory(), caps, nil, nil)

	r := New(config.Config{JWTSecret: testSecret}, eng, nil, nil)
	return r, eng
}

func bearer(t *testing.T, addr string, admin bool) string {
	t.Helper()
	token, err := issueJWT(addr, admin, []byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func doJSON(r *gin.Engine, method, path, auth string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(r, http.MethodGet, "/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateProposalRequiresAuth(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(r, http.MethodPost, "/v1/proposals", "", gin.H{
		"title": "t", "description": "d", "type": "custom",
		"parameters": gin.H{"handler": "h"},
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodPost, "/v1/proposals", "Bearer not-a-token", gin.H{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateAndFetchProposal(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/v1/proposals", bearer(t, "5AliceAddress", false), gin.H{
		"title":       "Lower fees",
		"description": "<p>Cut the fee</p><script>alert(1)</script>",
		"type":        "parameter_change",
		"parameters":  gin.H{"key": "marketplace_fee_percent", "value": "2.5"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ProposalID uint64 `json:"proposalId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotZero(t, created.ProposalID)

	w = doJSON(r, http.MethodGet, fmt.Sprintf("/v1/proposals/%d", created.ProposalID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Status      string `json:"status"`
		CreatorID   string `json:"creatorId"`
		Description string `json:"description"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, types.StatusActive, got.Status)
	assert.Equal(t, "5AliceAddress", got.CreatorID)
	// The sanitizer strips the script element.
	assert.NotContains(t, got.Description, "script")
	assert.Contains(t, got.Description, "Cut the fee")
}

func TestCreateProposalIneligible(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(r, http.MethodPost, "/v1/proposals", bearer(t, "5BobAddress", false), gin.H{
		"title":       "t",
		"description": "d",
		"type":        "custom",
		"parameters":  gin.H{"handler": "h"},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCastVoteRoutes(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/v1/proposals", bearer(t, "5AliceAddress", false), gin.H{
		"title":       "t",
		"description": "d",
		"type":        "custom",
		"parameters":  gin.H{"handler": "h"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ProposalID uint64 `json:"proposalId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	path := fmt.Sprintf("/v1/proposals/%d/votes", created.ProposalID)

	w = doJSON(r, http.MethodPost, path, bearer(t, "5BobAddress", false), gin.H{"choice": "yes"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var tally struct {
		Yes   float64 `json:"yes"`
		Total float64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tally))
	assert.Equal(t, 20.0, tally.Yes)
	assert.Equal(t, 20.0, tally.Total)

	// Duplicate vote maps onto 409.
	w = doJSON(r, http.MethodPost, path, bearer(t, "5BobAddress", false), gin.H{"choice": "no"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// gin's binding rejects unknown choices before the engine runs.
	w = doJSON(r, http.MethodPost, path, bearer(t, "5AliceAddress", false), gin.H{"choice": "maybe"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown proposal maps onto 404.
	w = doJSON(r, http.MethodPost, "/v1/proposals/999/votes", bearer(t, "5AliceAddress", false), gin.H{"choice": "yes"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFinalizeRequiresAdmin(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/v1/finalize", bearer(t, "5BobAddress", false), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, http.MethodPost, "/v1/finalize", bearer(t, "5AliceAddress", true), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFinalizeScanSettlesDueProposals(t *testing.T) {
	r, eng := newTestRouter(t)

	// Backdate the clock so the proposal's window is already over.
	past := time.Now().Add(-8 * 24 * time.Hour)
	eng.Now = func() time.Time { return past }

	w := doJSON(r, http.MethodPost, "/v1/proposals", bearer(t, "5AliceAddress", false), gin.H{
		"title":       "t",
		"description": "d",
		"type":        "custom",
		"parameters":  gin.H{"handler": "h"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	eng.Now = time.Now

	w = doJSON(r, http.MethodPost, "/v1/finalize", bearer(t, "5AliceAddress", true), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		Finalized []engine.FinalizationResult `json:"finalized"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res.Finalized, 1)
	assert.Equal(t, types.StatusRejected, res.Finalized[0].Status)
	assert.Equal(t, types.ReasonQuorumNotMet, res.Finalized[0].Reason)
}

func TestJWTMiddlewareRejectsWrongSecret(t *testing.T) {
	r, _ := newTestRouter(t)

	token, err := issueJWT("5AliceAddress", false, []byte("some-other-secret"))
	require.NoError(t, err)

	w := doJSON(r, http.MethodPost, "/v1/finalize", "Bearer "+token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
