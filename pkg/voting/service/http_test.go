package service

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chainsafe/dao-governance/pkg/auth"
	"github.com/chainsafe/dao-governance/pkg/governance"
)

func newTestRouter(t *testing.T, store *memStore, caller *common.Address) http.Handler {
	t.Helper()
	svc := NewLog(newTestService(t, store, fixedPower(42), start.Add(time.Hour)), zap.NewNop())

	r := chi.NewRouter()
	if caller != nil {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(auth.WithEVMAddress(req.Context(), caller.Hex())))
			})
		})
	}
	RegisterRoutes(r, svc, zap.NewNop())
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHTTP_Eligibility(t *testing.T) {
	h := newTestRouter(t, newMemStore(testProposal()), nil)

	rec := do(t, h, http.MethodGet, "/voting/1/eligibility/"+voterA.Hex(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["eligible"])
	assert.Equal(t, "42", body["voting_power"])
	assert.Equal(t, float64(71*3600), body["remaining_seconds"])
	assert.Equal(t, float64(120), body["snapshot_block"])
}

func TestHTTP_ErrorCodes(t *testing.T) {
	h := newTestRouter(t, newMemStore(testProposal()), nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
		msg    string
	}{
		{"invalid proposal id", http.MethodGet, "/voting/abc/tally", "", http.StatusBadRequest, "invalid proposal id"},
		{"unknown proposal", http.MethodGet, "/voting/7/tally", "", http.StatusNotFound, "proposal not found"},
		{"invalid voter", http.MethodGet, "/voting/1/eligibility/0x12", "", http.StatusBadRequest, "invalid voter address"},
		{"unknown field", http.MethodPost, "/voting/1/votes", `{"voter":"` + voterA.Hex() + `","support":1,"extra":true}`, http.StatusBadRequest, "invalid request body"},
		{"support out of range", http.MethodPost, "/voting/1/votes", `{"voter":"` + voterA.Hex() + `","support":5}`, http.StatusBadRequest, "support must be less than or equal to 2"},
		{"confirm without staged vote", http.MethodPost, "/voting/1/votes/" + voterA.Hex() + "/confirm", `{"tx_hash":"` + txHashA + `"}`, http.StatusNotFound, "no staged vote for this voter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.code, rec.Code)

			var body struct {
				Error string `json:"error"`
				Code  int    `json:"code"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.msg, body.Error)
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestHTTP_VoteAndConfirm(t *testing.T) {
	store := newMemStore(testProposal())
	h := newTestRouter(t, store, &voterA)

	rec := do(t, h, http.MethodPost, "/voting/1/votes", `{"voter":"`+voterA.Hex()+`","support":1,"reason":"yes"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Vote struct {
			Status string `json:"status"`
			Weight string `json:"weight"`
		} `json:"vote"`
		Transaction governance.TxRequest `json:"transaction"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "pending", resp.Vote.Status)
	assert.Equal(t, "42", resp.Vote.Weight)
	assert.Equal(t, daoAddr, resp.Transaction.To)
	assert.True(t, strings.HasPrefix(resp.Transaction.Data, "0x"))

	rec = do(t, h, http.MethodPost, "/voting/1/votes/"+voterA.Hex()+"/confirm", `{"tx_hash":"`+txHashA+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"confirmed"`)

	rec = do(t, h, http.MethodGet, "/voting/1/eligibility/"+voterA.Hex(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reason":"already voted"`)
}

func TestHTTP_SignerMustMatchVoter(t *testing.T) {
	other := common.HexToAddress("0x00000000000000000000000000000000000000b2")
	store := newMemStore(testProposal())
	h := newTestRouter(t, store, &other)

	rec := do(t, h, http.MethodPost, "/voting/1/votes", `{"voter":"`+voterA.Hex()+`","support":1}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "signer does not match voter")
	assert.Empty(t, store.votes)

	rec = do(t, h, http.MethodPost, "/voting/1/votes/"+voterA.Hex()+"/confirm", `{"tx_hash":"`+txHashA+`"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHTTP_Tally(t *testing.T) {
	p := testProposal()
	p.ForVotes = big.NewInt(1)
	p.AgainstVotes = big.NewInt(2)
	p.AbstainVotes = big.NewInt(0)
	h := newTestRouter(t, newMemStore(p), nil)

	rec := do(t, h, http.MethodGet, "/voting/1/tally", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"ACTIVE"`)
	assert.Contains(t, rec.Body.String(), `"for_pct":33.33`)
	assert.Contains(t, rec.Body.String(), `"against_pct":66.67`)
	assert.Contains(t, rec.Body.String(), `"quorum_reached":false`)
}
