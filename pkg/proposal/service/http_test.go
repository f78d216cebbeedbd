package service

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/dao-governance/pkg/app/errors"
	"github.com/chainsafe/dao-governance/pkg/auth"
	"github.com/chainsafe/dao-governance/pkg/proposal"
	"github.com/chainsafe/dao-governance/pkg/proposal/service/mocks"
)

func newProposalTestServer(svc Service, caller *common.Address) http.Handler {
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

type errorBody struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var got errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	return got
}

func TestProposalHTTP_List_ParsesQuery(t *testing.T) {
	svc := mocks.NewService(t)
	svc.EXPECT().GetProposals(mock.Anything, &proposal.ListFilter{Status: "active", Proposer: proposer.Hex(), Page: 2, Limit: 5}).
		Return(&proposal.Page{Items: []*proposal.View{}, Total: 0, Page: 2, Limit: 5}, nil).Once()
	handler := newProposalTestServer(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/proposals?status=active&page=2&limit=5&proposer="+proposer.Hex(), nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[],"total":0,"page":2,"limit":5,"total_pages":0}`, rec.Body.String())
}

func TestProposalHTTP_List_BadPage(t *testing.T) {
	svc := mocks.NewService(t)
	handler := newProposalTestServer(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/proposals?page=two", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "page must be an integer", decodeError(t, rec).Error)
}

func TestProposalHTTP_Create_UsesSigner(t *testing.T) {
	svc := mocks.NewService(t)
	svc.EXPECT().CreateProposal(mock.Anything, &proposal.CreateProposalRequest{Title: "t", Description: "d"}, proposer).
		Return(&proposal.CreateProposalResponse{CID: testCID}, nil).Once()
	handler := newProposalTestServer(svc, &proposer)

	req := httptest.NewRequest(http.MethodPost, "/proposals", bytes.NewBufferString(`{"title":"t","description":"d"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), testCID)
}

func TestProposalHTTP_Create_ProposerResolution(t *testing.T) {
	other := common.HexToAddress("0x00000000000000000000000000000000000000b2")

	tests := []struct {
		name   string
		caller *common.Address
		body   string
		code   int
		msg    string
	}{
		{"unsigned without proposer", nil, `{"title":"t","description":"d"}`, http.StatusBadRequest, "proposer is required"},
		{"invalid proposer", nil, `{"title":"t","description":"d","proposer":"bob"}`, http.StatusBadRequest, "proposer must be a valid Ethereum address"},
		{"signer mismatch", &other, `{"title":"t","description":"d","proposer":"` + proposer.Hex() + `"}`, http.StatusForbidden, "signer does not match proposer"},
		{"unknown field", nil, `{"title":"t","description":"d","votes":1}`, http.StatusBadRequest, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := mocks.NewService(t)
			handler := newProposalTestServer(svc, tt.caller)

			req := httptest.NewRequest(http.MethodPost, "/proposals", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.code, rec.Code)
			got := decodeError(t, rec)
			assert.Equal(t, tt.msg, got.Error)
			assert.Equal(t, tt.code, got.Code)
		})
	}
}

func TestProposalHTTP_Validate(t *testing.T) {
	svc := mocks.NewService(t)
	svc.EXPECT().ValidateProposal(mock.Anything, mock.Anything, proposer).
		Return(nil, apperrors.BadRequestError(ErrBelowThreshold, "voting power 1 is below the proposal threshold 500")).Once()
	handler := newProposalTestServer(svc, nil)

	body := `{"title":"t","description":"d","proposer":"` + proposer.Hex() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/proposals/validate", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "voting power 1 is below the proposal threshold 500", decodeError(t, rec).Error)
}

func TestProposalHTTP_Get(t *testing.T) {
	svc := mocks.NewService(t)
	svc.EXPECT().GetProposal(mock.Anything, big.NewInt(12)).
		Return(nil, apperrors.ResourceNotFoundError(nil, "proposal not found")).Once()
	handler := newProposalTestServer(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/proposals/12", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/proposals/-3", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid proposal id", decodeError(t, rec).Error)
}
