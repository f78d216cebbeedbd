package service

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/dao-governance/pkg/app/errors"
	apphttp "github.com/chainsafe/dao-governance/pkg/app/http"
	"github.com/chainsafe/dao-governance/pkg/auth"
	"github.com/chainsafe/dao-governance/pkg/voting"
)

// HTTP wraps the Service to provide HTTP endpoints
type HTTP struct {
	service Service
	logger  *zap.Logger
}

// RegisterRoutes registers the voting endpoints on the given chi router
func RegisterRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := &HTTP{
		service: service,
		logger:  logger,
	}

	r.Route("/voting/{proposalID}", func(r chi.Router) {
		r.Get("/eligibility/{voter}", apphttp.HandleError(h.eligibility))
		r.Post("/votes", apphttp.HandleError(h.vote))
		r.Post("/votes/{voter}/confirm", apphttp.HandleError(h.confirm))
		r.Get("/tally", apphttp.HandleError(h.tally))
	})
}

func (h *HTTP) eligibility(w http.ResponseWriter, r *http.Request) error {
	id, err := proposalIDParam(r)
	if err != nil {
		return err
	}
	voter, err := voterParam(r)
	if err != nil {
		return err
	}

	resp, err := h.service.ValidateVotingEligibility(r.Context(), id, voter)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}

func (h *HTTP) vote(w http.ResponseWriter, r *http.Request) error {
	id, err := proposalIDParam(r)
	if err != nil {
		return err
	}

	var req voting.VoteRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		return err
	}
	req.ProposalID = id

	if err := authorize(r, req.Voter); err != nil {
		return err
	}

	resp, err := h.service.ProcessVote(r.Context(), &req)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusCreated, resp)
}

func (h *HTTP) confirm(w http.ResponseWriter, r *http.Request) error {
	id, err := proposalIDParam(r)
	if err != nil {
		return err
	}
	voter, err := voterParam(r)
	if err != nil {
		return err
	}
	if err := authorize(r, voter.Hex()); err != nil {
		return err
	}

	var req voting.ConfirmRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		return err
	}

	resp, err := h.service.ConfirmVote(r.Context(), id, voter, req.TxHash)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}

func (h *HTTP) tally(w http.ResponseWriter, r *http.Request) error {
	id, err := proposalIDParam(r)
	if err != nil {
		return err
	}

	resp, err := h.service.GetTally(r.Context(), id)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}

// authorize rejects requests signed by someone other than voter. Unsigned
// requests are only let through when the router does not require signatures.
func authorize(r *http.Request, voter string) error {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		return nil
	}
	if !auth.ValidateEVMAddress(voter) || caller != common.HexToAddress(voter) {
		return apperrors.ForbiddenError(nil, "signer does not match voter")
	}
	return nil
}

func proposalIDParam(r *http.Request) (*big.Int, error) {
	id, ok := new(big.Int).SetString(chi.URLParam(r, "proposalID"), 10)
	if !ok || id.Sign() < 0 {
		return nil, apperrors.BadRequestError(nil, "invalid proposal id")
	}
	return id, nil
}

func voterParam(r *http.Request) (common.Address, error) {
	voter, err := auth.ParseAddress(chi.URLParam(r, "voter"))
	if err != nil {
		return common.Address{}, apperrors.BadRequestError(err, "invalid voter address")
	}
	return voter, nil
}
