package service

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/dao-governance/pkg/app/errors"
	apphttp "github.com/chainsafe/dao-governance/pkg/app/http"
	"github.com/chainsafe/dao-governance/pkg/auth"
	"github.com/chainsafe/dao-governance/pkg/proposal"
)

// HTTP wraps the Service to provide HTTP endpoints
type HTTP struct {
	service Service
	logger  *zap.Logger
}

// createBody is the POST /proposals payload. Proposer may be omitted on
// signed requests, in which case the signer proposes.
type createBody struct {
	proposal.CreateProposalRequest
	Proposer string `json:"proposer,omitempty"`
}

// RegisterRoutes registers the proposal endpoints on the given chi router
func RegisterRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := &HTTP{
		service: service,
		logger:  logger,
	}

	r.Route("/proposals", func(r chi.Router) {
		r.Get("/", apphttp.HandleError(h.list))
		r.Post("/", apphttp.HandleError(h.create))
		r.Post("/validate", apphttp.HandleError(h.validate))
		r.Get("/{id}", apphttp.HandleError(h.get))
	})
}

func (h *HTTP) list(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	filter := &proposal.ListFilter{
		Status:   q.Get("status"),
		Proposer: q.Get("proposer"),
	}

	var err error
	if filter.Page, err = intParam(q.Get("page")); err != nil {
		return apperrors.BadRequestError(err, "page must be an integer")
	}
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		return apperrors.BadRequestError(err, "limit must be an integer")
	}

	resp, err := h.service.GetProposals(r.Context(), filter)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}

func (h *HTTP) create(w http.ResponseWriter, r *http.Request) error {
	req, proposer, err := decodeCreate(r)
	if err != nil {
		return err
	}

	resp, err := h.service.CreateProposal(r.Context(), req, proposer)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusCreated, resp)
}

func (h *HTTP) validate(w http.ResponseWriter, r *http.Request) error {
	req, proposer, err := decodeCreate(r)
	if err != nil {
		return err
	}

	resp, err := h.service.ValidateProposal(r.Context(), req, proposer)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}

func (h *HTTP) get(w http.ResponseWriter, r *http.Request) error {
	id, ok := new(big.Int).SetString(chi.URLParam(r, "id"), 10)
	if !ok || id.Sign() < 0 {
		return apperrors.BadRequestError(nil, "invalid proposal id")
	}

	resp, err := h.service.GetProposal(r.Context(), id)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}

// decodeCreate resolves the proposer from the signer or the body. Both must
// agree when present.
func decodeCreate(r *http.Request) (*proposal.CreateProposalRequest, common.Address, error) {
	var body createBody
	if err := apphttp.DecodeJSON(r, &body); err != nil {
		return nil, common.Address{}, err
	}

	caller, signed := auth.CallerFromContext(r.Context())
	if body.Proposer == "" {
		if !signed {
			return nil, common.Address{}, apperrors.BadRequestError(nil, "proposer is required")
		}
		return &body.CreateProposalRequest, caller, nil
	}

	proposer, err := auth.ParseAddress(body.Proposer)
	if err != nil {
		return nil, common.Address{}, apperrors.BadRequestError(err, "proposer must be a valid Ethereum address")
	}
	if signed && caller != proposer {
		return nil, common.Address{}, apperrors.ForbiddenError(nil, "signer does not match proposer")
	}
	return &body.CreateProposalRequest, proposer, nil
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
