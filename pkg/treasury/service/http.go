package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/dao-governance/pkg/app/errors"
	apphttp "github.com/chainsafe/dao-governance/pkg/app/http"
	"github.com/chainsafe/dao-governance/pkg/auth"
	"github.com/chainsafe/dao-governance/pkg/treasury"
)

// HTTP wraps the Service to provide HTTP endpoints
type HTTP struct {
	service Service
	logger  *zap.Logger
}

// RegisterRoutes registers the treasury and analytics endpoints on the given chi router
func RegisterRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := &HTTP{
		service: service,
		logger:  logger,
	}

	r.Get("/treasury/balance", apphttp.HandleError(h.balance))
	r.Get("/treasury/transactions", apphttp.HandleError(h.transactions))
	r.Get("/analytics/daily", apphttp.HandleError(h.daily))
	r.Get("/analytics/users/{address}", apphttp.HandleError(h.user))
}

func (h *HTTP) balance(w http.ResponseWriter, r *http.Request) error {
	resp, err := h.service.GetBalance(r.Context())
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}

func (h *HTTP) transactions(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	filter := &treasury.TransactionFilter{
		Type:  q.Get("type"),
		Asset: q.Get("asset"),
	}

	var err error
	if filter.Page, err = intParam(q.Get("page")); err != nil {
		return apperrors.BadRequestError(err, "page must be an integer")
	}
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		return apperrors.BadRequestError(err, "limit must be an integer")
	}

	resp, err := h.service.GetTransactions(r.Context(), filter)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}

func (h *HTTP) daily(w http.ResponseWriter, r *http.Request) error {
	from, err := dayParam(r, "from")
	if err != nil {
		return err
	}
	to, err := dayParam(r, "to")
	if err != nil {
		return err
	}

	resp, err := h.service.GetDailyMetrics(r.Context(), from, to)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}

func (h *HTTP) user(w http.ResponseWriter, r *http.Request) error {
	addr, err := auth.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		return apperrors.BadRequestError(err, "invalid address")
	}

	resp, err := h.service.GetUser(r.Context(), addr)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}

func dayParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(treasury.DateLayout, raw)
	if err != nil {
		return time.Time{}, apperrors.BadRequestError(err, name+" must be a date formatted as YYYY-MM-DD")
	}
	return t, nil
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
