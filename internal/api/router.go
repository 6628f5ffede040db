package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"

	"github.com/paynet/nexus-liquidity/internal/api/httpx"
	"github.com/paynet/nexus-liquidity/internal/api/validate"
	"github.com/paynet/nexus-liquidity/internal/config"
	"github.com/paynet/nexus-liquidity/internal/health"
	"github.com/paynet/nexus-liquidity/internal/ledger"
	"github.com/paynet/nexus-liquidity/internal/metrics"
	"github.com/paynet/nexus-liquidity/internal/middleware"
)

type checkResponse struct {
	Approved         bool   `json:"approved"`
	AvailableBalance string `json:"available_balance"`
	ErrorCode        string `json:"error_code"`
	ErrorMessage     string `json:"error_message"`
}

type creditResponse struct {
	Success    bool   `json:"success"`
	NewBalance string `json:"new_balance"`
	StatusCode string `json:"status_code"`
	Message    string `json:"message"`
}

type balanceEntry struct {
	BankID   string `json:"bank_id"`
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
}

func NewRouter(cfg config.Config, eng *ledger.Engine, hs *health.State) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics, middleware.RateLimit(cfg.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	// health & metrics
	r.Get("/health", health.LivenessHandler(hs))
	r.Get("/ready", health.ReadinessHandler(hs))
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1/liquidity", func(r chi.Router) {
		// ---------- check (atomic debit-if-sufficient) ----------
		r.Post("/check", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				BankID            string          `json:"bank_id"`
				TransactionAmount decimal.Decimal `json:"transaction_amount"`
				Currency          string          `json:"currency"`
			}
			if err := httpx.DecodeJSON(r, &req); err != nil {
				httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
				return
			}
			var errs validate.Errs
			if e := validate.Required("bank_id", req.BankID); e != nil {
				errs = append(errs, *e)
			}
			if e := validate.PositiveAmount("transaction_amount", req.TransactionAmount); e != nil {
				errs = append(errs, *e)
			}
			if len(errs) > 0 {
				httpx.WriteError(w, http.StatusBadRequest, "validation", errs.Error(), errs)
				return
			}

			start := time.Now()
			d := eng.CheckLiquidity(req.BankID, req.TransactionAmount, req.Currency)
			slog.Info("liquidity check",
				"bank", req.BankID,
				"amount", req.TransactionAmount.StringFixed(2),
				"approved", d.Approved,
				"code", d.Code,
				"latency_ms", float64(time.Since(start).Microseconds())/1000,
			)
			httpx.WriteJSON(w, http.StatusOK, checkResponse{
				Approved:         d.Approved,
				AvailableBalance: d.Balance.StringFixed(2),
				ErrorCode:        d.Code,
				ErrorMessage:     d.Message,
			})
		})

		// ---------- credit ----------
		r.Post("/credit", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				BankID   string          `json:"bank_id"`
				Amount   decimal.Decimal `json:"amount"`
				Currency string          `json:"currency"`
			}
			if err := httpx.DecodeJSON(r, &req); err != nil {
				httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
				return
			}
			var errs validate.Errs
			if e := validate.Required("bank_id", req.BankID); e != nil {
				errs = append(errs, *e)
			}
			if e := validate.PositiveAmount("amount", req.Amount); e != nil {
				errs = append(errs, *e)
			}
			if len(errs) > 0 {
				httpx.WriteError(w, http.StatusBadRequest, "validation", errs.Error(), errs)
				return
			}

			start := time.Now()
			res := eng.CreditBank(req.BankID, req.Amount, req.Currency)
			slog.Info("credit bank",
				"bank", req.BankID,
				"amount", req.Amount.StringFixed(2),
				"success", res.Success,
				"latency_ms", float64(time.Since(start).Microseconds())/1000,
			)
			httpx.WriteJSON(w, http.StatusOK, creditResponse{
				Success:    res.Success,
				NewBalance: res.NewBalance.StringFixed(2),
				StatusCode: res.Code,
				Message:    res.Message,
			})
		})

		// ---------- balances ----------
		r.Get("/balances", func(w http.ResponseWriter, r *http.Request) {
			all := eng.GetAllBalances()
			out := make([]balanceEntry, 0, len(all))
			for _, b := range all {
				out = append(out, balanceEntry{
					BankID:   b.BankID,
					Balance:  b.Balance.StringFixed(2),
					Currency: b.Currency,
				})
			}
			httpx.WriteJSON(w, http.StatusOK, map[string]any{"balances": out})
		})

		// ---------- transaction count ----------
		r.Get("/transactions/count", func(w http.ResponseWriter, r *http.Request) {
			bankID := r.URL.Query().Get("bank_id")
			httpx.WriteJSON(w, http.StatusOK, map[string]any{
				"bank_id": bankID,
				"count":   eng.GetTransactionCount(bankID),
			})
		})
	})

	return r
}
