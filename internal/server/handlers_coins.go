package server

import (
	"encoding/json"
	"net/http"

	"github.com/oatmeal/resume-builder/internal/quota"
	"github.com/oatmeal/resume-builder/internal/server/middleware"
	"github.com/oatmeal/resume-builder/internal/types"
)

// handleCoinBalance returns the authenticated user's coin balance, creating
// the account's record on first use.
func (s *Server) handleCoinBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, ReasonUnauthorized, "Unauthorized")
		return
	}

	rec, err := s.coins.Balance(r.Context(), userID.String())
	if err != nil {
		s.errorResponse(w, http.StatusServiceUnavailable, ReasonServiceUnavailable, "Failed to load coin balance")
		return
	}

	s.jsonResponse(w, http.StatusOK, types.BalanceResponse{
		Coins:   rec.Balance,
		Limit:   s.coins.Allotment(),
		ResetAt: rec.ResetAt,
	})
}

// handleCoinCheck answers whether the user can currently afford a feature.
// Advisory only: a true answer reserves nothing, and store trouble reports
// the feature as available rather than blocking the user.
func (s *Server) handleCoinCheck(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, ReasonUnauthorized, "Unauthorized")
		return
	}

	var req types.CheckCoinsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, ReasonValidation, "Invalid request body")
		return
	}

	result, err := s.coins.Check(r.Context(), userID.String(), quota.Feature(req.Feature))
	if err != nil {
		// Unknown feature; store errors are absorbed by Check itself.
		s.errorResponse(w, http.StatusBadRequest, ReasonValidation, err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, types.CheckCoinsResponse{
		Allowed:  result.Allowed,
		Coins:    result.Balance,
		Required: result.Required,
		Limit:    result.Limit,
		ResetAt:  result.ResetAt,
	})
}

// handleCoinDeduct spends coins for one feature use. This is the
// authoritative decision point; the response says what actually happened.
func (s *Server) handleCoinDeduct(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, ReasonUnauthorized, "Unauthorized")
		return
	}

	var req types.DeductCoinsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, ReasonValidation, "Invalid request body")
		return
	}

	result, err := s.coins.Consume(r.Context(), userID.String(), quota.Feature(req.Feature))
	if err != nil {
		if _, ok := err.(*quota.ErrUnknownFeature); ok {
			s.errorResponse(w, http.StatusBadRequest, ReasonValidation, err.Error())
			return
		}
		s.errorResponse(w, http.StatusServiceUnavailable, ReasonServiceUnavailable, "Failed to deduct coins")
		return
	}

	resp := types.DeductCoinsResponse{
		Success: result.Success,
		Coins:   result.Balance,
		ResetAt: result.ResetAt,
		Message: result.Message,
	}
	if !result.Success {
		// Refused, not failed: the body carries the balance and reset
		// time so clients can show when coins come back.
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":    result.Message,
			"reason":   ReasonInsufficientCoins,
			"coins":    result.Balance,
			"reset_at": result.ResetAt,
		})
		return
	}

	s.jsonResponse(w, http.StatusOK, resp)
}

// handleCoinCredit is the admin top-up endpoint, gated by X-API-Key.
func (s *Server) handleCoinCredit(w http.ResponseWriter, r *http.Request) {
	if s.adminAPIKey == "" || r.Header.Get("X-API-Key") != s.adminAPIKey {
		s.errorResponse(w, http.StatusUnauthorized, ReasonUnauthorized, "Unauthorized")
		return
	}

	var req types.CreditCoinsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, ReasonValidation, "Invalid request body")
		return
	}
	if req.UserID == "" || req.Amount < 1 {
		s.errorResponse(w, http.StatusBadRequest, ReasonValidation, "user_id and a positive amount are required")
		return
	}

	rec, err := s.coins.Credit(r.Context(), req.UserID, req.Amount)
	if err != nil {
		s.errorResponse(w, http.StatusServiceUnavailable, ReasonServiceUnavailable, "Failed to credit coins")
		return
	}

	s.jsonResponse(w, http.StatusOK, types.BalanceResponse{
		Coins:   rec.Balance,
		Limit:   s.coins.Allotment(),
		ResetAt: rec.ResetAt,
	})
}
