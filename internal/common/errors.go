package common

import (
	"errors"
	"net/http"

	"github.com/noah-isme/basket-engine/internal/discount"
	"github.com/noah-isme/basket-engine/internal/fixture"
	"github.com/noah-isme/basket-engine/internal/graph"
	"github.com/noah-isme/basket-engine/internal/money"
	"github.com/noah-isme/basket-engine/internal/promotion"
	"github.com/noah-isme/basket-engine/internal/solver"
)

// CodeFor maps an engine error onto a stable API error code and HTTP status.
// Recognised configuration and input errors are the caller's fault (4xx);
// solver failures and any unrecognised error are 5xx.
func CodeFor(err error) (code string, status int) {
	switch {
	case errors.Is(err, money.ErrInvalidCurrency):
		return "invalid_currency", http.StatusBadRequest
	case errors.Is(err, money.ErrCurrencyMismatch):
		return "currency_mismatch", http.StatusBadRequest
	case errors.Is(err, money.ErrInvalidPercentage), errors.Is(err, money.ErrPercentageOutOfRange):
		return "invalid_percentage", http.StatusBadRequest
	case errors.Is(err, money.ErrInvalidAmount):
		return "invalid_amount", http.StatusBadRequest
	case errors.Is(err, discount.ErrInvalidDiscount):
		return "invalid_discount", http.StatusBadRequest
	case errors.Is(err, promotion.ErrInvalidPromotion):
		return "invalid_promotion", http.StatusBadRequest
	case errors.Is(err, graph.ErrInvalidStack):
		return "invalid_stack", http.StatusBadRequest
	case errors.Is(err, graph.ErrNoItems):
		return "empty_basket", http.StatusBadRequest
	case errors.Is(err, fixture.ErrInvalidFixture):
		return "invalid_fixture", http.StatusBadRequest
	case errors.Is(err, solver.ErrSolver):
		return "solver_error", http.StatusInternalServerError
	default:
		return "internal_error", http.StatusInternalServerError
	}
}
