package http

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"budgetledger/internal/auth"
	"budgetledger/internal/core"
	"budgetledger/internal/ledger"
	"budgetledger/internal/log"
	"budgetledger/internal/services"
)

type handlers struct {
	svc *services.BudgetService
}

// user is set by requireUser on every /api route.
func user(r *http.Request) core.UserID {
	id, _ := auth.UserFromContext(r.Context())
	return id
}

func (h *handlers) setBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpSetBudget, err)
		return
	}
	if !req.Income.Present || req.Categories == nil {
		writeError(w, r, log.OpSetBudget, errInvalidRequest)
		return
	}

	income, err := req.Income.Strict(core.ErrInvalidIncome)
	if err != nil {
		writeError(w, r, log.OpSetBudget, err)
		return
	}
	var expected decimal.NullDecimal
	if req.ExpectedSavings.Present {
		d, err := req.ExpectedSavings.Strict(core.ErrInvalidAmount)
		if err != nil {
			writeError(w, r, log.OpSetBudget, err)
			return
		}
		expected = decimal.NewNullDecimal(d)
	}

	lines := make([]core.CategoryAmount, 0, len(*req.Categories))
	for _, l := range *req.Categories {
		lines = append(lines, core.CategoryAmount{Category: l.Category, Amount: l.Amount.Coerced()})
	}

	err = h.svc.SetBudget(r.Context(), user(r), services.BudgetRequest{
		Income:          income,
		ExpectedSavings: expected,
		Categories:      lines,
	})
	if err != nil {
		writeError(w, r, log.OpSetBudget, err)
		return
	}
	NewResponse().Status(http.StatusCreated).Message("Budget set successfully").Write(w)
}

func (h *handlers) monthSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.MonthSnapshot(r.Context(), user(r))
	if err != nil {
		writeError(w, r, log.OpSnapshot, err)
		return
	}
	snapshotFields(NewResponse(), snap).Write(w)
}

func (h *handlers) addExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpAddExpense, err)
		return
	}
	amount, err := req.Amount.Strict(core.ErrInvalidExpense)
	if err != nil {
		writeError(w, r, log.OpAddExpense, err)
		return
	}

	res, err := h.svc.AddExpense(r.Context(), user(r), ledger.ExpenseInput{
		Category:    req.Category,
		SubCategory: req.SubCategory,
		Amount:      amount,
		Notes:       req.Notes,
	})
	if err != nil {
		writeError(w, r, log.OpAddExpense, err)
		return
	}
	NewResponse().Message(res.Message).
		Field("adjustedSavings", res.AdjustedSavings).
		Field("total", res.NewTotal).
		Write(w)
}

func (h *handlers) addIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpAddIncome, err)
		return
	}
	amount, err := req.Amount.Strict(core.ErrInvalidIncome)
	if err != nil {
		writeError(w, r, log.OpAddIncome, err)
		return
	}

	res, err := h.svc.AddIncome(r.Context(), user(r), amount, req.Notes)
	if err != nil {
		writeError(w, r, log.OpAddIncome, err)
		return
	}
	NewResponse().Message(res.Message).
		Field("adjustedSavings", res.AdjustedSavings).
		Field("income", res.NewTotal).
		Write(w)
}

func (h *handlers) notifications(w http.ResponseWriter, r *http.Request) {
	feed, err := h.svc.Notifications(r.Context(), user(r))
	if err != nil {
		writeError(w, r, log.OpNotifications, err)
		return
	}
	NewResponse().Field("notifications", notificationViews(feed)).Write(w)
}

func (h *handlers) chart(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.Chart(r.Context(), user(r))
	if err != nil {
		writeError(w, r, log.OpChart, err)
		return
	}
	NewResponse().Field("data", newChartView(data)).Write(w)
}

// summary reads ?month=YYYY-MM or YYYY-MM-DD; absent means the current month.
func (h *handlers) summary(w http.ResponseWriter, r *http.Request) {
	var period core.Period
	if m := strings.TrimSpace(r.URL.Query().Get("month")); m != "" {
		p, err := core.ParsePeriod(m)
		if err != nil {
			writeError(w, r, log.OpSummary, err)
			return
		}
		period = p
	}

	sum, err := h.svc.MonthlySummary(r.Context(), user(r), period)
	if err != nil {
		writeError(w, r, log.OpSummary, err)
		return
	}
	NewResponse().Field("data", newSummaryView(sum)).Write(w)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	NewResponse().Message("ok").Write(w)
}

func (h *handlers) ready(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ping(r.Context()); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
		NewResponse().Fail(http.StatusServiceUnavailable, "not ready").Write(w)
		return
	}
	NewResponse().Message("ready").Write(w)
}
