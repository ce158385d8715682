package handler

import (
	"net/http"

	"github.com/dafibh/casa/casa-backend/internal/domain"
	"github.com/dafibh/casa/casa-backend/internal/middleware"
	"github.com/dafibh/casa/casa-backend/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// DashboardHandler handles dashboard-related HTTP requests
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// TotalsResponse represents the totals of one item kind for a month
type TotalsResponse struct {
	Sum        string `json:"sum"`
	PaidSum    string `json:"paidSum"`
	PendingSum string `json:"pendingSum"`
	PaidCount  int    `json:"paidCount"`
	TotalCount int    `json:"totalCount"`
}

// PersonShareResponse represents what one person owes for the month
type PersonShareResponse struct {
	PersonID string `json:"personId"`
	Name     string `json:"name"`
	Amount   string `json:"amount"`
	Orphan   bool   `json:"orphan"`
}

// DashboardSummaryResponse represents the monthly dashboard
type DashboardSummaryResponse struct {
	Month              string                `json:"month"`
	MonthlyIncome      string                `json:"monthlyIncome"`
	Expenses           TotalsResponse        `json:"expenses"`
	Receivables        TotalsResponse        `json:"receivables"`
	ProjectedBalance   string                `json:"projectedBalance"`
	IsNegative         bool                  `json:"isNegative"`
	IsHistorical       bool                  `json:"isHistorical"`
	PendingExpenses    []ExpenseResponse     `json:"pendingExpenses"`
	PendingReceivables []ReceivableResponse  `json:"pendingReceivables"`
	Shares             []PersonShareResponse `json:"shares"`
}

// GetSummary godoc
// @Summary Get the monthly dashboard
// @Description Totals, projected balance, pending items and per-person shares for a month. Defaults to the current month.
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Param month query string false "Month (YYYY-MM)"
// @Success 200 {object} DashboardSummaryResponse
// @Failure 400 {object} ProblemDetails
// @Router /dashboard/summary [get]
func (h *DashboardHandler) GetSummary(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	month, err := parseMonthParam(c)
	if err != nil {
		return handleServiceError(c, err, ownerID, "get dashboard summary")
	}

	var summary *domain.MonthlySummary
	if month != nil {
		summary, err = h.dashboardService.GetSummaryForMonth(c.Request().Context(), ownerID, *month)
	} else {
		summary, err = h.dashboardService.GetSummary(c.Request().Context(), ownerID)
	}
	if err != nil {
		return handleServiceError(c, err, ownerID, "get dashboard summary")
	}

	return c.JSON(http.StatusOK, toDashboardSummaryResponse(summary))
}

func toTotalsResponse(t domain.Totals) TotalsResponse {
	return TotalsResponse{
		Sum:        domain.FormatMoney(t.Sum),
		PaidSum:    domain.FormatMoney(t.PaidSum),
		PendingSum: domain.FormatMoney(t.PendingSum),
		PaidCount:  t.PaidCount,
		TotalCount: t.TotalCount,
	}
}

func toDashboardSummaryResponse(s *domain.MonthlySummary) DashboardSummaryResponse {
	response := DashboardSummaryResponse{
		Month:              s.Month.String(),
		MonthlyIncome:      domain.FormatMoney(s.MonthlyIncome),
		Expenses:           toTotalsResponse(s.Expenses),
		Receivables:        toTotalsResponse(s.Receivables),
		ProjectedBalance:   domain.FormatMoney(s.ProjectedBalance),
		IsNegative:         s.IsNegative(),
		IsHistorical:       s.IsHistorical,
		PendingExpenses:    make([]ExpenseResponse, len(s.PendingExpenses)),
		PendingReceivables: make([]ReceivableResponse, len(s.PendingReceivables)),
		Shares:             make([]PersonShareResponse, len(s.Shares)),
	}
	for i, e := range s.PendingExpenses {
		response.PendingExpenses[i] = toExpenseResponse(e)
	}
	for i, r := range s.PendingReceivables {
		response.PendingReceivables[i] = toReceivableResponse(r)
	}
	for i, share := range s.Shares {
		response.Shares[i] = PersonShareResponse{
			PersonID: share.PersonID,
			Name:     share.Name,
			Amount:   domain.FormatMoney(share.Amount),
			Orphan:   share.Orphan,
		}
	}
	return response
}
