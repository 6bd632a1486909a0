package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dompet/internal/logger"
	"dompet/internal/services"
)

// ReconcileHandler exposes drift detection and repair for derived balances.
type ReconcileHandler struct {
	reconcileService services.ReconcileServicer
	auditService     services.AuditServicer
}

// NewReconcileHandler creates a new ReconcileHandler.
func NewReconcileHandler(reconcileService services.ReconcileServicer, auditService services.AuditServicer) *ReconcileHandler {
	return &ReconcileHandler{reconcileService: reconcileService, auditService: auditService}
}

// ReconcileAccount handles recomputing an account balance from its transactions.
// @Summary     Reconcile account balance
// @Tags        reconcile
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Account ID"
// @Success     200 {object} services.ReconcileResult "Stored vs computed balance"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id}/reconcile [post]
func (h *ReconcileHandler) ReconcileAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.reconcileService.ReconcileAccount(userID, accountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if result.Corrected {
		h.auditService.Log(userID, "RECONCILE_ACCOUNT", "account", accountID, c.ClientIP(),
			map[string]any{"stored": result.Stored, "computed": result.Computed})
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// ReconcileBudget handles recomputing a budget's spent amount.
// @Summary     Reconcile budget spending
// @Tags        reconcile
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} services.ReconcileResult "Stored vs computed spending"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id}/reconcile [post]
func (h *ReconcileHandler) ReconcileBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.reconcileService.ReconcileBudget(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if result.Corrected {
		h.auditService.Log(userID, "RECONCILE_BUDGET", "budget", budgetID, c.ClientIP(),
			map[string]any{"stored": result.Stored, "computed": result.Computed})
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// ReconcileAll handles a system-wide reconciliation run.
// @Summary     Reconcile all ledgers
// @Description Checks every account, budget and project item. Protected by API key.
// @Tags        maintenance
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {object} services.ReconcileSummary "Entities checked and drift found"
// @Failure     401 {object} ErrorResponse "Invalid or missing API key"
// @Failure     503 {object} ErrorResponse "Maintenance not configured"
// @Router      /maintenance/reconcile [post]
func (h *ReconcileHandler) ReconcileAll(c *gin.Context) {
	summary, err := h.reconcileService.ReconcileAll()
	if err != nil {
		respondWithError(c, err)
		return
	}

	logger.Get().Infow("reconciliation run finished",
		"checked", summary.Checked,
		"drifted", len(summary.Drifted),
	)

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
