package admin

import (
	"net/http"
	"strings"
	"time"

	handlershared "github.com/earnko/internal/http/handlers/shared"
	"github.com/earnko/internal/http/response"
	"github.com/earnko/internal/repository"

	"github.com/gin-gonic/gin"
)

// UpdateTransactionStatusRequest 改状态请求，接受 approved/rejected 等后台用语
type UpdateTransactionStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListTransactions 交易列表
func (h *Handler) ListTransactions(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	filter := repository.TransactionListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   handlershared.ParseQueryUint(c, "user_id"),
		Network:  strings.ToLower(strings.TrimSpace(c.Query("network"))),
		Status:   strings.ToLower(strings.TrimSpace(c.Query("status"))),
		OrderID:  strings.TrimSpace(c.Query("order_id")),
	}
	if from, ok := parseQueryTime(c, "created_from"); ok {
		filter.CreatedFrom = &from
	}
	if to, ok := parseQueryTime(c, "created_to"); ok {
		filter.CreatedTo = &to
	}
	items, total, err := h.WebhookService.ListTransactions(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "list transactions failed", err)
		return
	}
	response.SuccessWithPage(c, items, response.BuildPagination(page, pageSize, total))
}

// UpdateTransactionStatus 人工改交易状态，走与回传相同的钱包与佣金迁移
func (h *Handler) UpdateTransactionStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req UpdateTransactionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "status is required", nil)
		return
	}
	txn, err := h.WebhookService.UpdateTransactionStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondTransactionError(c, err, "update transaction status failed")
		return
	}
	if adminID, exists := c.Get("admin_id"); exists {
		requestLog(c).Infow("admin_transaction_status_changed", "admin_id", adminID, "transaction_id", id, "status", txn.Status)
	}
	response.Success(c, txn)
}

// ProcessCommission 补算佣金；async=true 且队列可用时入队
func (h *Handler) ProcessCommission(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if c.Query("async") == "true" && h.QueueClient.Enabled() {
		if err := h.QueueClient.EnqueueCommissionProcess(id, 0); err != nil {
			respondError(c, response.CodeInternal, "enqueue commission task failed", err)
			return
		}
		response.SuccessWithStatus(c, http.StatusAccepted, gin.H{"transaction_id": id, "queued": true})
		return
	}
	commission, err := h.CommissionService.ProcessTransaction(c.Request.Context(), id)
	if err != nil {
		respondTransactionError(c, err, "process commission failed")
		return
	}
	response.Success(c, gin.H{"transaction_id": id, "commission": commission})
}

func parseQueryTime(c *gin.Context, name string) (time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}
