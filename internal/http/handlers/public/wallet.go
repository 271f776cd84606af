package public

import (
	"errors"

	"github.com/earnko/internal/http/response"
	"github.com/earnko/internal/service"

	"github.com/gin-gonic/gin"
)

// GetMyWallet 当前用户钱包余额
func (h *Handler) GetMyWallet(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	wallet, err := h.WalletService.GetWallet(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, response.CodeNotFound, "user not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "get wallet failed", err)
		return
	}
	response.Success(c, wallet)
}
