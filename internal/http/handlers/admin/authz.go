package admin

import (
	"github.com/earnko/internal/authz"
	"github.com/earnko/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetMyPermissions 当前管理员的角色及继承后的全部策略
func (h *Handler) GetMyPermissions(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	roles, err := h.AuthzService.GetAdminRoles(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "load roles failed", err)
		return
	}
	policies, err := h.AuthzService.EffectivePermissions(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "load policies failed", err)
		return
	}
	response.Success(c, gin.H{
		"admin_id": adminID,
		"roles":    roles,
		"policies": policies,
	})
}

// ListBuiltinRoles 预置角色矩阵
func (h *Handler) ListBuiltinRoles(c *gin.Context) {
	response.Success(c, authz.BuiltinRoleSeeds())
}
