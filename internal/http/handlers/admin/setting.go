package admin

import (
	"strings"

	"github.com/earnko/internal/constants"
	"github.com/earnko/internal/http/response"

	"github.com/gin-gonic/gin"
)

var editableSettingKeys = map[string]struct{}{
	constants.SettingKeyReferralBonus: {},
}

func settingKey(c *gin.Context) (string, bool) {
	key := strings.TrimSpace(c.Param("key"))
	if _, ok := editableSettingKeys[key]; !ok {
		respondError(c, response.CodeNotFound, "setting not found", nil)
		return "", false
	}
	return key, true
}

// GetSetting 读取设置；邀请奖励未配置时返回生效中的默认值
func (h *Handler) GetSetting(c *gin.Context) {
	key, ok := settingKey(c)
	if !ok {
		return
	}
	value, err := h.SettingService.GetByKey(key)
	if err != nil {
		respondSettingError(c, err, "get setting failed")
		return
	}
	if value == nil && key == constants.SettingKeyReferralBonus {
		bonus, err := h.SettingService.GetReferralBonus(h.Config.Referral)
		if err != nil {
			respondSettingError(c, err, "get setting failed")
			return
		}
		response.Success(c, gin.H{"key": key, "value": bonus, "default": true})
		return
	}
	response.Success(c, gin.H{"key": key, "value": value, "default": false})
}

// UpdateSetting 写入设置
func (h *Handler) UpdateSetting(c *gin.Context) {
	key, ok := settingKey(c)
	if !ok {
		return
	}
	var req map[string]interface{}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", nil)
		return
	}
	value, err := h.SettingService.Update(key, req)
	if err != nil {
		respondSettingError(c, err, "update setting failed")
		return
	}
	response.Success(c, gin.H{"key": key, "value": value, "default": false})
}
