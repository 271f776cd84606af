package admin

import (
	handlershared "github.com/earnko/internal/http/handlers/shared"
	"github.com/earnko/internal/http/response"
	"github.com/earnko/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

var catalogErrorRules = []handlershared.MappedError{
	{Target: service.ErrBadRequest, Code: response.CodeBadRequest},
	{Target: service.ErrInvalidURL, Code: response.CodeBadRequest},
	{Target: service.ErrInvalidRule, Code: response.CodeBadRequest},
	{Target: service.ErrStoreNotFound, Code: response.CodeNotFound, Message: "store not found"},
	{Target: service.ErrProductNotFound, Code: response.CodeNotFound, Message: "product not found"},
	{Target: service.ErrRuleNotFound, Code: response.CodeNotFound, Message: "commission rule not found"},
	{Target: service.ErrRuleConflict, Code: response.CodeConflict},
	{Target: service.ErrProviderUnsupported, Code: response.CodeProviderUnsupported},
}

var transactionErrorRules = []handlershared.MappedError{
	{Target: service.ErrInvalidStatus, Code: response.CodeBadRequest},
	{Target: service.ErrTransactionNotFound, Code: response.CodeNotFound, Message: "transaction not found"},
	{Target: service.ErrUnsupportedTransition, Code: response.CodeInvalidTransition},
}

var settingErrorRules = []handlershared.MappedError{
	{Target: service.ErrInvalidReferralBonus, Code: response.CodeBadRequest},
	{Target: service.ErrBadRequest, Code: response.CodeBadRequest},
	{Target: service.ErrNotFound, Code: response.CodeNotFound, Message: "setting not found"},
}

func respondCatalogError(c *gin.Context, err error, fallbackMsg string) {
	handlershared.RespondMappedError(c, err, catalogErrorRules, response.CodeInternal, fallbackMsg)
}

func respondTransactionError(c *gin.Context, err error, fallbackMsg string) {
	handlershared.RespondMappedError(c, err, transactionErrorRules, response.CodeInternal, fallbackMsg)
}

func respondSettingError(c *gin.Context, err error, fallbackMsg string) {
	handlershared.RespondMappedError(c, err, settingErrorRules, response.CodeInternal, fallbackMsg)
}
