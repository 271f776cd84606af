package public

import (
	handlershared "github.com/earnko/internal/http/handlers/shared"
	"github.com/earnko/internal/http/response"
	"github.com/earnko/internal/service"

	"github.com/gin-gonic/gin"
)

var webhookErrorRules = []handlershared.MappedError{
	{Target: service.ErrInvalidPostbackBody, Code: response.CodeBadRequest, Message: "invalid postback body"},
	{Target: service.ErrMissingClickID, Code: response.CodeBadRequest, Message: "missing click id"},
	{Target: service.ErrMissingOrderID, Code: response.CodeBadRequest, Message: "missing order id"},
	{Target: service.ErrClickNotFound, Code: response.CodeUnknownClickID, Message: "unknown click id"},
	{Target: service.ErrUnsupportedNetwork, Code: response.CodeUnsupportedNetwork, Message: "unsupported network"},
	{Target: service.ErrUnsupportedTransition, Code: response.CodeInvalidTransition},
	{Target: service.ErrClickLinkConflict, Code: response.CodeConflict},
}

// 回调的意外错误需要把原因带回给网络方
func respondWebhookError(c *gin.Context, err error) {
	handlershared.RespondMappedError(c, err, webhookErrorRules, response.CodeInternal, err.Error())
}

// 链接签发错误：错误码来自 service.LinkErrorCode，审批类错误附带建议
func respondLinkError(c *gin.Context, err error) {
	code := service.LinkErrorCode(err)
	handlershared.RespondErrorWithData(c, code, err.Error(), service.ApprovalData(err), err)
}
