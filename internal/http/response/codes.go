package response

import "net/http"

// 对外错误码，调用方按 code 分支而不是解析 message
const (
	CodeBadRequest          = "bad_request"
	CodeUnauthorized        = "unauthorized"
	CodeForbidden           = "forbidden"
	CodeNotFound            = "not_found"
	CodeConflict            = "conflict"
	CodeTooManyRequests     = "rate_limited"
	CodeInternal            = "internal_error"
	CodeMissingCampaignID   = "missing_campaign_id"
	CodeMissingAccountID    = "missing_account_id"
	CodeInvalidCredentials  = "invalid_credentials"
	CodeApprovalRequired    = "approval_required"
	CodeNoDeeplinkReturned  = "no_deeplink_returned"
	CodeProviderFailed      = "provider_failed"
	CodeProviderUnsupported = "provider_unsupported"
	CodeStoreInactive       = "store_inactive"
	CodeUnknownClickID      = "unknown_click_id"
	CodeUnsupportedNetwork  = "unsupported_network"
	CodeInvalidTransition   = "unsupported_transition"
)

var codeStatus = map[string]int{
	CodeBadRequest:          http.StatusBadRequest,
	CodeUnauthorized:        http.StatusUnauthorized,
	CodeForbidden:           http.StatusForbidden,
	CodeNotFound:            http.StatusNotFound,
	CodeConflict:            http.StatusConflict,
	CodeTooManyRequests:     http.StatusTooManyRequests,
	CodeInternal:            http.StatusInternalServerError,
	CodeMissingCampaignID:   http.StatusUnprocessableEntity,
	CodeMissingAccountID:    http.StatusUnprocessableEntity,
	CodeInvalidCredentials:  http.StatusUnauthorized,
	CodeApprovalRequired:    http.StatusConflict,
	CodeNoDeeplinkReturned:  http.StatusBadGateway,
	CodeProviderFailed:      http.StatusBadGateway,
	CodeProviderUnsupported: http.StatusUnprocessableEntity,
	CodeStoreInactive:       http.StatusBadRequest,
	CodeUnknownClickID:      http.StatusNotFound,
	CodeUnsupportedNetwork:  http.StatusNotFound,
	CodeInvalidTransition:   http.StatusConflict,
}

// StatusForCode 错误码对应的 HTTP 状态，未知错误码按 500 处理
func StatusForCode(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
