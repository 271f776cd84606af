package public

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/earnko/internal/http/response"
	"github.com/earnko/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	maxPostbackBodyBytes = 1 << 20
	maxRawBodyAuditBytes = 64 << 10
)

// HandleWebhook 联盟网络转化回传，GET 与 POST 同一入口；请求体无法解析时仍落审计事件
func (h *Handler) HandleWebhook(c *gin.Context) {
	input := buildPostbackInput(c)
	result, err := h.WebhookService.Ingest(c.Request.Context(), c.Param("network"), input)
	if err != nil {
		respondWebhookError(c, err)
		return
	}
	response.Success(c, gin.H{
		"order_id":       result.OrderID,
		"status":         result.Status,
		"transaction_id": result.TransactionID,
	})
}

func buildPostbackInput(c *gin.Context) service.PostbackInput {
	input := service.PostbackInput{
		Method:  c.Request.Method,
		Query:   c.Request.URL.Query(),
		Headers: flattenHeaders(c.Request.Header),
	}
	if c.Request.Method == http.MethodGet || c.Request.Body == nil {
		return input
	}
	body, raw, err := readPostbackBody(c)
	if err != nil {
		input.BodyErr = err
		input.RawBody = truncateRawBody(raw)
		return input
	}
	input.Body = body
	return input
}

// readPostbackBody 解析失败时返回已读到的原文
func readPostbackBody(c *gin.Context) (map[string]interface{}, string, error) {
	mediaType, _, _ := mime.ParseMediaType(c.GetHeader("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := c.Request.ParseMultipartForm(maxPostbackBodyBytes); err != nil && err != http.ErrNotMultipart {
			return nil, "", err
		}
		out := make(map[string]interface{}, len(c.Request.PostForm))
		for k, v := range c.Request.PostForm {
			if len(v) > 0 {
				out[k] = v[0]
			}
		}
		return out, "", nil
	default:
		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPostbackBodyBytes))
		if err != nil {
			return nil, string(raw), err
		}
		if len(strings.TrimSpace(string(raw))) == 0 {
			return nil, "", nil
		}
		out := map[string]interface{}{}
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, string(raw), err
		}
		return out, "", nil
	}
}

func truncateRawBody(raw string) string {
	if len(raw) > maxRawBodyAuditBytes {
		return raw[:maxRawBodyAuditBytes]
	}
	return raw
}

func flattenHeaders(header http.Header) map[string]string {
	out := make(map[string]string, len(header))
	for k, v := range header {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}
