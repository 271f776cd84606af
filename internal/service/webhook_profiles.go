package service

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/earnko/internal/constants"
	"github.com/earnko/internal/models"

	"github.com/shopspring/decimal"
)

// PostbackProfile 各网络回传字段别名表，按顺序取第一个非空值
type PostbackProfile struct {
	Network         string
	ClickKeys       []string
	OrderKeys       []string
	SaleKeys        []string
	CommissionKeys  []string
	StatusKeys      []string
	CurrencyKeys    []string
	CampaignKeys    []string
	DefaultCurrency string
}

var trackierProfile = PostbackProfile{
	ClickKeys:       []string{"p1", "click_id", "clickid", "cid", "click"},
	OrderKeys:       []string{"txn_id", "txnid", "transaction_id", "order_id", "orderid", "oid"},
	SaleKeys:        []string{"sale_amount", "conv_revenue", "amount", "original_sale_amount"},
	CommissionKeys:  []string{"payout", "commission", "earnings"},
	StatusKeys:      []string{"conversion_status", "status"},
	CurrencyKeys:    []string{"currency", "conv_rp_currency", "original_sale_currency"},
	CampaignKeys:    []string{"campaign_id", "camp_id"},
	DefaultCurrency: "INR",
}

var postbackProfiles = map[string]PostbackProfile{
	constants.NetworkCuelinks: {
		Network:         constants.NetworkCuelinks,
		ClickKeys:       []string{"subid", "sub_id", "sid"},
		OrderKeys:       []string{"order_id", "orderid", "oid"},
		SaleKeys:        []string{"sale_amount", "amount", "order_amount"},
		CommissionKeys:  []string{"commission", "payout", "earnings"},
		StatusKeys:      []string{"status"},
		CurrencyKeys:    []string{"currency"},
		DefaultCurrency: "INR",
	},
	constants.NetworkTrackier:    withNetwork(trackierProfile, constants.NetworkTrackier),
	constants.NetworkVcommission: withNetwork(trackierProfile, constants.NetworkVcommission),
	constants.NetworkExtrape: {
		Network:         constants.NetworkExtrape,
		ClickKeys:       []string{"subid", "sub_id", "sid", "click_id", "clickid", "affExtParam2"},
		OrderKeys:       []string{"order_id", "orderid", "oid", "transaction_id", "txn_id", "txnid", "sale_id"},
		SaleKeys:        []string{"sale_amount", "amount", "order_amount", "total"},
		CommissionKeys:  []string{"commission", "payout", "earnings", "reward"},
		StatusKeys:      []string{"status", "conversion_status", "state"},
		CurrencyKeys:    []string{"currency", "curr"},
		DefaultCurrency: "INR",
	},
	constants.NetworkRealcash: {
		Network:         constants.NetworkRealcash,
		ClickKeys:       []string{"click_id", "clickid", "subid", "sub_id", "subid1", "subid2"},
		OrderKeys:       []string{"order_id", "orderid", "transaction_id", "txn_id", "txnid"},
		SaleKeys:        []string{"order_amount", "sale_amount", "amount"},
		CommissionKeys:  []string{"payout", "commission", "earnings"},
		StatusKeys:      []string{"status", "conversion_status", "state"},
		CurrencyKeys:    []string{"order_currency", "currency"},
		DefaultCurrency: "INR",
	},
}

func withNetwork(p PostbackProfile, network string) PostbackProfile {
	p.Network = network
	return p
}

// LookupPostbackProfile 获取网络的别名表
func LookupPostbackProfile(network string) (PostbackProfile, bool) {
	p, ok := postbackProfiles[strings.ToLower(strings.TrimSpace(network))]
	return p, ok
}

var (
	confirmedVocabulary = map[string]struct{}{
		"approved": {}, "confirmed": {}, "valid": {}, "paid": {}, "success": {}, "successful": {},
	}
	cancelledVocabulary = map[string]struct{}{
		"cancelled": {}, "canceled": {}, "rejected": {}, "invalid": {}, "void": {}, "failed": {}, "fraud": {},
	}
)

// MapPostbackStatus 网络状态词汇映射为 pending / confirmed / cancelled，未知值归为 pending
func MapPostbackStatus(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if _, ok := confirmedVocabulary[s]; ok {
		return constants.TransactionStatusConfirmed
	}
	if _, ok := cancelledVocabulary[s]; ok {
		return constants.TransactionStatusCancelled
	}
	return constants.TransactionStatusPending
}

// ParseAdminStatus 管理端状态词汇：approved 视为 confirmed，rejected 视为 cancelled
func ParseAdminStatus(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case constants.TransactionStatusPending:
		return constants.TransactionStatusPending, nil
	case constants.TransactionStatusConfirmed, constants.CommissionStatusApproved:
		return constants.TransactionStatusConfirmed, nil
	case constants.TransactionStatusCancelled, "canceled", constants.CommissionStatusRejected:
		return constants.TransactionStatusCancelled, nil
	case constants.TransactionStatusUnderReview:
		return constants.TransactionStatusUnderReview, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidStatus, raw)
	}
}

// PostbackInput 回传原始输入；BodyErr 非空时 RawBody 保留无法解析的原文
type PostbackInput struct {
	Method  string
	Query   url.Values
	Body    map[string]interface{}
	Headers map[string]string
	RawBody string
	BodyErr error
}

// MergedPayload query 与 body 合并，body 同名字段覆盖 query
func (in PostbackInput) MergedPayload() models.JSON {
	merged := make(models.JSON, len(in.Query)+len(in.Body))
	for k, v := range in.Query {
		if len(v) > 0 {
			merged[k] = v[0]
		}
	}
	for k, v := range in.Body {
		merged[k] = v
	}
	if in.RawBody != "" {
		merged["_raw_body"] = in.RawBody
	}
	return merged
}

// NormalizedPostback 归一化后的回传
type NormalizedPostback struct {
	ClickID    string       `json:"click_id"`
	OrderID    string       `json:"order_id"`
	SaleAmount models.Money `json:"sale_amount"`
	Commission models.Money `json:"commission"`
	RawStatus  string       `json:"raw_status"`
	Status     string       `json:"status"`
	Currency   string       `json:"currency"`
	CampaignID string       `json:"campaign_id,omitempty"`
}

// Normalize 按别名表提取字段；金额解析失败按 0 处理
func (p PostbackProfile) Normalize(payload models.JSON) NormalizedPostback {
	out := NormalizedPostback{
		ClickID:    firstValue(payload, p.ClickKeys),
		OrderID:    firstValue(payload, p.OrderKeys),
		SaleAmount: parseAmount(firstValue(payload, p.SaleKeys)),
		Commission: parseAmount(firstValue(payload, p.CommissionKeys)),
		RawStatus:  firstValue(payload, p.StatusKeys),
		Currency:   strings.ToUpper(firstValue(payload, p.CurrencyKeys)),
		CampaignID: firstValue(payload, p.CampaignKeys),
	}
	out.Status = MapPostbackStatus(out.RawStatus)
	if out.Currency == "" {
		out.Currency = p.DefaultCurrency
	}
	return out
}

func firstValue(payload models.JSON, keys []string) string {
	for _, key := range keys {
		raw, ok := payload[key]
		if !ok || raw == nil {
			continue
		}
		var s string
		switch v := raw.(type) {
		case string:
			s = v
		case float64:
			s = decimal.NewFromFloat(v).String()
		case []interface{}:
			if len(v) > 0 {
				s = fmt.Sprint(v[0])
			}
		default:
			s = fmt.Sprint(v)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func parseAmount(raw string) models.Money {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if raw == "" {
		return models.ZeroMoney()
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return models.ZeroMoney()
	}
	return models.NewMoney(d)
}
