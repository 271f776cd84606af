package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/earnko/internal/constants"
	"github.com/earnko/internal/logger"
	"github.com/earnko/internal/models"
	"github.com/earnko/internal/notify"
	"github.com/earnko/internal/repository"

	"gorm.io/gorm"
)

// 回调错误原因，写入 webhook_events.error
const (
	WebhookErrorUnsupportedNetwork    = "unsupported_network"
	WebhookErrorBodyParse             = "body_parse_error"
	WebhookErrorMissingClickID        = "missing_click_id"
	WebhookErrorMissingOrderID        = "missing_order_id"
	WebhookErrorUnknownClickID        = "unknown_click_id"
	WebhookErrorUnsupportedTransition = "unsupported_transition"
	WebhookErrorStaleReceived         = "stale_received"
)

var redactedHeaders = map[string]struct{}{
	"authorization": {},
	"cookie":        {},
	"x-api-key":     {},
}

var errRetryUpsert = errors.New("retry transaction upsert")

// WebhookService 联盟回传入库状态机
type WebhookService struct {
	eventRepo   repository.WebhookEventRepository
	txRepo      repository.TransactionRepository
	clicks      *ClickService
	commissions *CommissionService
	wallet      *WalletService
	referrals   *ReferralService
	notifier    notify.Notifier
}

// NewWebhookService 创建回传服务
func NewWebhookService(
	eventRepo repository.WebhookEventRepository,
	txRepo repository.TransactionRepository,
	clicks *ClickService,
	commissions *CommissionService,
	wallet *WalletService,
	referrals *ReferralService,
	notifier notify.Notifier,
) *WebhookService {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &WebhookService{
		eventRepo:   eventRepo,
		txRepo:      txRepo,
		clicks:      clicks,
		commissions: commissions,
		wallet:      wallet,
		referrals:   referrals,
		notifier:    notifier,
	}
}

// IngestResult 单次回传的处理结果
type IngestResult struct {
	EventID          uint         `json:"event_id"`
	TransactionID    uint         `json:"transaction_id"`
	OrderID          string       `json:"order_id"`
	OrderKey         string       `json:"order_key"`
	Status           string       `json:"status"`
	PreviousStatus   string       `json:"previous_status,omitempty"`
	CommissionAmount models.Money `json:"commission_amount"`
	Created          bool         `json:"created"`
}

// OrderKey 网络命名空间订单号
func OrderKey(network, orderID string) string {
	return network + ":" + orderID
}

// RedactHeaders 去掉凭据类请求头
func RedactHeaders(headers map[string]string) models.JSON {
	out := make(models.JSON, len(headers))
	for k, v := range headers {
		if _, ok := redactedHeaders[strings.ToLower(k)]; ok {
			out[k] = "[redacted]"
			continue
		}
		out[k] = v
	}
	return out
}

// Ingest 处理一次回传：先落审计事件，再校验、归因、幂等入账
func (s *WebhookService) Ingest(ctx context.Context, network string, input PostbackInput) (*IngestResult, error) {
	network = strings.ToLower(strings.TrimSpace(network))
	payload := input.MergedPayload()
	event := &models.WebhookEvent{
		Source:    network,
		EventType: constants.WebhookEventTypeConversion,
		Method:    strings.ToUpper(input.Method),
		Headers:   RedactHeaders(input.Headers),
		Payload:   payload,
		Status:    constants.WebhookEventStatusReceived,
	}
	if err := s.eventRepo.Create(event); err != nil {
		logger.Errorw("webhook_event_persist_failed", "network", network, "error", err)
		return nil, err
	}
	result := &IngestResult{EventID: event.ID}

	if input.BodyErr != nil {
		logger.Warnw("webhook_body_parse_failed", "network", network, "event_id", event.ID, "error", input.BodyErr)
		s.markError(event.ID, WebhookErrorBodyParse)
		return result, fmt.Errorf("%w: %v", ErrInvalidPostbackBody, input.BodyErr)
	}
	profile, ok := LookupPostbackProfile(network)
	if !ok {
		s.markError(event.ID, WebhookErrorUnsupportedNetwork)
		return result, fmt.Errorf("%w: %s", ErrUnsupportedNetwork, network)
	}
	postback := profile.Normalize(payload)
	result.OrderID = postback.OrderID
	result.Status = postback.Status
	if postback.ClickID == "" {
		s.markError(event.ID, WebhookErrorMissingClickID)
		return result, ErrMissingClickID
	}
	if postback.OrderID == "" {
		s.markError(event.ID, WebhookErrorMissingOrderID)
		return result, ErrMissingOrderID
	}

	attr, err := s.clicks.ResolveByClickID(postback.ClickID)
	if err != nil {
		if errors.Is(err, ErrClickNotFound) {
			// 自然流量或伪造回传，不告警
			logger.Infow("webhook_unknown_click", "network", network, "click_id", postback.ClickID, "order_id", postback.OrderID)
			s.markError(event.ID, WebhookErrorUnknownClickID)
			return result, err
		}
		s.markError(event.ID, err.Error())
		return result, err
	}

	orderKey := OrderKey(network, postback.OrderID)
	result.OrderKey = orderKey
	var outcome *upsertOutcome
	for attempt := 0; attempt < 2; attempt++ {
		outcome, err = s.upsert(network, orderKey, postback, attr)
		if !errors.Is(err, errRetryUpsert) {
			break
		}
		logger.Infow("webhook_upsert_retry", "order_key", orderKey)
	}
	if err != nil {
		if errors.Is(err, ErrUnsupportedTransition) {
			s.markError(event.ID, WebhookErrorUnsupportedTransition)
			logger.Warnw("webhook_transition_rejected", "order_key", orderKey, "status", postback.Status, "error", err)
			emitEvent(ctx, s.notifier, notify.Event{
				Type:    constants.NotifyEventTransitionRejected,
				Level:   constants.NotifyLevelWarn,
				Message: "unsupported transaction status transition",
				Key:     orderKey,
				Fields: map[string]interface{}{
					"network":    network,
					"order_key":  orderKey,
					"raw_status": postback.RawStatus,
					"status":     postback.Status,
					"error":      err.Error(),
				},
			})
			return result, err
		}
		logger.Errorw("webhook_ingest_failed", "network", network, "order_key", orderKey, "error", err)
		s.markError(event.ID, err.Error())
		return result, err
	}

	txn := outcome.transaction
	result.TransactionID = txn.ID
	result.Status = txn.Status
	result.PreviousStatus = outcome.previousStatus
	result.CommissionAmount = txn.CommissionAmount
	result.Created = outcome.created
	if err := s.eventRepo.MarkProcessed(event.ID, &txn.ID, time.Now()); err != nil {
		logger.Errorw("webhook_event_mark_processed_failed", "event_id", event.ID, "error", err)
	}
	logger.Infow("webhook_ingested",
		"network", network,
		"order_key", orderKey,
		"transaction_id", txn.ID,
		"status", txn.Status,
		"previous_status", outcome.previousStatus,
		"commission", txn.CommissionAmount.String(),
		"created", outcome.created,
	)
	s.notifyOutcome(ctx, outcome)
	return result, nil
}

type upsertOutcome struct {
	transaction    *models.Transaction
	previousStatus string
	previousAmount models.Money
	created        bool
}

// upsert 在同一事务内完成交易写入、钱包增量、佣金同步与邀请奖励
func (s *WebhookService) upsert(network, orderKey string, postback NormalizedPostback, attr *ClickAttribution) (*upsertOutcome, error) {
	var outcome *upsertOutcome
	err := s.txRepo.Transaction(func(db *gorm.DB) error {
		txRepo := s.txRepo.WithTx(db)
		existing, err := txRepo.GetByOrderKeyForUpdate(orderKey)
		if err != nil {
			return err
		}
		if existing == nil {
			created, err := s.createTransaction(db, network, orderKey, postback, attr)
			if err != nil {
				return err
			}
			outcome = created
			return nil
		}
		updated, err := s.updateTransaction(db, existing, postback)
		if err != nil {
			return err
		}
		outcome = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

func (s *WebhookService) createTransaction(db *gorm.DB, network, orderKey string, postback NormalizedPostback, attr *ClickAttribution) (*upsertOutcome, error) {
	txn := &models.Transaction{
		OrderKey:      orderKey,
		OrderID:       postback.OrderID,
		Network:       network,
		UserID:        attr.UserID,
		StoreID:       attr.StoreID,
		ProductID:     attr.ProductID,
		LinkID:        attr.LinkID,
		ClickID:       postback.ClickID,
		CategoryKey:   attr.CategoryKey,
		ProductAmount: postback.SaleAmount,
		Currency:      postback.Currency,
		Status:        postback.Status,
		TrackingData: models.JSON{
			"click_id":    postback.ClickID,
			"provider":    attr.Provider,
			"campaign_id": postback.CampaignID,
			"raw_status":  postback.RawStatus,
		},
		AffiliateData: models.JSON{
			"reported_commission": postback.Commission.String(),
			"reported_sale":       postback.SaleAmount.String(),
		},
	}
	amount, rule, err := s.commissions.reportedCommission(db, txn, postback.Commission)
	if err != nil {
		return nil, err
	}
	txn.CommissionAmount = amount
	txn.AffiliateData["rule"] = rule.Source

	if err := s.txRepo.WithTx(db).Create(txn); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, errRetryUpsert
		}
		return nil, err
	}
	if beneficiary := txn.BeneficiaryID(); beneficiary != nil {
		if err := s.wallet.ApplyNew(db, *beneficiary, txn.Status, txn.CommissionAmount); err != nil {
			return nil, err
		}
	}
	if _, _, err := s.commissions.syncCommission(db, txn, rule); err != nil {
		return nil, err
	}
	if walletStatus(txn.Status) == constants.TransactionStatusConfirmed {
		if err := s.creditReferral(db, txn); err != nil {
			return nil, err
		}
	}
	return &upsertOutcome{transaction: txn, created: true}, nil
}

func (s *WebhookService) updateTransaction(db *gorm.DB, txn *models.Transaction, postback NormalizedPostback) (*upsertOutcome, error) {
	prevStatus := txn.Status
	prevAmount := txn.CommissionAmount
	nextStatus := postback.Status
	// 人工复核中的交易不被网络的 pending 覆盖
	if prevStatus == constants.TransactionStatusUnderReview && nextStatus == constants.TransactionStatusPending {
		nextStatus = prevStatus
	}
	if postback.ClickID != txn.ClickID {
		logger.Warnw("webhook_click_mismatch", "order_key", txn.OrderKey, "stored", txn.ClickID, "incoming", postback.ClickID)
	}

	prevSale := txn.ProductAmount
	txn.ProductAmount = postback.SaleAmount
	amount, rule, err := s.commissions.reportedCommission(db, txn, postback.Commission)
	if err != nil {
		return nil, err
	}
	if err := s.applyChange(db, txn, prevStatus, nextStatus, prevAmount, amount); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if nextStatus != prevStatus {
		fields["status"] = nextStatus
	}
	if !amount.Equal(prevAmount) {
		fields["commission_amount"] = amount
	}
	if !postback.SaleAmount.Equal(prevSale) {
		fields["product_amount"] = postback.SaleAmount
	}
	if err := s.txRepo.WithTx(db).UpdateFields(txn.ID, fields); err != nil {
		return nil, err
	}
	txn.Status = nextStatus
	txn.CommissionAmount = amount

	if _, _, err := s.commissions.syncCommission(db, txn, rule); err != nil {
		return nil, err
	}
	if err := s.cascadeReferral(db, txn, prevStatus, nextStatus); err != nil {
		return nil, err
	}
	return &upsertOutcome{
		transaction:    txn,
		previousStatus: prevStatus,
		previousAmount: prevAmount,
	}, nil
}

// applyChange 先在原状态下修订金额差额，再按新金额执行状态迁移
func (s *WebhookService) applyChange(db *gorm.DB, txn *models.Transaction, from, to string, oldAmount, newAmount models.Money) error {
	delta, err := TransitionDelta(from, to, newAmount)
	if err != nil {
		return err
	}
	if walletStatus(from) == constants.TransactionStatusConfirmed && !oldAmount.Abs().Equal(newAmount.Abs()) {
		// 已确认佣金被网络改写，可提现余额随之调整
		logger.Warnw("webhook_confirmed_amount_revised",
			"order_key", txn.OrderKey,
			"transaction_id", txn.ID,
			"status", to,
			"old_amount", oldAmount.String(),
			"new_amount", newAmount.String(),
		)
	}
	beneficiary := txn.BeneficiaryID()
	if beneficiary == nil {
		return nil
	}
	if err := s.wallet.ApplyRevision(db, *beneficiary, from, oldAmount, newAmount); err != nil {
		return err
	}
	return s.wallet.Apply(db, *beneficiary, delta)
}

func (s *WebhookService) cascadeReferral(db *gorm.DB, txn *models.Transaction, from, to string) error {
	from, to = walletStatus(from), walletStatus(to)
	if from == to {
		return nil
	}
	switch {
	case to == constants.TransactionStatusConfirmed:
		return s.creditReferral(db, txn)
	case from == constants.TransactionStatusConfirmed && to == constants.TransactionStatusCancelled:
		if s.referrals == nil {
			return nil
		}
		_, err := s.referrals.Reverse(db, txn.ID)
		return err
	}
	return nil
}

func (s *WebhookService) creditReferral(db *gorm.DB, txn *models.Transaction) error {
	if s.referrals == nil {
		return nil
	}
	beneficiary := txn.BeneficiaryID()
	if beneficiary == nil {
		return nil
	}
	_, err := s.referrals.Credit(db, txn, *beneficiary, txn.CommissionAmount)
	return err
}

func (s *WebhookService) markError(eventID uint, reason string) {
	if err := s.eventRepo.MarkError(eventID, reason, time.Now()); err != nil {
		logger.Errorw("webhook_event_mark_error_failed", "event_id", eventID, "reason", reason, "error", err)
	}
}

func (s *WebhookService) notifyOutcome(ctx context.Context, outcome *upsertOutcome) {
	txn := outcome.transaction
	fields := map[string]interface{}{
		"transaction_id":    txn.ID,
		"order_key":         txn.OrderKey,
		"network":           txn.Network,
		"status":            txn.Status,
		"commission_amount": txn.CommissionAmount.String(),
		"currency":          txn.Currency,
	}
	if txn.UserID != nil {
		fields["user_id"] = *txn.UserID
	}
	if outcome.created {
		emitEvent(ctx, s.notifier, notify.Event{
			Type:    constants.NotifyEventConversionRecorded,
			Level:   constants.NotifyLevelInfo,
			Message: "conversion recorded",
			Key:     txn.OrderKey,
			Fields:  fields,
		})
		return
	}
	if outcome.previousStatus == txn.Status {
		return
	}
	fields["previous_status"] = outcome.previousStatus
	emitEvent(ctx, s.notifier, notify.Event{
		Type:    constants.NotifyEventTransactionStatus,
		Level:   constants.NotifyLevelInfo,
		Message: "transaction status changed",
		Key:     txn.OrderKey,
		Fields:  fields,
	})
}

// UpdateTransactionStatus 管理端改状态；翻译词汇后走同一迁移路径，不重新计算佣金
func (s *WebhookService) UpdateTransactionStatus(ctx context.Context, transactionID uint, rawStatus string) (*models.Transaction, error) {
	next, err := ParseAdminStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	var outcome *upsertOutcome
	err = s.txRepo.Transaction(func(db *gorm.DB) error {
		txRepo := s.txRepo.WithTx(db)
		txn, err := txRepo.GetByIDForUpdate(transactionID)
		if err != nil {
			return err
		}
		if txn == nil {
			return ErrTransactionNotFound
		}
		prev := txn.Status
		if prev == next {
			outcome = &upsertOutcome{transaction: txn, previousStatus: prev}
			return nil
		}
		if err := s.applyChange(db, txn, prev, next, txn.CommissionAmount, txn.CommissionAmount); err != nil {
			return err
		}
		if err := txRepo.UpdateFields(txn.ID, map[string]interface{}{"status": next}); err != nil {
			return err
		}
		txn.Status = next
		_, rule, err := s.commissions.computeForTransaction(db, txn, txn.CommissionAmount)
		if err != nil {
			return err
		}
		if _, _, err := s.commissions.syncCommission(db, txn, rule); err != nil {
			return err
		}
		if err := s.cascadeReferral(db, txn, prev, next); err != nil {
			return err
		}
		outcome = &upsertOutcome{transaction: txn, previousStatus: prev}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrUnsupportedTransition) {
			logger.Warnw("admin_transition_rejected", "transaction_id", transactionID, "status", next, "error", err)
			emitEvent(ctx, s.notifier, notify.Event{
				Type:    constants.NotifyEventTransitionRejected,
				Level:   constants.NotifyLevelWarn,
				Message: "unsupported transaction status transition",
				Fields: map[string]interface{}{
					"transaction_id": transactionID,
					"status":         next,
					"source":         "admin",
				},
			})
		}
		return nil, err
	}
	logger.Infow("transaction_status_updated",
		"transaction_id", outcome.transaction.ID,
		"previous_status", outcome.previousStatus,
		"status", outcome.transaction.Status,
	)
	s.notifyOutcome(ctx, outcome)
	return outcome.transaction, nil
}

// ListTransactions 交易列表
func (s *WebhookService) ListTransactions(filter repository.TransactionListFilter) ([]models.Transaction, int64, error) {
	return s.txRepo.List(filter)
}

// ListEvents 回调事件列表
func (s *WebhookService) ListEvents(filter repository.WebhookEventListFilter) ([]models.WebhookEvent, int64, error) {
	return s.eventRepo.List(filter)
}

// SweepStale 将长时间停留在 received 的事件标记为错误并告警
func (s *WebhookService) SweepStale(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	if olderThan <= 0 {
		return 0, nil
	}
	events, err := s.eventRepo.ListStale(time.Now().Add(-olderThan), limit)
	if err != nil {
		return 0, err
	}
	for _, event := range events {
		s.markError(event.ID, WebhookErrorStaleReceived)
		logger.Warnw("webhook_event_stale", "event_id", event.ID, "source", event.Source, "created_at", event.CreatedAt)
	}
	if len(events) > 0 {
		ids := make([]uint, 0, len(events))
		for _, event := range events {
			ids = append(ids, event.ID)
		}
		emitEvent(ctx, s.notifier, notify.Event{
			Type:    constants.NotifyEventWebhookStale,
			Level:   constants.NotifyLevelWarn,
			Message: fmt.Sprintf("%d webhook events stuck in received", len(events)),
			Fields:  map[string]interface{}{"event_ids": ids},
		})
	}
	return len(events), nil
}
