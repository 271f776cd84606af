package service

import "errors"

var (
	ErrBadRequest            = errors.New("bad request")
	ErrNotFound              = errors.New("not found")
	ErrInvalidURL            = errors.New("invalid url")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrUserNotFound          = errors.New("user not found")
	ErrUserDisabled          = errors.New("user disabled")
	ErrStoreNotFound         = errors.New("store not found")
	ErrStoreInactive         = errors.New("store inactive")
	ErrProductNotFound       = errors.New("product not found")
	ErrLinkNotFound          = errors.New("link not found")
	ErrSlugExhausted         = errors.New("slug generation exhausted")
	ErrBulkLimitExceeded     = errors.New("bulk limit exceeded")
	ErrProviderUnsupported   = errors.New("provider unsupported")
	ErrMissingCampaignID     = errors.New("missing campaign id")
	ErrMissingAccountID      = errors.New("missing account id")
	ErrClickNotFound         = errors.New("unknown click id")
	ErrClickLinkConflict     = errors.New("click already has a different affiliate link")
	ErrMissingClickID        = errors.New("missing click id")
	ErrMissingOrderID        = errors.New("missing order id")
	ErrInvalidPostbackBody   = errors.New("invalid postback body")
	ErrUnsupportedNetwork    = errors.New("unsupported network")
	ErrUnsupportedTransition = errors.New("unsupported status transition")
	ErrInvalidStatus         = errors.New("invalid status")
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrRuleNotFound          = errors.New("commission rule not found")
	ErrRuleConflict          = errors.New("commission rule already exists for scope")
	ErrInvalidRule           = errors.New("invalid commission rule")
	ErrInvalidReferralBonus  = errors.New("invalid referral bonus setting")
)
