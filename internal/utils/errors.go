package utils

import "errors"

// Common application errors used across services. The message doubles as the
// API error code.
var (
	ErrInvalidToken       = errors.New("INVALID_TOKEN")
	ErrInvalidCredentials = errors.New("INVALID_CREDENTIALS")
	ErrInactiveAccount    = errors.New("ACCOUNT_INACTIVE")
	ErrEmailTaken         = errors.New("EMAIL_TAKEN")
	ErrUsernameTaken      = errors.New("USERNAME_TAKEN")
	ErrValidation         = errors.New("VALIDATION_ERROR")

	ErrProductNotFound    = errors.New("PRODUCT_NOT_FOUND")
	ErrProductInactive    = errors.New("PRODUCT_INACTIVE")
	ErrSKUExists          = errors.New("SKU_EXISTS")
	ErrInsufficientStock  = errors.New("INSUFFICIENT_STOCK")
	ErrPricingUnavailable = errors.New("PRICING_UNAVAILABLE")
	ErrCartItemNotFound   = errors.New("CART_ITEM_NOT_FOUND")

	ErrBannerNotFound  = errors.New("BANNER_NOT_FOUND")
	ErrSettingNotFound = errors.New("SETTING_NOT_FOUND")
)
