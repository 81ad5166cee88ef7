package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/robinhoot/robinhoot_api/internal/utils"
)

// apiErrors maps service sentinels to HTTP status and default message.
var apiErrors = []struct {
	err     error
	status  int
	message string
}{
	{utils.ErrValidation, http.StatusBadRequest, "Invalid request"},
	{utils.ErrProductNotFound, http.StatusNotFound, "Product not found"},
	{utils.ErrProductInactive, http.StatusNotFound, "Product not found"},
	{utils.ErrBannerNotFound, http.StatusNotFound, "Banner not found"},
	{utils.ErrSettingNotFound, http.StatusNotFound, "Setting not found"},
	{utils.ErrCartItemNotFound, http.StatusNotFound, "Product is not in the cart"},
	{utils.ErrSKUExists, http.StatusConflict, "SKU code already exists"},
	{utils.ErrEmailTaken, http.StatusConflict, "Email is already registered"},
	{utils.ErrUsernameTaken, http.StatusConflict, "Username is already taken"},
	{utils.ErrInsufficientStock, http.StatusConflict, "Not enough stock"},
	{utils.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
	{utils.ErrInactiveAccount, http.StatusForbidden, "Account is inactive"},
	{utils.ErrPricingUnavailable, http.StatusUnprocessableEntity, "Pricing is unavailable for this product"},
}

// respondError writes the API error for err. Validation errors carry their
// detail; unknown errors are logged and answered with a generic 500.
func respondError(c *gin.Context, err error, fallbackMessage string) {
	for _, e := range apiErrors {
		if !errors.Is(err, e.err) {
			continue
		}
		message := e.message
		if e.err == utils.ErrValidation {
			message = err.Error()
		}
		utils.Error(c, e.status, e.err.Error(), message)
		return
	}

	log.Error().Err(err).Str("path", c.FullPath()).Msg(fallbackMessage)
	_ = c.Error(err)
	utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallbackMessage)
}

// pathID parses a positive integer path parameter.
func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		utils.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name)
		return 0, false
	}
	return id, true
}

// queryInt parses an optional integer query parameter, returning def when absent or invalid.
func queryInt(c *gin.Context, name string, def int) int {
	if v := c.Query(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
