package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/robinhoot/robinhoot_api/internal/service"
	"github.com/robinhoot/robinhoot_api/internal/utils"
)

// SiteSettingHandler handles storefront key/value settings.
type SiteSettingHandler struct {
	settingService *service.SiteSettingService
}

// NewSiteSettingHandler constructs a SiteSettingHandler.
func NewSiteSettingHandler(settingService *service.SiteSettingService) *SiteSettingHandler {
	return &SiteSettingHandler{settingService: settingService}
}

// GetPublic handles GET /v1/settings
func (h *SiteSettingHandler) GetPublic(c *gin.Context) {
	settings, err := h.settingService.Map(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to get settings")
		return
	}
	utils.Success(c, 200, "Settings retrieved", settings)
}

// List handles GET /v1/admin/settings
func (h *SiteSettingHandler) List(c *gin.Context) {
	settings, err := h.settingService.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to get settings")
		return
	}
	utils.Success(c, 200, "Settings retrieved", gin.H{"settings": settings})
}

// Put handles PUT /v1/admin/settings/:key
func (h *SiteSettingHandler) Put(c *gin.Context) {
	var req struct {
		Value *string `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "value is required")
		return
	}
	setting, err := h.settingService.Set(c.Request.Context(), c.Param("key"), *req.Value)
	if err != nil {
		respondError(c, err, "Failed to save setting")
		return
	}
	utils.Success(c, 200, "Setting saved", setting)
}

// Delete handles DELETE /v1/admin/settings/:key
func (h *SiteSettingHandler) Delete(c *gin.Context) {
	if err := h.settingService.Delete(c.Request.Context(), c.Param("key")); err != nil {
		respondError(c, err, "Failed to delete setting")
		return
	}
	utils.Success(c, 200, "Setting deleted", nil)
}
