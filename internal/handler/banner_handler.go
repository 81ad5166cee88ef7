package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/robinhoot/robinhoot_api/internal/service"
	"github.com/robinhoot/robinhoot_api/internal/utils"
)

// BannerHandler handles storefront banners.
type BannerHandler struct {
	bannerService *service.BannerService
}

// NewBannerHandler constructs a BannerHandler.
func NewBannerHandler(bannerService *service.BannerService) *BannerHandler {
	return &BannerHandler{bannerService: bannerService}
}

// ListPublic handles GET /v1/banners
func (h *BannerHandler) ListPublic(c *gin.Context) {
	banners, err := h.bannerService.ListPublic(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to get banners")
		return
	}
	utils.Success(c, 200, "Banners retrieved", gin.H{"banners": banners})
}

// ListAll handles GET /v1/admin/banners
func (h *BannerHandler) ListAll(c *gin.Context) {
	banners, err := h.bannerService.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to get banners")
		return
	}
	utils.Success(c, 200, "Banners retrieved", gin.H{"banners": banners})
}

// Create handles POST /v1/admin/banners
func (h *BannerHandler) Create(c *gin.Context) {
	var req service.BannerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}
	banner, err := h.bannerService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to create banner")
		return
	}
	utils.Success(c, 201, "Banner created", banner)
}

// Update handles PUT /v1/admin/banners/:id
func (h *BannerHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.BannerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}
	banner, err := h.bannerService.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err, "Failed to update banner")
		return
	}
	utils.Success(c, 200, "Banner updated", banner)
}

// Delete handles DELETE /v1/admin/banners/:id
func (h *BannerHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.bannerService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete banner")
		return
	}
	utils.Success(c, 200, "Banner deleted", nil)
}
