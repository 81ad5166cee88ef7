package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/robinhoot/robinhoot_api/internal/middleware"
	"github.com/robinhoot/robinhoot_api/internal/service"
	"github.com/robinhoot/robinhoot_api/internal/utils"
)

// CartHandler handles the signed-in user's cart.
type CartHandler struct {
	cartService *service.CartService
}

// NewCartHandler constructs a CartHandler.
func NewCartHandler(cartService *service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

type cartItemRequest struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity" binding:"required,min=1"`
}

// GetCart handles GET /v1/cart
func (h *CartHandler) GetCart(c *gin.Context) {
	cart, err := h.cartService.GetCart(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, "Failed to load cart")
		return
	}
	utils.Success(c, 200, "Cart retrieved", cart)
}

// AddItem handles POST /v1/cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ProductID <= 0 {
		utils.Error(c, 400, "INVALID_REQUEST", "productId and a quantity of at least 1 are required")
		return
	}

	cart, err := h.cartService.AddItem(c.Request.Context(), middleware.GetUserID(c), req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err, "Failed to add item")
		return
	}
	utils.Success(c, 200, "Item added to cart", cart)
}

// UpdateItem handles PUT /v1/cart/items/:productId
func (h *CartHandler) UpdateItem(c *gin.Context) {
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "quantity of at least 1 is required")
		return
	}

	cart, err := h.cartService.UpdateItem(c.Request.Context(), middleware.GetUserID(c), productID, req.Quantity)
	if err != nil {
		respondError(c, err, "Failed to update item")
		return
	}
	utils.Success(c, 200, "Cart item updated", cart)
}

// RemoveItem handles DELETE /v1/cart/items/:productId
func (h *CartHandler) RemoveItem(c *gin.Context) {
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}

	cart, err := h.cartService.RemoveItem(c.Request.Context(), middleware.GetUserID(c), productID)
	if err != nil {
		respondError(c, err, "Failed to remove item")
		return
	}
	utils.Success(c, 200, "Cart item removed", cart)
}

// ClearCart handles DELETE /v1/cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	if err := h.cartService.Clear(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		respondError(c, err, "Failed to clear cart")
		return
	}
	utils.Success(c, 200, "Cart cleared", nil)
}
