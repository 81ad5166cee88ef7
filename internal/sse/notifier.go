package sse

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceNotifier is the interface services use to emit price events.
type PriceNotifier interface {
	NotifyPriceChanged(productID int, skuCode string, oldPrice, newPrice decimal.Decimal)
}

// HubNotifier implements PriceNotifier by publishing to a Hub.
type HubNotifier struct {
	hub *Hub
}

// NewHubNotifier creates a notifier backed by the given Hub.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyPriceChanged(productID int, skuCode string, oldPrice, newPrice decimal.Decimal) {
	if n.hub.Len() == 0 {
		return
	}
	n.hub.Publish(&PriceEvent{
		Event:     EventPriceChanged,
		ProductID: productID,
		SkuCode:   skuCode,
		OldPrice:  oldPrice,
		NewPrice:  newPrice,
		Timestamp: time.Now(),
	})
}

// NopNotifier is a no-op implementation for when SSE is not needed.
type NopNotifier struct{}

func (n *NopNotifier) NotifyPriceChanged(int, string, decimal.Decimal, decimal.Decimal) {}
