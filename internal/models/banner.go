package models

import "time"

// ModerationStatus is the result of the banner image check.
type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
)

// Banner is a storefront banner managed from the admin panel.
// ImageKey is the object key in the configured asset bucket.
type Banner struct {
	ID               int              `db:"id" json:"id"`
	Title            string           `db:"title" json:"title"`
	ImageKey         string           `db:"image_key" json:"imageKey"`
	LinkURL          string           `db:"link_url" json:"linkUrl"`
	Position         int              `db:"position" json:"position"`
	IsActive         bool             `db:"is_active" json:"isActive"`
	ModerationStatus ModerationStatus `db:"moderation_status" json:"moderationStatus"`
	ModerationNote   *string          `db:"moderation_note" json:"moderationNote,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updatedAt"`
}
