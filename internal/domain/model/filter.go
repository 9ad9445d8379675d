package model

import "time"

// SavedFilter is a user-saved query over the item listing.
type SavedFilter struct {
	ID        int64
	Name      string
	Query     string
	CreatedAt time.Time
}
