package model

import "time"

// Repository is a GitHub repository on the watch list.
type Repository struct {
	FullName string
	Owner    string
	Name     string
	AddedAt  time.Time
}
