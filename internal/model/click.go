package model

import (
	"time"

	"github.com/google/uuid"
)

// Click represents a context-menu click on an image.
type Click struct {
	ID         uuid.UUID `json:"id"`
	MenuItemID string    `json:"menuItemId"`
	SrcURL     string    `json:"srcUrl"`
	CreatedAt  time.Time `json:"created_at"`
}
