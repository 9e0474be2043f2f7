package models

import "time"

type NotificationType string

const (
	NotificationTypeFriendRequest NotificationType = "friend_request"
)

type Notification struct {
	ID        int64            `json:"id"`
	Type      NotificationType `json:"type,omitempty"`
	Content   string           `json:"content"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}
