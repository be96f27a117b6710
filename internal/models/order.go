package models

import "time"

const (
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
)

// Order принадлежит сервису заказов; здесь только читается и аннотируется.
type Order struct {
	ID                    string     `json:"_id"`
	UserID                string     `json:"userId"`
	Status                string     `json:"status"`
	TrackingCode          string     `json:"trackingCode,omitempty"`
	TrackingStatus        string     `json:"trackingStatus,omitempty"`
	LastTrackingUpdate    *time.Time `json:"lastTrackingUpdate,omitempty"`
	TrackingNotifications bool       `json:"trackingNotifications"`
}

type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
