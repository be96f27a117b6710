package messages

import "time"

const (
	KindConfirmation = "confirmation"
	KindUpdate       = "update"
)

// TrackingUpdated: уведомление для внешнего email-нотификатора.
// Notifications повторяет флаг заказа trackingNotifications:
// решение, слать ли письмо, остаётся за потребителем.
type TrackingUpdated struct {
	Kind          string    `json:"kind"`
	TrackingCode  string    `json:"trackingCode"`
	OrderID       string    `json:"orderId"`
	Status        string    `json:"status"`
	Service       string    `json:"servico,omitempty"`
	User          *User     `json:"user,omitempty"`
	NewEvents     []Event   `json:"newEvents"`
	Notifications bool      `json:"trackingNotifications"`
	SentAt        time.Time `json:"sentAt"`
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Event struct {
	Date        string   `json:"data"`
	Time        string   `json:"hora"`
	Location    string   `json:"local,omitempty"`
	Status      string   `json:"status"`
	SubStatus   []string `json:"subStatus,omitempty"`
	Observation string   `json:"observacao,omitempty"`
}
