package models

import "time"

// Нормализованные статусы отслеживания.
const (
	TrackingStatusPending   = "pending"
	TrackingStatusInTransit = "in_transit"
	TrackingStatusDelivered = "delivered"
	TrackingStatusReturned  = "returned"
)

// MaxTrackingErrors: после стольких подряд неудачных синхронизаций трек
// перестаёт опрашиваться автоматически.
const MaxTrackingErrors = 5

// SyncInterval: минимальный интервал между автоматическими проверками.
const SyncInterval = time.Hour

type Tracking struct {
	ID           string          `json:"id"`
	OrderID      string          `json:"orderId"`
	TrackingCode string          `json:"trackingCode"`
	Status       string          `json:"status"`
	Servico      string          `json:"servico,omitempty"`
	Events       []TrackingEvent `json:"eventos"`
	LastChecked  *time.Time      `json:"lastChecked,omitempty"`
	LastUpdate   *time.Time      `json:"lastUpdate,omitempty"`
	ErrorCount   int             `json:"errorCount"`
	LastError    *string         `json:"lastError"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

type TrackingEvent struct {
	Date        string   `json:"data"`
	Time        string   `json:"hora"`
	Location    string   `json:"local"`
	Status      string   `json:"status"`
	SubStatus   []string `json:"subStatus,omitempty"`
	Observation string   `json:"observacao,omitempty"`
}

// EventKey: ключ дедупликации события. location/observation в него не входят.
type EventKey struct {
	Date, Time, Status string
}

func (e TrackingEvent) Key() EventKey {
	return EventKey{Date: e.Date, Time: e.Time, Status: e.Status}
}

func IsTerminalStatus(status string) bool {
	return status == TrackingStatusDelivered || status == TrackingStatusReturned
}

// DueForSync повторяет условие выборки ListDueForSync для одной записи.
func (t *Tracking) DueForSync(now time.Time) bool {
	if IsTerminalStatus(t.Status) || t.ErrorCount >= MaxTrackingErrors {
		return false
	}
	last := t.LastChecked
	if last == nil {
		last = t.LastUpdate
	}
	if last == nil {
		return false
	}
	return last.Before(now.Add(-SyncInterval))
}

// MergeEvents добавляет в конец existing те события incoming, которых ещё нет,
// сохраняя порядок перевозчика. Возвращает итоговый список и только новые события.
func MergeEvents(existing, incoming []TrackingEvent) (merged, added []TrackingEvent) {
	seen := make(map[EventKey]struct{}, len(existing)+len(incoming))
	merged = make([]TrackingEvent, 0, len(existing)+len(incoming))
	for _, e := range existing {
		seen[e.Key()] = struct{}{}
		merged = append(merged, e)
	}
	for _, e := range incoming {
		k := e.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		merged = append(merged, e)
		added = append(added, e)
	}
	return merged, added
}

type TrackingFilter struct {
	Status string
}
