package messages

import "time"

// SyncRequested: запрос внеочередной синхронизации, исполняет воркер.
type SyncRequested struct {
	TrackingCode string    `json:"trackingCode"`
	RequestedAt  time.Time `json:"requestedAt"`
}
