package kafka

const (
	TopicTrackingUpdated = "tracking.updated"
	TopicSyncRequested   = "tracking.sync.requested"
)
