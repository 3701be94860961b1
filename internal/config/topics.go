package config

// NSQ topics and channels for the ingestion pipeline.
const (
	TopicIngestTask = "ingest.task"

	ChannelIngestWorker = "ingest-worker"
)

// AllTopics lists topics to pre-create at bootstrap so consumers querying
// lookupd do not 404 before the first publish.
func AllTopics() []string {
	return []string{TopicIngestTask}
}
