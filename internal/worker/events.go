package worker

// IngestTaskPayload is published on ingest.task when a document upload is
// accepted. The worker owns everything after this point; the upload handler
// never waits on it.
type IngestTaskPayload struct {
	DocID  string `json:"doc_id"`
	Tenant string `json:"tenant"`
	Path   string `json:"path"`

	CorrelationID string `json:"correlation_id"`
}
