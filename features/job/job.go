package job

import (
	"encoding/json"
	"time"
)

// Job is a permanently failed ingestion recorded for operator review. The
// payload is the original ingest.task body, so a retry republishes it as-is.
type Job struct {
	ID        string          `json:"id"`
	DocID     string          `json:"doc_id"`
	Tenant    string          `json:"tenant"`
	Payload   json.RawMessage `json:"payload"`
	Error     string          `json:"error"`
	Retries   int             `json:"retries"`
	CreatedAt time.Time       `json:"created_at"`
}
