package async

import (
	"context"
	"time"
)

// Job asks for one catalog reload.
type Job struct {
	Reason      string // interval, watch:<path>, grpc
	SubmittedAt time.Time
	TraceID     string // req_id of the caller, if any
}

// Queue accepts reload jobs. *Reloader implements it; Enqueue never blocks on a running reload.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
}

var _ Queue = (*Reloader)(nil)
