package survey

import "context"

// RecordSink receives completed response records. Sinks are best-effort by
// policy: the session log is the source of truth and a sink error must
// never block session progression. Callers log and continue.
type RecordSink interface {
	AppendResponse(ctx context.Context, record ResponseRecord) error
}
