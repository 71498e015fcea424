// Package trigger implements the optional external-agent side-effect
// invoked from the HTTP adapter's inbound-ingest path.
package trigger

import "context"

// Trigger is the optional-dependency-injection interface of spec.md §9:
// the HTTP adapter always holds a Trigger, never a nullable reference,
// and the "no configuration" case is a concrete Noop implementation
// rather than a nil check at the call site.
type Trigger interface {
	// Invoke fires the side-effect for a just-ingested entry. It never
	// returns an error to the caller; the bool reports success purely
	// for logging/metrics purposes and must never gate the ingest
	// response.
	Invoke(ctx context.Context, selfURL string, platform, platformChatID string, inReplyTo int64, text string) bool
}
