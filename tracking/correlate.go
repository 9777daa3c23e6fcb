package tracking

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// traceIDPrefix namespaces correlation identifiers so they are recognizable
// in external sinks shared with other services.
const traceIDPrefix = "lifeos"

// NewTraceID returns a correlation identifier unique with overwhelming
// probability across concurrent, uncoordinated callers: a millisecond
// timestamp prefix for rough ordering plus a random UUID suffix. No global
// counter, safe from any goroutine.
func NewTraceID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s-%d-%s", traceIDPrefix, time.Now().UnixMilli(), suffix)
}

// UserMetadata merges the fixed per-call fields (user, timestamp,
// environment) with caller-supplied extras. Pure; extras win only for keys
// that do not collide with the fixed fields.
func UserMetadata(userID, environment string, extra map[string]any) map[string]any {
	md := make(map[string]any, len(extra)+3)
	for k, v := range extra {
		md[k] = v
	}
	md["user_id"] = userID
	md["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	md["environment"] = environment
	return md
}
