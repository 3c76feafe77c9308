package nodes

import (
	"github.com/Chative-core-poc-v1/userdesk/internal/agent/model"
)

const DefaultMaxPasses = 2

// ===== Small helpers to keep handlers simple/readable =====
// NormalizeMaxPasses returns a sane default when the provided value is invalid.
func NormalizeMaxPasses(n int) int {
	if n <= 0 {
		return DefaultMaxPasses
	}
	return n
}

// MaxRunSteps bounds graph steps for maxPasses passes of
// classifier -> executor -> responder -> requeue, plus slack.
func MaxRunSteps(maxPasses int) int {
	return 4*NormalizeMaxPasses(maxPasses) + 4
}

// turnComplete is the completion policy: a turn loops only while mandatory
// fields are missing and no operation was attempted, and never past the
// final pass.
func turnComplete(missing []string, execution *model.ExecutionResult, passes, maxPasses int) bool {
	if execution != nil || len(missing) == 0 {
		return true
	}
	return passes >= NormalizeMaxPasses(maxPasses)
}

// mergeParameters layers fresh extraction over an earlier pass.
func mergeParameters(prior, fresh map[string]any) map[string]any {
	out := make(map[string]any, len(prior)+len(fresh))
	for k, v := range prior {
		out[k] = v
	}
	for k, v := range fresh {
		if v == nil {
			continue
		}
		out[k] = v
	}
	return out
}
