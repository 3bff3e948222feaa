package mq

import (
	"strings"

	"github.com/solacese/romo-robot/internal/event"
)

// Filter selects which notifications reach the handler. Empty fields match
// everything. Event name patterns ending in '*' match by prefix.
type Filter struct {
	Bucket     string
	KeyPrefix  string
	EventNames []string
}

// Allows reports whether n passes every configured condition.
func (f Filter) Allows(n *event.Notification) bool {
	if f.Bucket != "" && n.Bucket != f.Bucket {
		return false
	}
	if !strings.HasPrefix(n.Key, f.KeyPrefix) {
		return false
	}
	if len(f.EventNames) == 0 {
		return true
	}
	for _, pattern := range f.EventNames {
		if matchEventName(pattern, n.EventName) {
			return true
		}
	}
	return false
}

func matchEventName(pattern, name string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(name, prefix)
	}
	return pattern == name
}
