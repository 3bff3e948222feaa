// Package topic derives broker topic names from storage object keys.
package topic

import "strings"

const (
	keyToken   = "romo-"
	topicToken = "romo/"
)

// FromKey maps an object key to its broker topic by turning the first "romo-"
// into the "romo/" topic level. Keys without the token are returned unchanged.
//
//	"romo-happy/img.png" → "romo/happy/img.png"
//	"other/img.png"      → "other/img.png"
func FromKey(key string) string {
	return strings.Replace(key, keyToken, topicToken, 1)
}
