package cache

import "strings"

// GlobalKeyPrefix namespaces every key the portal writes to Redis.
const GlobalKeyPrefix = "campusportal"

// GenerateCacheKey builds "campusportal:<namespace>:<kind>:<id>", with any
// extra parts appended as one "_"-joined segment.
func GenerateCacheKey(namespace, kind, id string, extra ...string) string {
	key := strings.Join([]string{GlobalKeyPrefix, namespace, kind, id}, ":")
	if len(extra) == 0 {
		return key
	}
	return key + ":" + strings.Join(extra, "_")
}
