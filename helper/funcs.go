package helper

import "strings"

// StringInSlice checks whether the string is present in the list.
func StringInSlice(s string, list []string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// ParseCommaList splits a comma separated configuration value into its
// cleaned components, trimming whitespace and discarding empty entries. This
// is used to deal with list values passed through environment variables such
// as "r7i.48xlarge, r6id.32xlarge".
func ParseCommaList(input string) []string {
	var out []string

	for _, item := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}

	return out
}

// MissingTags compares the current tag set of a resource against the
// required tags and returns the required keys which are either absent or
// carry a different value. An empty return means the resource satisfies
// every required tag exactly.
func MissingTags(current, required map[string]string) []string {
	var missing []string

	for key, value := range required {
		if current[key] != value {
			missing = append(missing, key)
		}
	}

	return missing
}
