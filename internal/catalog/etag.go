package catalog

import (
	"strconv"
	"strings"
)

// FormatETag renders a snapshot version as a strong entity tag, e.g. "7" with quotes.
func FormatETag(version uint64) string {
	return strconv.Quote(strconv.FormatUint(version, 10))
}

// ParseETag reads a version from an entity tag. Weak tags and unquoted numbers are accepted.
func ParseETag(value string) (uint64, bool) {
	value = strings.TrimPrefix(strings.TrimSpace(value), "W/")
	unquoted, err := strconv.Unquote(value)
	if err != nil {
		unquoted = value
	}
	version, err := strconv.ParseUint(unquoted, 10, 64)
	return version, err == nil
}
