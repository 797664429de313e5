package util

import "strings"

// SanitizePostgresText strips null bytes and invalid UTF-8 so that text
// scraped from arbitrary web tables can be stored in Postgres columns.
func SanitizePostgresText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}
