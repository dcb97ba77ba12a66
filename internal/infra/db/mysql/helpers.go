package mysql

import "strings"

// jsonOrEmpty keeps the NOT NULL column valid when a caller stores nothing.
func jsonOrEmpty(b []byte) string {
	if strings.TrimSpace(string(b)) == "" {
		return "null"
	}
	return string(b)
}
