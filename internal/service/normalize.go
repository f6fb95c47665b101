package service

import "strings"

const defaultScheme = "https://"

// NormalizeURL prepends https:// to targets stored without a scheme.
func NormalizeURL(target string) string {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target
	}
	return defaultScheme + target
}
