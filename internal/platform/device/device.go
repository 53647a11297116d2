// Package device turns raw User-Agent strings into short display names for
// audit records, e.g. "Chrome on Mac OS X".
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

const unknownDevice = "Unknown Device"

// ParseUserAgent derives a human-readable device label from a User-Agent
// header. The label is for audit display only and is never used to make
// authorization decisions.
func ParseUserAgent(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return unknownDevice
	}

	ua := useragent.New(raw)
	browser, _ := ua.Browser()
	os := ua.OS()
	if os == "" {
		os = ua.Platform()
	}

	switch {
	case browser == "" && os == "":
		return unknownDevice
	case browser == "":
		browser = "Unknown Browser"
	case os == "":
		os = "Unknown OS"
	}
	return strings.TrimSpace(browser + " on " + os)
}
