package validation

import (
	"regexp"

	"github.com/username/institutionledger/src/logger"
)

var (
	// Common XSS vectors. Stripping is done by SanitizeText; this only flags the input.
	xssPatternsRegex = regexp.MustCompile(
		`(?i)<script|onerror=|onmouseover=|onfocus=|onload=|javascript:|vbscript:|<iframe|<object|<embed|<applet|<style|<link|<img\s+src\s*=\s*['"]?\s*(javascript|data):`,
	)
)

func truncateForLog(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}

// ScanForMarkup reports whether free text carries script or markup vectors
// and logs the field when it does.
func ScanForMarkup(s, fieldName string) bool {
	if !xssPatternsRegex.MatchString(s) {
		return false
	}
	logger.L.Warn("Suspicious markup in input", "field", fieldName, "value", truncateForLog(s, 64))
	return true
}
