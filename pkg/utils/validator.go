package utils

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	workspacePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)
	controlChars     = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

// ValidateWorkspace checks a workspace identifier taken from a URL path
func ValidateWorkspace(workspace string) error {
	if !workspacePattern.MatchString(workspace) {
		return fmt.Errorf("invalid workspace: %q", workspace)
	}
	return nil
}

// SanitizeString removes control characters and surrounding whitespace
func SanitizeString(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}

// SanitizeFileName keeps only the base name of an uploaded file
func SanitizeFileName(name string) string {
	name = SanitizeString(strings.ReplaceAll(name, `\`, "/"))
	base := filepath.Base(name)
	if base == "." || base == "/" {
		return "upload"
	}
	return base
}
