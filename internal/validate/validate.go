package validate

import (
	"fmt"
	"strings"
)

// Length limits shared by the gate form, the unlock API and the manifest.
const (
	MaxPinLength   = 64
	MaxTitleLength = 500
	MaxFileLength  = 1024
)

func checkLen(value string, max int, field string) string {
	if len(value) > max {
		return fmt.Sprintf("%s must be %d characters or fewer", field, max)
	}
	return ""
}

func Pin(s string) string   { return checkLen(s, MaxPinLength, "pin") }
func Title(s string) string { return checkLen(s, MaxTitleLength, "title") }

// File checks a manifest file identifier. Identifiers are relative paths and
// may not climb out of the media root.
func File(s string) string {
	if msg := checkLen(s, MaxFileLength, "file"); msg != "" {
		return msg
	}
	if strings.ContainsAny(s, "\x00\\") {
		return "file contains invalid characters"
	}
	for _, part := range strings.Split(s, "/") {
		if part == ".." {
			return "file must not contain .. segments"
		}
	}
	return ""
}
