package security

import (
	"strings"
	"unicode/utf8"
)

const mask = "***"

// MaskEmail hides the local part of an address for logging, keeping its first
// character and the domain: "zelinwan@andrew.cmu.edu" becomes
// "z***@andrew.cmu.edu". Strings without an "@" are masked entirely.
func MaskEmail(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		if email == "" {
			return ""
		}
		return mask
	}

	local, domain := email[:at], email[at+1:]
	if local == "" {
		return mask + "@" + domain
	}

	first, _ := utf8.DecodeRuneInString(local)
	return string(first) + mask + "@" + domain
}

// MaskPIN replaces a PIN with a fixed marker so it never reaches a log line.
func MaskPIN(int) string {
	return mask
}
