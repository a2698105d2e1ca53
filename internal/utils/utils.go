package utils

import (
	"strconv"
	"strings"
)

// MaskContact hides most of an email or phone number for logs.
// "alice@example.com" becomes "al***@example.com"; "9876543210" becomes "******3210".
func MaskContact(contact string) string {
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return ""
	}
	if at := strings.LastIndex(contact, "@"); at >= 0 {
		local, domain := contact[:at], contact[at:]
		keep := 2
		if len(local) <= keep {
			keep = 1
		}
		if len(local) == 0 {
			return "***" + domain
		}
		return local[:keep] + "***" + domain
	}
	if len(contact) <= 4 {
		return strings.Repeat("*", len(contact))
	}
	return strings.Repeat("*", len(contact)-4) + contact[len(contact)-4:]
}

// ParsePagination reads page/limit query values, applying defaults and a ceiling
func ParsePagination(pageStr, limitStr string, defaultLimit, maxLimit int) (page, limit int) {
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err = strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}
