package service

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// normalizeName collapses whitespace and title-cases, "  ODHIAMBO  jane" -> "Odhiambo Jane"
func normalizeName(s string) string {
	return titleCaser.String(strings.ToLower(strings.Join(strings.Fields(s), " ")))
}

// splitName treats the first word as the surname
func splitName(full string) (surname, otherNames string) {
	parts := strings.Fields(normalizeName(full))
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// normalizeSex maps free text to M, F or ""
func normalizeSex(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "M", "MALE":
		return "M"
	case "F", "FEMALE":
		return "F"
	}
	return ""
}
