package route

import (
	"regexp"
	"strings"
)

// Step text is composer output, so venue references arrive in loose prose.
// These patterns cover the phrasings the composer actually produces.
var mentionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bat\s+(?:the\s+)?([A-Z][^,.;!?]+)`),
	regexp.MustCompile(`\b(?:Visit|Explore)\s+(?:the\s+)?([A-Z][^,.;!?]+)`),
	regexp.MustCompile(`\bHike\s+(?:the\s+)?([A-Z][^,.;!?]*?Trail)`),
	regexp.MustCompile(`\b(?:Tour|See)\s+(?:the\s+)?([A-Z][^,.;!?]+)`),
}

// ExtractMention pulls the venue name out of one activity sentence. Returns
// an empty string when no pattern applies.
func ExtractMention(activity string) string {
	for _, pattern := range mentionPatterns {
		if m := pattern.FindStringSubmatch(activity); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

var streetTerms = []string{
	"street", " st", "avenue", " ave", "road", " rd", "boulevard", "blvd",
	"drive", " dr", "lane", " ln", "way", "plaza", "square", " sq",
}

var landmarkTerms = []string{
	"park", "museum", "library", "garden", "market", "square", "theater",
	"theatre", "hall", "bridge", "trail", "beach", "common", "wharf",
	"aquarium", "gallery", "center", "centre",
}

// ValidAddress reports whether a string is usable as a routing destination.
// Accepts street addresses (digits or street terms) and "Landmark, City"
// forms where the landmark is recognizably a place.
func ValidAddress(addr string) bool {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return false
	}
	lower := strings.ToLower(addr)

	if strings.ContainsAny(addr, "0123456789") {
		return true
	}
	for _, term := range streetTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	if strings.Contains(addr, ",") {
		for _, term := range landmarkTerms {
			if strings.Contains(lower, term) {
				return true
			}
		}
	}
	return false
}
