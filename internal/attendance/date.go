package attendance

import "time"

const dateLayout = "2006-01-02"

// ValidDate reports whether s is a calendar day in YYYY-MM-DD form.
func ValidDate(s string) bool {
	if len(s) != len(dateLayout) {
		return false
	}
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

// Today renders now as a YYYY-MM-DD string.
func Today(now time.Time) string {
	return now.Format(dateLayout)
}

// IsFuture compares two YYYY-MM-DD strings. Lexicographic order coincides
// with chronological order for this fixed-width format, which is why dates
// are stored as strings in the first place.
func IsFuture(date, today string) bool {
	return date > today
}
