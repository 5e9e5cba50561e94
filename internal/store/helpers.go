package store

import "time"

// now returns the current UTC time formatted as an API timestamp.
func now() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}

// today returns the current UTC date in calendar form.
func today() string {
	return time.Now().UTC().Format("2006-01-02")
}

// validDate reports whether s is a calendar date in YYYY-MM-DD form.
func validDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// nullable converts an empty string to NULL for insertion.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
