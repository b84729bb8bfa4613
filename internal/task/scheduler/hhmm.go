package scheduler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// One- or two-digit hour, two-digit minute.
var reHHMM = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)

// ParseHHMM parses a wall-clock time such as "9:05" or "21:30".
func ParseHHMM(s string) (hour, minute int, err error) {
	m := reHHMM.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	return hour, minute, nil
}

// NormalizeHHMM returns s as zero-padded "HH:MM".
func NormalizeHHMM(s string) (string, bool) {
	h, m, err := ParseHHMM(s)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", h, m), true
}
