package scheduler

import "fmt"

// Priority orders dispatch among ready nodes. It never affects correctness:
// a lower-priority node still runs once its prerequisites resolve and a
// worker reaches its queue.
type Priority int

// Priority levels, highest first. Foreground levels are meant for work the
// host is actively waiting on; background levels for opportunistic work.
const (
	High Priority = iota
	Normal
	Low
	BackgroundHigh
	BackgroundNormal
	BackgroundLow

	numPriorities
)

var priorityNames = map[Priority]string{
	High:             "high",
	Normal:           "normal",
	Low:              "low",
	BackgroundHigh:   "background_high",
	BackgroundNormal: "background_normal",
	BackgroundLow:    "background_low",
}

// String returns the canonical lower-case name of the priority.
func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

func (p Priority) valid() bool {
	return p >= High && p < numPriorities
}

// ParsePriority converts a canonical priority name (as used in grid files)
// back into a Priority value.
func ParsePriority(s string) (Priority, error) {
	for p, name := range priorityNames {
		if name == s {
			return p, nil
		}
	}
	return Normal, fmt.Errorf("unknown priority %q", s)
}
