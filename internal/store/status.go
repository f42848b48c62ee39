package store

import (
	"fmt"
	"strings"
)

// Status is the persisted review state of a record. The integer codes are
// stored in the database and must not be renumbered.
type Status int

const (
	StatusUnprocessed    Status = 0
	StatusReviewing      Status = 1
	StatusFinalized      Status = 2
	StatusRejected       Status = 3
	StatusUnavailable    Status = 4
	StatusRetweetSkipped Status = 5
	StatusPreprocessed   Status = 6
)

var statusNames = map[Status]string{
	StatusUnprocessed:    "UNPROCESSED",
	StatusReviewing:      "REVIEWING",
	StatusFinalized:      "FINALIZED",
	StatusRejected:       "REJECTED",
	StatusUnavailable:    "UNAVAILABLE",
	StatusRetweetSkipped: "RETWEET_SKIPPED",
	StatusPreprocessed:   "PREPROCESSED",
}

// AllStatuses lists every status in code order.
var AllStatuses = []Status{
	StatusUnprocessed,
	StatusReviewing,
	StatusFinalized,
	StatusRejected,
	StatusUnavailable,
	StatusRetweetSkipped,
	StatusPreprocessed,
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

func (s Status) IsValid() bool {
	_, ok := statusNames[s]
	return ok
}

// IsTerminal reports whether a record in this status is never handed out
// for review again.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusFinalized, StatusRejected, StatusUnavailable, StatusRetweetSkipped:
		return true
	}
	return false
}

// Schedulable returns the statuses that may be handed out for review.
func Schedulable() []Status {
	return []Status{StatusUnprocessed, StatusPreprocessed}
}

// ParseStatus accepts a status name in any case.
func ParseStatus(name string) (Status, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for st, n := range statusNames {
		if n == upper {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown status: %q", name)
}

func statusCodes(statuses []Status) []int {
	codes := make([]int, len(statuses))
	for i, s := range statuses {
		codes[i] = int(s)
	}
	return codes
}
