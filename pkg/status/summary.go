package status

import (
	"sort"
	"time"
)

// 🧮 Summary aggregates the events of a whole run
type Summary struct {
	OK       int
	NoChange int
	Skip     int
	Error    int
	Stats    map[string]int
	Elapsed  time.Duration
}

// Add counts one event. Only status and update events change the summary.
func (s *Summary) Add(ev Event) {
	switch ev.Action {
	case ActionStatus:
		switch ev.Status {
		case StatusOK:
			s.OK++
		case StatusNoChange:
			s.NoChange++
		case StatusSkip:
			s.Skip++
		default:
			s.Error++
		}
	case ActionUpdate:
		if s.Stats == nil {
			s.Stats = map[string]int{}
		}
		s.Stats[ev.Name] += ev.Quantity
	}
}

// Total is the number of status events counted.
func (s *Summary) Total() int {
	return s.OK + s.NoChange + s.Skip + s.Error
}

// StatNames returns the stat names, sorted.
func (s *Summary) StatNames() []string {
	names := make([]string, 0, len(s.Stats))
	for name := range s.Stats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
