package checkin

import (
	"fmt"
	"strings"
	"time"
)

// MissingPolicy selects how MissingToday treats players with several records.
type MissingPolicy string

const (
	// PolicyDistinct reduces the records to one row per jersey (the most
	// recent) before checking who has not checked in.
	PolicyDistinct MissingPolicy = "distinct"
	// PolicyLiteral reports every record whose jersey has not checked in,
	// so a player appears once per historical record. Jerseys still compare
	// by normalized key, so 7 and "7" are the same player.
	PolicyLiteral MissingPolicy = "literal"
)

// ParsePolicy parses a policy name; the empty string selects PolicyDistinct.
func ParsePolicy(s string) (MissingPolicy, error) {
	switch MissingPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyDistinct:
		return PolicyDistinct, nil
	case PolicyLiteral:
		return PolicyLiteral, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Views are the three derived dashboard lists.
type Views struct {
	Date    string
	Policy  MissingPolicy
	Today   []Record
	Alerts  []Record
	Missing []Record
}

// Today formats the calendar date of now in loc. A nil loc means UTC.
func Today(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format(DateLayout)
}

// Derive computes all three views against a single reference date.
func Derive(records []Record, today string, policy MissingPolicy) Views {
	checkedIn := TodaysCheckins(records, today)
	return Views{
		Date:    today,
		Policy:  policy,
		Today:   checkedIn,
		Alerts:  AlertPlayers(records),
		Missing: MissingToday(records, checkedIn, policy),
	}
}

// TodaysCheckins returns the records whose Date equals today exactly.
func TodaysCheckins(records []Record, today string) []Record {
	return filter(records, func(r Record) bool {
		return r.Fields.Date == today
	})
}

// AlertPlayers returns every record that needs coach attention, regardless
// of its date.
func AlertPlayers(records []Record) []Record {
	return filter(records, NeedsAttention)
}

// NeedsAttention reports whether a coach action was requested or the player
// reported that something is physically not right.
func NeedsAttention(r Record) bool {
	return r.Fields.CoachActionNeeded || r.Fields.Physical == PhysicalConcern
}

// MissingToday returns the records whose jersey does not appear among the
// jerseys of checkedInToday.
func MissingToday(records, checkedInToday []Record, policy MissingPolicy) []Record {
	seen := make(map[string]struct{}, len(checkedInToday))
	for _, r := range checkedInToday {
		seen[r.Fields.Jersey] = struct{}{}
	}
	if policy != PolicyLiteral {
		records = LatestPerPlayer(records)
	}
	return filter(records, func(r Record) bool {
		_, ok := seen[r.Fields.Jersey]
		return !ok
	})
}

// LatestPerPlayer keeps one record per jersey: the one with the latest valid
// Date. A dated record beats an undated one; ties keep the first seen.
// Kept records stay at their own input positions.
func LatestPerPlayer(records []Record) []Record {
	chosen := make(map[string]int, len(records))
	for i, r := range records {
		j, ok := chosen[r.Fields.Jersey]
		if !ok || newer(r.Fields.Date, records[j].Fields.Date) {
			chosen[r.Fields.Jersey] = i
		}
	}
	out := make([]Record, 0, len(chosen))
	for i, r := range records {
		if chosen[r.Fields.Jersey] == i {
			out = append(out, r)
		}
	}
	return out
}

func newer(candidate, current string) bool {
	c, cErr := time.Parse(DateLayout, candidate)
	if cErr != nil {
		return false
	}
	k, kErr := time.Parse(DateLayout, current)
	if kErr != nil {
		return true
	}
	return c.After(k)
}

func filter(records []Record, keep func(Record) bool) []Record {
	out := make([]Record, 0)
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
