package gardensync

import "sort"

// HourCounts maps hour of day (0..23) to a post count.
type HourCounts map[int]int

func (h HourCounts) Total() int {
	total := 0
	for _, c := range h {
		total += c
	}
	return total
}

// DateCounts maps a YYYY/MM/DD date to its hourly histogram. Date strings in
// that layout sort chronologically.
type DateCounts map[string]HourCounts

// LastDate returns the most recent date that has an entry.
func (d DateCounts) LastDate() (string, bool) {
	last := ""
	for date := range d {
		if date > last {
			last = date
		}
	}
	return last, last != ""
}

func (d DateCounts) add(date string, hour int, n int) {
	hours, ok := d[date]
	if !ok {
		hours = HourCounts{}
		d[date] = hours
	}
	hours[hour] += n
}

func (d DateCounts) clone() DateCounts {
	out := make(DateCounts, len(d))
	for date, hours := range d {
		hc := make(HourCounts, len(hours))
		for h, c := range hours {
			hc[h] = c
		}
		out[date] = hc
	}
	return out
}

// UserStats is user id -> date -> hour -> count. Only Add inserts; reads never do.
type UserStats map[string]DateCounts

func (s UserStats) Add(userID string, date string, hour int, n int) {
	dates, ok := s[userID]
	if !ok {
		dates = DateCounts{}
		s[userID] = dates
	}
	dates.add(date, hour, n)
}

func (s UserStats) count(userID string, date string, hour int) int {
	return s[userID][date][hour]
}

// Users returns the user ids in sorted order.
func (s UserStats) Users() []string {
	out := make([]string, 0, len(s))
	for u := range s {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// MergeStats sums a and b into a new value.
func MergeStats(a, b UserStats) UserStats {
	out := make(UserStats, len(a)+len(b))
	for _, src := range []UserStats{a, b} {
		for user, dates := range src {
			for date, hours := range dates {
				for h, c := range hours {
					out.Add(user, date, h, c)
				}
			}
		}
	}
	return out
}

// Triggers is user id -> reward event hashes in first-seen order, no duplicates.
type Triggers map[string][]string

// Add reports whether hash was new for userID.
func (t Triggers) Add(userID string, hash string) bool {
	for _, h := range t[userID] {
		if h == hash {
			return false
		}
	}
	t[userID] = append(t[userID], hash)
	return true
}

func (t Triggers) Users() []string {
	out := make([]string, 0, len(t))
	for u := range t {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// MergeTriggers unions a and b, a's hashes first.
func MergeTriggers(a, b Triggers) Triggers {
	out := make(Triggers, len(a)+len(b))
	for _, src := range []Triggers{a, b} {
		for user, hashes := range src {
			for _, h := range hashes {
				out.Add(user, h)
			}
		}
	}
	return out
}
