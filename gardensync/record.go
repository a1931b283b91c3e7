package gardensync

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// FieldDelimiter separates the fields of one post line in a thread file.
const FieldDelimiter = "<>"

const dateLayout = "2006/01/02"

var (
	datePattern   = regexp.MustCompile(`(\d{4}/\d{2}/\d{2})`)
	hourPattern   = regexp.MustCompile(`\s(\d{1,2}):\d{2}:\d{2}`)
	userIDPattern = regexp.MustCompile(`ID:(\S+)`)
)

// Record is one post line: author<>mail<>"date time ID:user"<>body.
type Record struct {
	AuthorField  string
	TimestampRaw string
	UserID       string
	Body         string
}

// NormalizedTime is the post's date and hour after the late-night overflow
// (25:30 -> next day 01:30) has been folded back into a valid calendar date.
type NormalizedTime struct {
	Date string
	Hour int
}

type ParseOptions struct {
	Now             time.Time
	RelevanceWindow time.Duration
	Location        *time.Location
}

// ParseLine returns ok=false for every line that must not be counted:
// too few fields, no date or hour, no user id, or older than the relevance window.
func ParseLine(line string, opts ParseOptions) (Record, NormalizedTime, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Record{}, NormalizedTime{}, false
	}
	parts := strings.Split(line, FieldDelimiter)
	if len(parts) < 3 {
		return Record{}, NormalizedTime{}, false
	}
	rec := Record{AuthorField: parts[0], TimestampRaw: parts[2]}
	if len(parts) > 3 {
		rec.Body = parts[3]
	}

	dm := datePattern.FindStringSubmatch(rec.TimestampRaw)
	hm := hourPattern.FindStringSubmatch(rec.TimestampRaw)
	if dm == nil || hm == nil {
		return Record{}, NormalizedTime{}, false
	}
	hour, err := strconv.Atoi(hm[1])
	if err != nil {
		return Record{}, NormalizedTime{}, false
	}
	nt, ts, ok := normalizeTime(dm[1], hour, opts.location())
	if !ok {
		return Record{}, NormalizedTime{}, false
	}
	if !opts.relevant(ts) {
		return Record{}, NormalizedTime{}, false
	}

	im := userIDPattern.FindStringSubmatch(rec.TimestampRaw)
	if im == nil {
		return Record{}, NormalizedTime{}, false
	}
	rec.UserID = im[1]
	return rec, nt, true
}

func normalizeTime(date string, hour int, loc *time.Location) (NormalizedTime, time.Time, bool) {
	day, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return NormalizedTime{}, time.Time{}, false
	}
	if hour >= 24 {
		day = day.AddDate(0, 0, hour/24)
		hour %= 24
	}
	ts := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, loc)
	return NormalizedTime{Date: day.Format(dateLayout), Hour: hour}, ts, true
}

// relevant reports whether a post stamped ts is inside the relevance window.
func (o ParseOptions) relevant(ts time.Time) bool {
	return o.RelevanceWindow <= 0 || !ts.Before(o.Now.Add(-o.RelevanceWindow))
}

func (o ParseOptions) location() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}

// LoadLocation falls back to the local zone when the tz database lacks name.
func LoadLocation(name string) *time.Location {
	if strings.TrimSpace(name) == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}
