package gardensync

import (
	"sort"
	"time"
)

// Defaults for the two independent windows. Records older than the relevance
// window are never counted; dates older than the retention window are pruned
// from persisted state.
const (
	DefaultRelevanceWindow = 48 * time.Hour
	DefaultRetentionWindow = 24 * time.Hour
)

const noDate = "0000/00/00"

type ReconcileOptions struct {
	Now             time.Time
	RetentionWindow time.Duration
	Location        *time.Location
}

// DedupDecision records which key survived for a user that had several.
type DedupDecision struct {
	UserID  string
	Kept    string
	Dropped []string
}

type ReconcileReport struct {
	RoutedUsers   int
	DroppedUsers  int
	CreatedKeys   int
	TriggersAdded int
	PrunedKeys    int
	Deduplicated  []DedupDecision
}

// Reconcile folds one run's scan into the previously persisted state and
// returns the new state. existing is not modified.
func Reconcile(existing FinalState, scan FileResult, opts ReconcileOptions) (FinalState, ReconcileReport) {
	var rep ReconcileReport
	final := existing.Clone()

	userToKey := resolveKeys(final, &scan.GameToUser)
	foldCounts(final, userToKey, scan.UserStats, &rep)
	foldTriggers(final, scan.SecretTriggers, &rep)
	rep.PrunedKeys = prune(final, pruneCutoff(opts))
	rep.Deduplicated = dedupe(final)
	return final, rep
}

// resolveKeys builds user -> game key from persisted entries, then lets every
// binding seen in this scan overwrite it.
func resolveKeys(final FinalState, bindings *KeyBindings) map[string]string {
	out := make(map[string]string, len(final)+bindings.Len())
	for _, key := range final.Keys() {
		if id := final[key].ID; id != "" {
			out[id] = key
		}
	}
	bindings.Each(func(key, userID string) {
		out[userID] = key
	})
	return out
}

// foldCounts recomputes counts of every key touched in this run: the first
// fold into a key replaces what was persisted, later folds add to it. An
// existing entry keeps its id even when another user's posts land in it.
func foldCounts(final FinalState, userToKey map[string]string, stats UserStats, rep *ReconcileReport) {
	touched := make(map[string]bool)
	for _, userID := range stats.Users() {
		key, ok := userToKey[userID]
		if !ok {
			rep.DroppedUsers++
			continue
		}
		entry, ok := final[key]
		if !ok {
			entry = newFinalEntry(userID)
			final[key] = entry
			rep.CreatedKeys++
		}
		entry.normalize()
		if !touched[key] {
			entry.Counts = DateCounts{}
			touched[key] = true
		}
		for date, hours := range stats[userID] {
			for h, c := range hours {
				entry.Counts.add(date, h, c)
			}
		}
		rep.RoutedUsers++
	}
}

func foldTriggers(final FinalState, triggers Triggers, rep *ReconcileReport) {
	keys := final.Keys()
	for _, userID := range triggers.Users() {
		for _, key := range keys {
			entry := final[key]
			if entry.ID != userID {
				continue
			}
			entry.normalize()
			for _, h := range triggers[userID] {
				if entry.addTrigger(h) {
					rep.TriggersAdded++
				}
			}
		}
	}
}

func pruneCutoff(opts ReconcileOptions) string {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	window := opts.RetentionWindow
	if window <= 0 {
		window = DefaultRetentionWindow
	}
	return opts.Now.In(loc).Add(-window).Format(dateLayout)
}

// prune drops dates before cutoff and then every entry left without dates.
func prune(final FinalState, cutoff string) int {
	var empty []string
	for key, entry := range final {
		for date := range entry.Counts {
			if date < cutoff {
				delete(entry.Counts, date)
			}
		}
		if len(entry.Counts) == 0 {
			empty = append(empty, key)
		}
	}
	for _, key := range empty {
		delete(final, key)
	}
	return len(empty)
}

type keyActivity struct {
	key      string
	lastDate string
	lastSum  int
}

// dedupe keeps one key per user: latest active date, then most posts on that
// date, then the greatest key.
func dedupe(final FinalState) []DedupDecision {
	byUser := make(map[string][]string)
	for _, key := range final.Keys() {
		id := final[key].ID
		if id == "" {
			continue
		}
		byUser[id] = append(byUser[id], key)
	}

	users := make([]string, 0, len(byUser))
	for u, keys := range byUser {
		if len(keys) > 1 {
			users = append(users, u)
		}
	}
	sort.Strings(users)

	var decisions []DedupDecision
	for _, userID := range users {
		acts := make([]keyActivity, 0, len(byUser[userID]))
		for _, key := range byUser[userID] {
			counts := final[key].Counts
			a := keyActivity{key: key, lastDate: noDate}
			if last, ok := counts.LastDate(); ok {
				a.lastDate = last
				a.lastSum = counts[last].Total()
			}
			acts = append(acts, a)
		}
		sort.Slice(acts, func(i, j int) bool {
			if acts[i].lastDate != acts[j].lastDate {
				return acts[i].lastDate > acts[j].lastDate
			}
			if acts[i].lastSum != acts[j].lastSum {
				return acts[i].lastSum > acts[j].lastSum
			}
			return acts[i].key > acts[j].key
		})
		d := DedupDecision{UserID: userID, Kept: acts[0].key}
		for _, a := range acts[1:] {
			delete(final, a.key)
			d.Dropped = append(d.Dropped, a.key)
		}
		decisions = append(decisions, d)
	}
	return decisions
}
