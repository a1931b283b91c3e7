package gardensync

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
)

// DefaultRefillCost is the minimum amount a reward message must carry.
const DefaultRefillCost = 30

// TriggerDetector recognises the green "sent N tulips to <admin>" message.
// A nil detector detects nothing.
type TriggerDetector struct {
	pattern   *regexp.Regexp
	threshold int
}

func NewTriggerDetector(adminID string, threshold int) *TriggerDetector {
	adminID = strings.TrimSpace(adminID)
	if adminID == "" {
		return nil
	}
	pattern := regexp.MustCompile(`<font\s+color\s*=\s*["']?green["']?\s*><strong>★ID:` +
		regexp.QuoteMeta(adminID) +
		`に(\d+)コ(?:&#x1F337;|🌷)を送りました。</strong></font>`)
	return &TriggerDetector{pattern: pattern, threshold: threshold}
}

// Detect returns the event hash and amount of a qualifying message.
func (d *TriggerDetector) Detect(rec Record) (string, int, bool) {
	if d == nil || rec.Body == "" {
		return "", 0, false
	}
	m := d.pattern.FindStringSubmatch(rec.Body)
	if m == nil {
		return "", 0, false
	}
	amount, err := strconv.Atoi(m[1])
	if err != nil || amount < d.threshold {
		return "", 0, false
	}
	return EventHash(rec), amount, true
}

// EventHash identifies one posted message; a thread file re-read later yields
// the same hash for the same post.
func EventHash(rec Record) string {
	sum := md5.Sum([]byte(rec.TimestampRaw + rec.Body))
	return hex.EncodeToString(sum[:])
}
