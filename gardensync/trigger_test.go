package gardensync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerDetector_Threshold(t *testing.T) {
	d := NewTriggerDetector("ADMIN01", 30)
	require.NotNil(t, d)

	below := Record{TimestampRaw: "2024/05/02 10:00:00 ID:u1", Body: rewardBody("ADMIN01", "29", "🌷")}
	_, _, ok := d.Detect(below)
	assert.False(t, ok)

	at := Record{TimestampRaw: "2024/05/02 10:00:00 ID:u1", Body: rewardBody("ADMIN01", "30", "&#x1F337;")}
	hash, amount, ok := d.Detect(at)
	assert.True(t, ok)
	assert.Equal(t, 30, amount)
	assert.Equal(t, EventHash(at), hash)
	assert.Len(t, hash, 32)
}

func TestTriggerDetector_OtherAdminAndDisabled(t *testing.T) {
	rec := Record{TimestampRaw: "2024/05/02 10:00:00 ID:u1", Body: rewardBody("SOMEONE", "99", "🌷")}
	_, _, ok := NewTriggerDetector("ADMIN01", 30).Detect(rec)
	assert.False(t, ok)

	disabled := NewTriggerDetector("  ", 30)
	assert.Nil(t, disabled)
	_, _, ok = disabled.Detect(rec)
	assert.False(t, ok)
}

func TestTriggerDetector_AdminIDIsQuoted(t *testing.T) {
	d := NewTriggerDetector("a.b+c", 1)
	_, _, ok := d.Detect(Record{Body: rewardBody("aXb+c", "5", "🌷")})
	assert.False(t, ok)
	_, _, ok = d.Detect(Record{Body: rewardBody("a.b+c", "5", "🌷")})
	assert.True(t, ok)
}

func TestExtractText_DuplicateRewardCountsOnce(t *testing.T) {
	body := rewardBody("ADMIN01", "45", "🌷")
	line := postLine("n", "2024/05/02 10:00:00", "u1", body)
	res, n := ExtractText(line+"\n"+line, ExtractOptions{Parse: testParseOptions(), Detector: NewTriggerDetector("ADMIN01", 30)})
	assert.Equal(t, 2, n)
	assert.Len(t, res.SecretTriggers["u1"], 1)
}

func TestTriggerDetector_ZeroThresholdAcceptsAnyAmount(t *testing.T) {
	d := NewTriggerDetector("ADMIN01", 0)
	_, amount, ok := d.Detect(Record{Body: rewardBody("ADMIN01", "0", "🌷")})
	assert.True(t, ok)
	assert.Equal(t, 0, amount)
}
