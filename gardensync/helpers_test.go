package gardensync

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var jst = time.FixedZone("JST", 9*60*60)

// testNow is 2024/05/02 12:00 JST.
var testNow = time.Date(2024, 5, 2, 12, 0, 0, 0, jst)

func testParseOptions() ParseOptions {
	return ParseOptions{Now: testNow, RelevanceWindow: DefaultRelevanceWindow, Location: jst}
}

// postLine builds one thread line in the board's <> format.
func postLine(author, stamp, userID, body string) string {
	return strings.Join([]string{author, "sage", stamp + " ID:" + userID, body}, FieldDelimiter)
}

func writeThread(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return p
}

func rewardBody(adminID string, amount string, tulip string) string {
	return `<font color="green"><strong>★ID:` + adminID + `に` + amount + `コ` + tulip + `を送りました。</strong></font>`
}
