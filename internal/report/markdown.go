// Package report renders the scan history for sharing outside the console.
package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"

	"github.com/bryanwahyu/threatdesk/internal/domain/profile"
	"github.com/bryanwahyu/threatdesk/internal/domain/scans"
)

// Data is everything a report shows.
type Data struct {
	Profile   profile.Profile
	Stats     scans.Stats
	Results   []scans.Result
	Generated time.Time
}

// WriteMarkdown writes d to w as a Markdown document.
func WriteMarkdown(w io.Writer, d Data) error {
	md := markdown.NewMarkdown(w)

	md.H1("Threat Console Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Operator", cell(d.Profile.Name)},
			{"Role", cell(d.Profile.Role)},
			{"Generated", d.Generated.Format("2006-01-02 15:04:05 MST")},
		},
	})
	md.PlainText("")

	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total scans", strconv.Itoa(d.Stats.Total)},
			{"Malicious", strconv.Itoa(d.Stats.Malicious)},
			{"Safety score", strconv.Itoa(d.Stats.SafetyScore) + "%"},
		},
	})
	md.PlainText("")
	writeAlert(md, d.Stats)

	md.H2("Scans")
	md.PlainText("")
	if len(d.Results) == 0 {
		md.PlainText("No scans recorded.")
		return md.Build()
	}
	rows := make([][]string, 0, len(d.Results))
	for _, r := range d.Results {
		rows = append(rows, []string{r.Timestamp, string(r.Type), statusIcon(r.Status) + " " + string(r.Status), cell(r.Analysis)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Time", "Type", "Status", "Analysis"},
		Rows:   rows,
	})
	return md.Build()
}

func writeAlert(md *markdown.Markdown, st scans.Stats) {
	switch {
	case st.Total == 0:
		md.Note("No targets have been scanned yet.")
	case st.SafetyScore < 50:
		md.Cautionf("Safety score is %d%%: %d of %d scanned targets were flagged.", st.SafetyScore, st.Malicious, st.Total)
	case st.Malicious > 0:
		md.Warningf("%d of %d scanned targets were flagged.", st.Malicious, st.Total)
	default:
		md.Tip("Every scanned target was clean.")
	}
	md.PlainText("")
}

func statusIcon(s scans.Status) string {
	switch s {
	case scans.StatusClean:
		return "🟢"
	case scans.StatusSuspicious:
		return "🟡"
	default:
		return "🔴"
	}
}

// cell keeps user text from breaking the table layout.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "\n", " ")
}
