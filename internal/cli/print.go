package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	json "github.com/goccy/go-json"
)

// render writes v as indented JSON in json mode, otherwise calls text with
// a tab-aligned writer.
func (c *cli) render(w io.Writer, v any, text func(tw *tabwriter.Writer)) error {
	if c.json() {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func fmtTimePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return fmtTime(*t)
}

func fmtDays(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v) + "d"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
