package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/pensaconnect/connect/internal/model"
)

const maxTitleWidth = 40

// author is the name shown next to a request. Anonymous requests never show
// the username, even though the server still sends it.
func author(p model.PrayerRequest) string {
	if p.IsAnonymous() {
		return "Anonymous"
	}
	if name, ok := p.Username(); ok && name != "" {
		return name
	}
	return fmt.Sprintf("user #%d", p.UserID())
}

func renderTable(w io.Writer, list []model.PrayerRequest, now time.Time) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No prayer requests found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tAUTHOR\tTITLE\tSTATUS\tCATEGORY\tPRAYERS\tPOSTED")
	for _, p := range list {
		category, _ := p.Category()
		prayed := ""
		if p.HasPrayed() {
			prayed = " ✓"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d%s\t%s\n",
			p.ID(),
			author(p),
			truncate(p.Title(), maxTitleWidth),
			p.Status(),
			category,
			p.PrayersCount(), prayed,
			age(now, p.CreatedAt()),
		)
	}
	return tw.Flush()
}

func renderDetail(w io.Writer, p model.PrayerRequest, now time.Time) error {
	var b strings.Builder

	fmt.Fprintf(&b, "#%d %s\n", p.ID(), p.Title())

	meta := []string{"by " + author(p), string(p.Status())}
	if category, ok := p.Category(); ok && category != "" {
		meta = append(meta, category)
	}
	meta = append(meta, prayersLabel(p.PrayersCount()))
	if p.HasPrayed() {
		meta = append(meta, "you prayed")
	}
	fmt.Fprintln(&b, strings.Join(meta, " · "))

	posted := "posted " + age(now, p.CreatedAt())
	if updated, ok := p.UpdatedAt(); ok {
		posted += ", edited " + age(now, updated)
	}
	fmt.Fprintln(&b, posted)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, p.Content())

	_, err := io.WriteString(w, b.String())
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func prayersLabel(n int) string {
	if n == 1 {
		return "1 prayer"
	}
	return fmt.Sprintf("%d prayers", n)
}

// age renders t relative to now: "just now", "5m ago", "3h ago", "2d ago",
// then the plain date once it is more than a week old.
func age(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.UTC().Format("2006-01-02")
	}
}

func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width-1]) + "…"
}
