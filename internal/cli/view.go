package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/rodaine/table"

	"github.com/chazuruo/piodl/internal/platform"
	"github.com/chazuruo/piodl/internal/receipt"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 2)

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	doneStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
)

func printBanner(out io.Writer) {
	_, _ = fmt.Fprintln(out, bannerStyle.Render("PlatformIO Packages Download"))
	_, _ = fmt.Fprintln(out)
}

// printVerification shows what is about to be installed and where.
func printVerification(out io.Writer, p platform.Platform, src platform.Source, previous *receipt.Receipt) {
	_, _ = fmt.Fprintln(out, "Please verify the following information:")

	prev := "none"
	if previous != nil {
		prev = previous.Summary()
	}

	tbl := table.New("Setting", "Value").
		WithWriter(out).
		WithHeaderFormatter(func(format string, vals ...interface{}) string {
			return headerStyle.Render(fmt.Sprintf(format, vals...))
		}).
		WithFirstColumnFormatter(func(format string, vals ...interface{}) string {
			return labelStyle.Render(fmt.Sprintf(format, vals...))
		})
	tbl.AddRow("OS", p.String())
	tbl.AddRow(".platformio path", src.Destination)
	tbl.AddRow("Package", src.URL)
	tbl.AddRow("Previous install", prev)
	tbl.Print()

	_, _ = fmt.Fprintln(out)
}

func printDone(out io.Writer) {
	_, _ = fmt.Fprintln(out, doneStyle.Render("Done!"))
}

// progressLine renders download progress as a single line rewritten in
// place with a carriage return.
type progressLine struct {
	out  io.Writer
	bar  progress.Model
	open bool
}

func newProgressLine(out io.Writer, width int) *progressLine {
	return &progressLine{
		out: out,
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(width),
			progress.WithoutPercentage(),
		),
	}
}

// Start prints the download size. It matches fetch.StartHook.
func (l *progressLine) Start(total int64) {
	if total > 0 {
		_, _ = fmt.Fprintf(l.out, "Download size: %s\n", formatMB(total))
		return
	}
	_, _ = fmt.Fprintln(l.out, "Download size: unknown")
}

// Update redraws the line. It matches fetch.ProgressHook.
// Without a known total only the byte count is shown.
func (l *progressLine) Update(downloaded, total int64) {
	l.open = true
	if total > 0 {
		frac := float64(downloaded) / float64(total)
		_, _ = fmt.Fprintf(l.out, "\r%s %6.2f%%", l.bar.ViewAs(frac), frac*100)
		return
	}
	_, _ = fmt.Fprintf(l.out, "\r%s downloaded", formatMB(downloaded))
}

// Finish ends the progress line. Safe to call more than once.
func (l *progressLine) Finish() {
	if !l.open {
		return
	}
	l.open = false
	_, _ = fmt.Fprint(l.out, "\n\n")
}

func formatMB(n int64) string {
	return fmt.Sprintf("%.2f MB", float64(n)/1_000_000)
}
