package sink

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/muurk/prolink/internal/discovery"
	"github.com/muurk/prolink/internal/ui"
)

// Output formats
const (
	FormatDetailed = "detailed"
	FormatCompact  = "compact"
	FormatJSON     = "json"
)

// Printer writes each fresh device to an io.Writer
type Printer struct {
	out    io.Writer
	format string
	namer  Namer
	now    func() time.Time
}

// NewPrinter creates a printer for format. namer may be nil.
func NewPrinter(out io.Writer, format string, namer Namer) (*Printer, error) {
	switch format {
	case FormatDetailed, FormatCompact, FormatJSON:
	case "":
		format = FormatDetailed
	default:
		return nil, fmt.Errorf("unknown output format %q (want detailed, compact or json)", format)
	}

	return &Printer{
		out:    out,
		format: format,
		namer:  namer,
		now:    time.Now,
	}, nil
}

// Format returns the resolved output format
func (p *Printer) Format() string {
	return p.format
}

// Handle implements Handler
func (p *Printer) Handle(d discovery.Device) error {
	event := NewEvent(d, p.now(), p.namer)

	var err error
	switch p.format {
	case FormatJSON:
		err = json.NewEncoder(p.out).Encode(event)
	case FormatCompact:
		_, err = fmt.Fprintln(p.out, FormatCompactLine(event))
	default:
		_, err = fmt.Fprintln(p.out, FormatDetailedBlock(event))
	}
	if err != nil {
		return fmt.Errorf("failed to write device: %w", err)
	}
	return nil
}

// FormatCompactLine renders an event on one line
func FormatCompactLine(e Event) string {
	name := e.Name
	if e.Nickname != "" {
		name = fmt.Sprintf("%s (%s)", e.Name, e.Nickname)
	}
	return fmt.Sprintf("%s  #%-2d %-24s %-15s %s  %s",
		e.SeenAt.Format("15:04:05"), e.ID, name, e.IP, e.MAC, e.KindName)
}

// FormatDetailedBlock renders an event as a styled multi-line block
func FormatDetailedBlock(e Event) string {
	var b strings.Builder

	title := ui.DeviceTitleStyle.Render(ui.FreshMarker + " " + e.Name)
	if e.Nickname != "" {
		title += " " + ui.NicknameStyle.Render("("+e.Nickname+")")
	}
	b.WriteString(title)
	b.WriteString("\n")

	rows := []ui.Param{
		{Key: "Player", Value: fmt.Sprintf("#%d (%s)", e.ID, e.KindName)},
		{Key: "IP", Value: e.IP},
		{Key: "MAC", Value: e.MAC},
		{Key: "Seen", Value: e.SeenAt.Format("15:04:05")},
	}
	for _, r := range rows {
		b.WriteString(ui.ResultKeyStyle.Render(r.Key+":") + ui.ResultValueStyle.Render(r.Value))
		b.WriteString("\n")
	}

	return b.String()
}
