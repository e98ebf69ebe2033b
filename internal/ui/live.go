package ui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/prolink/internal/discovery"
)

// Messages for the live view
type deviceMsg discovery.Device
type sourceClosedMsg struct{}
type tickMsg time.Time

// Namer resolves a nickname for a MAC address
type Namer interface {
	Nickname(mac string) string
}

// sighting is a device row plus when it was last reported fresh
type sighting struct {
	device discovery.Device
	seen   time.Time
}

// LiveModel shows players as the listener reports them
type LiveModel struct {
	source   <-chan discovery.Device
	namer    Namer
	now      func() time.Time
	devices  map[discovery.Key]sighting
	table    table.Model
	spinner  spinner.Model
	bindAddr string
	closed   bool
	width    int
}

// NewLiveModel creates a live view fed from source. namer may be nil.
func NewLiveModel(source <-chan discovery.Device, bindAddr string, namer Namer) LiveModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "#", Width: 3},
			{Title: "Name", Width: 20},
			{Title: "Nickname", Width: 14},
			{Title: "IP", Width: 15},
			{Title: "MAC", Width: 17},
			{Title: "Kind", Width: 10},
			{Title: "Found", Width: 8},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	width, _ := GetTerminalSize()
	return LiveModel{
		source:   source,
		namer:    namer,
		now:      time.Now,
		devices:  make(map[discovery.Key]sighting),
		table:    t,
		spinner:  s,
		bindAddr: bindAddr,
		width:    width,
	}
}

// waitForDevice blocks on the next device from the listener
func waitForDevice(source <-chan discovery.Device) tea.Cmd {
	return func() tea.Msg {
		d, ok := <-source
		if !ok {
			return sourceClosedMsg{}
		}
		return deviceMsg(d)
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init implements tea.Model
func (m LiveModel) Init() tea.Cmd {
	return tea.Batch(waitForDevice(m.source), m.spinner.Tick, tick())
}

// Update implements tea.Model
func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if h := msg.Height - 8; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil

	case deviceMsg:
		d := discovery.Device(msg)
		m.devices[d.Key()] = sighting{device: d, seen: m.now()}
		m.refreshRows()
		return m, waitForDevice(m.source)

	case sourceClosedMsg:
		m.closed = true
		return m, nil

	case tickMsg:
		m.refreshRows()
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// refreshRows rebuilds the table, ordered by address then player number
func (m *LiveModel) refreshRows() {
	keys := make([]discovery.Key, 0, len(m.devices))
	for k := range m.devices {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if c := keys[i].IP.Compare(keys[j].IP); c != 0 {
			return c < 0
		}
		return keys[i].ID < keys[j].ID
	})

	now := m.now()
	rows := make([]table.Row, 0, len(keys))
	for _, k := range keys {
		s := m.devices[k]
		nickname := ""
		if m.namer != nil {
			nickname = m.namer.Nickname(s.device.MAC.String())
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", s.device.ID),
			s.device.Name,
			nickname,
			s.device.IP.String(),
			s.device.MAC.String(),
			discovery.KindName(s.device.Kind),
			formatAge(now.Sub(s.seen)),
		})
	}
	m.table.SetRows(rows)
}

// View implements tea.Model
func (m LiveModel) View() string {
	var b strings.Builder

	status := m.spinner.View() + " Listening on " + m.bindAddr
	if m.closed {
		status = ErrorMessageStyle.Render(FailureMarker + " Listener stopped")
	}
	b.WriteString(HeaderTitleStyle.Render("PRO DJ LINK DISCOVERY"))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(status))
	b.WriteString("\n\n")

	if len(m.devices) == 0 {
		b.WriteString(HelpStyle.Render("No players yet. Players announce every 1.5 seconds."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.table.View())
		b.WriteString("\n")
		b.WriteString(HelpStyle.Render(fmt.Sprintf("%d player(s)", len(m.devices))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("↑/↓ select • q quit"))
	b.WriteString("\n")
	return b.String()
}

// DeviceCount returns the number of players shown
func (m LiveModel) DeviceCount() int {
	return len(m.devices)
}

// formatAge renders a duration as a short "found ago" label
func formatAge(d time.Duration) string {
	switch {
	case d < time.Second:
		return "now"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
}

// RunLive runs the live view until the user quits or ctx is cancelled
func RunLive(ctx context.Context, source <-chan discovery.Device, bindAddr string, namer Namer) error {
	p := tea.NewProgram(NewLiveModel(source, bindAddr, namer), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
