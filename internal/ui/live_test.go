package ui

import (
	"net"
	"net/netip"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/prolink/internal/config"
	"github.com/muurk/prolink/internal/discovery"
)

type stubNamer map[string]string

func (n stubNamer) Nickname(mac string) string { return n[mac] }

func liveDevice(id uint8) discovery.Device {
	return discovery.Device{
		Name: "CDJ-2000",
		ID:   id,
		MAC:  net.HardwareAddr{0x00, 0x01, 0x02, 0x03, 0x04, id},
		IP:   netip.MustParseAddr("192.168.1.50"),
		Kind: discovery.KindCDJ,
	}
}

func TestLiveModel_DeviceMessages(t *testing.T) {
	source := make(chan discovery.Device)
	m := NewLiveModel(source, "0.0.0.0:50000", stubNamer{"00:01:02:03:04:01": "Booth left"})

	updated, cmd := m.Update(deviceMsg(liveDevice(1)))
	if cmd == nil {
		t.Error("Update(deviceMsg) should keep waiting for devices")
	}
	m = updated.(LiveModel)

	updated, _ = m.Update(deviceMsg(liveDevice(2)))
	m = updated.(LiveModel)

	// A rediscovery replaces the row rather than adding one
	updated, _ = m.Update(deviceMsg(liveDevice(1)))
	m = updated.(LiveModel)

	if m.DeviceCount() != 2 {
		t.Errorf("DeviceCount() = %v, want 2", m.DeviceCount())
	}

	view := m.View()
	for _, want := range []string{"CDJ-2000", "Booth left", "192.168.1.50", "2 player(s)"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestLiveModel_Empty(t *testing.T) {
	m := NewLiveModel(make(chan discovery.Device), "0.0.0.0:50000", nil)

	if !strings.Contains(m.View(), "No players yet") {
		t.Error("View() should explain that no players were found")
	}
	if !strings.Contains(m.View(), "0.0.0.0:50000") {
		t.Error("View() should show the bind address")
	}
}

func TestLiveModel_SourceClosed(t *testing.T) {
	source := make(chan discovery.Device)
	close(source)
	m := NewLiveModel(source, "0.0.0.0:50000", nil)

	msg := waitForDevice(source)()
	if _, ok := msg.(sourceClosedMsg); !ok {
		t.Fatalf("waitForDevice() on closed source = %T, want sourceClosedMsg", msg)
	}

	updated, _ := m.Update(msg)
	if !strings.Contains(updated.(LiveModel).View(), "Listener stopped") {
		t.Error("View() should report that the listener stopped")
	}
}

func TestLiveModel_Quit(t *testing.T) {
	m := NewLiveModel(make(chan discovery.Device), "0.0.0.0:50000", nil)

	tests := []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyCtrlC},
		{Type: tea.KeyEsc},
	}

	for _, key := range tests {
		t.Run(key.String(), func(t *testing.T) {
			_, cmd := m.Update(key)
			if cmd == nil {
				t.Fatal("Update() returned no command, want tea.Quit")
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Error("Update() command did not quit")
			}
		})
	}
}

func TestLiveModel_FoundAge(t *testing.T) {
	now := time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC)
	m := NewLiveModel(make(chan discovery.Device), "0.0.0.0:50000", nil)
	m.now = func() time.Time { return now }

	updated, _ := m.Update(deviceMsg(liveDevice(1)))
	m = updated.(LiveModel)

	now = now.Add(42 * time.Second)
	updated, _ = m.Update(tickMsg(now))
	m = updated.(LiveModel)

	if !strings.Contains(m.View(), "42s") {
		t.Error("View() should show the time since the player was found")
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		age  time.Duration
		want string
	}{
		{500 * time.Millisecond, "now"},
		{12 * time.Second, "12s"},
		{3 * time.Minute, "3m"},
		{2 * time.Hour, "2h"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := formatAge(tt.age); got != tt.want {
				t.Errorf("formatAge(%v) = %v, want %v", tt.age, got, tt.want)
			}
		})
	}
}

func TestHeader_Render(t *testing.T) {
	h := NewHeader("Pro DJ Link discovery", "prolink listen",
		Param{Key: "Bind", Value: "0.0.0.0:50000"},
		Param{Key: "Format", Value: "detailed"},
	).SetWidth(80)

	out := h.Render()
	for _, want := range []string{"PRO DJ LINK DISCOVERY", "prolink listen", "0.0.0.0:50000", "detailed"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q", want)
		}
	}

	if strings.Index(out, "Bind") > strings.Index(out, "Format") {
		t.Error("Render() should keep parameter order")
	}
}

func TestLiveModel_NamerUpdatedConcurrently(t *testing.T) {
	reg := config.NewRegistry()
	m := NewLiveModel(make(chan discovery.Device), "0.0.0.0:50000", reg)

	updated, _ := m.Update(deviceMsg(liveDevice(1)))
	m = updated.(LiveModel)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 2000; i++ {
			reg.RecordSighting(config.Sighting{
				MAC: liveDevice(uint8(i)).MAC.String(),
				IP:  "192.168.1.50",
				ID:  i % 256,
			}, time.Now())
		}
		reg.SetDeviceNickname(liveDevice(1).MAC.String(), "Booth left")
	}()

	for i := 0; i < 200; i++ {
		updated, _ = m.Update(tickMsg(time.Now()))
		m = updated.(LiveModel)
	}
	<-done

	updated, _ = m.Update(tickMsg(time.Now()))
	m = updated.(LiveModel)
	if !strings.Contains(m.View(), "Booth left") {
		t.Error("View() missing nickname set while the view was running")
	}
}
