package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/muurk/prolink/internal/config"
	"github.com/muurk/prolink/internal/discovery"
)

var fixedTime = time.Date(2025, 6, 1, 22, 15, 30, 0, time.UTC)

type stubNamer map[string]string

func (n stubNamer) Nickname(mac string) string { return n[mac] }

func sinkDevice(ip string, id uint8) discovery.Device {
	return discovery.Device{
		Name: "CDJ-2000",
		ID:   id,
		MAC:  net.HardwareAddr{0x00, 0x01, 0x02, 0x03, 0x04, id},
		IP:   netip.MustParseAddr(ip),
		Kind: discovery.KindCDJ,
	}
}

func TestNewEvent(t *testing.T) {
	e := NewEvent(sinkDevice("192.168.1.50", 1), fixedTime, stubNamer{"00:01:02:03:04:01": "Booth left"})

	if e.MAC != "00:01:02:03:04:01" {
		t.Errorf("MAC = %v, want 00:01:02:03:04:01", e.MAC)
	}
	if e.IP != "192.168.1.50" {
		t.Errorf("IP = %v, want 192.168.1.50", e.IP)
	}
	if e.KindName != "cdj" {
		t.Errorf("KindName = %v, want cdj", e.KindName)
	}
	if e.Nickname != "Booth left" {
		t.Errorf("Nickname = %v, want 'Booth left'", e.Nickname)
	}
}

func TestNewPrinter_Formats(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{FormatDetailed, false},
		{FormatCompact, false},
		{FormatJSON, false},
		{"", false},
		{"xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			_, err := NewPrinter(&bytes.Buffer{}, tt.format, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewPrinter(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
			}
		})
	}
}

func TestPrinter_Handle(t *testing.T) {
	tests := []struct {
		format string
		want   []string
	}{
		{FormatDetailed, []string{"CDJ-2000", "(Booth left)", "#1 (cdj)", "192.168.1.50", "00:01:02:03:04:01", "22:15:30"}},
		{FormatCompact, []string{"22:15:30", "#1", "CDJ-2000 (Booth left)", "192.168.1.50", "cdj"}},
		{FormatJSON, []string{`"name":"CDJ-2000"`, `"id":1`, `"nickname":"Booth left"`, `"kind_name":"cdj"`}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			p, err := NewPrinter(&buf, tt.format, stubNamer{"00:01:02:03:04:01": "Booth left"})
			if err != nil {
				t.Fatalf("NewPrinter() error = %v", err)
			}
			p.now = func() time.Time { return fixedTime }

			if err := p.Handle(sinkDevice("192.168.1.50", 1)); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}

			out := buf.String()
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestPrinter_JSONLines(t *testing.T) {
	var buf bytes.Buffer
	p, _ := NewPrinter(&buf, FormatJSON, nil)

	_ = p.Handle(sinkDevice("192.168.1.50", 1))
	_ = p.Handle(sinkDevice("192.168.1.50", 2))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}

	var e Event
	if err := json.Unmarshal([]byte(lines[1]), &e); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if e.ID != 2 {
		t.Errorf("second event ID = %v, want 2", e.ID)
	}
	if e.Nickname != "" {
		t.Errorf("Nickname = %q, want empty without a namer", e.Nickname)
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("disk full") }

func TestPrinter_WriteError(t *testing.T) {
	p, _ := NewPrinter(failingWriter{}, FormatCompact, nil)
	if err := p.Handle(sinkDevice("192.168.1.50", 1)); err == nil {
		t.Error("Handle() error = nil, want write error")
	}
}

func TestRecorder_Handle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	reg := config.NewRegistry()
	r := NewRecorder(reg, path)
	r.now = func() time.Time { return fixedTime }

	if err := r.Handle(sinkDevice("192.168.1.50", 1)); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	loaded, err := config.LoadRegistryFrom(path)
	if err != nil {
		t.Fatalf("LoadRegistryFrom() error = %v", err)
	}
	device := loaded.GetDevice("00:01:02:03:04:01")
	if device == nil {
		t.Fatal("recorded device missing from saved registry")
	}
	if device.LastIP != "192.168.1.50" || device.LastID != 1 || device.Sightings != 1 {
		t.Errorf("saved device = %+v", device)
	}
}

func TestRecorder_SaveFailureIsNotFatal(t *testing.T) {
	// A path below a regular file cannot be created
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := config.NewRegistry().SaveTo(blocker); err != nil {
		t.Fatal(err)
	}

	r := NewRecorder(config.NewRegistry(), filepath.Join(blocker, "config.yaml"))
	if err := r.Handle(sinkDevice("192.168.1.50", 1)); err != nil {
		t.Errorf("Handle() error = %v, want nil", err)
	}
}

func TestDrain(t *testing.T) {
	in := make(chan discovery.Device, 3)
	in <- sinkDevice("192.168.1.50", 1)
	in <- sinkDevice("192.168.1.50", 2)
	close(in)

	var first, second []uint8
	err := Drain(context.Background(), in,
		HandlerFunc(func(d discovery.Device) error { first = append(first, d.ID); return nil }),
		HandlerFunc(func(d discovery.Device) error { second = append(second, d.ID); return nil }),
	)
	if err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if len(first) != 2 || len(second) != 2 || first[1] != 2 {
		t.Errorf("handlers saw %v and %v, want [1 2] twice", first, second)
	}
}

func TestDrain_HandlerError(t *testing.T) {
	in := make(chan discovery.Device, 1)
	in <- sinkDevice("192.168.1.50", 1)

	boom := errors.New("boom")
	err := Drain(context.Background(), in, HandlerFunc(func(discovery.Device) error { return boom }))
	if !errors.Is(err, boom) {
		t.Errorf("Drain() error = %v, want %v", err, boom)
	}
}

func TestDrain_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Drain(ctx, make(chan discovery.Device))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Drain() error = %v, want context.Canceled", err)
	}
}

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var e Event
	if err := conn.ReadJSON(&e); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return e
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d, want %d", hub.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()
	defer hub.Close()

	// Seen before the client connects: delivered as part of the snapshot
	_ = hub.Handle(sinkDevice("192.168.1.50", 1))

	conn := dialHub(t, srv)
	waitForClients(t, hub, 1)

	if e := readEvent(t, conn); e.ID != 1 {
		t.Errorf("snapshot event ID = %v, want 1", e.ID)
	}

	_ = hub.Handle(sinkDevice("192.168.1.50", 2))
	if e := readEvent(t, conn); e.ID != 2 {
		t.Errorf("live event ID = %v, want 2", e.ID)
	}
}

func TestHub_SnapshotLargerThanQueue(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()
	defer hub.Close()

	total := clientQueueSize + 8
	for i := 1; i <= total; i++ {
		_ = hub.Handle(sinkDevice(fmt.Sprintf("192.168.1.%d", i), 1))
	}

	conn := dialHub(t, srv)
	waitForClients(t, hub, 1)

	for i := 1; i <= total; i++ {
		want := fmt.Sprintf("192.168.1.%d", i)
		if e := readEvent(t, conn); e.IP != want {
			t.Fatalf("snapshot event %d IP = %v, want %v", i, e.IP, want)
		}
	}

	_ = hub.Handle(sinkDevice("192.168.2.1", 1))
	if e := readEvent(t, conn); e.IP != "192.168.2.1" {
		t.Errorf("live event IP = %v, want 192.168.2.1", e.IP)
	}
}

func TestHub_ClientDisconnect(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dialHub(t, srv)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)

	if err := hub.Handle(sinkDevice("192.168.1.50", 1)); err != nil {
		t.Errorf("Handle() after disconnect error = %v", err)
	}
}

func TestHub_Devices(t *testing.T) {
	hub := NewHub(stubNamer{"00:01:02:03:04:02": "Booth right"})
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	_ = hub.Handle(sinkDevice("192.168.1.100", 1))
	_ = hub.Handle(sinkDevice("192.168.1.50", 2))
	_ = hub.Handle(sinkDevice("192.168.1.50", 2))

	resp, err := http.Get(srv.URL + "/devices")
	if err != nil {
		t.Fatalf("GET /devices error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %v, want 200", resp.StatusCode)
	}

	var events []Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d devices, want 2", len(events))
	}
	// Ordered by address, numerically
	if events[0].IP != "192.168.1.50" || events[0].Nickname != "Booth right" {
		t.Errorf("events[0] = %+v, want 192.168.1.50 (Booth right)", events[0])
	}
}

func TestHub_DevicesMethodNotAllowed(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/devices", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /devices error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %v, want 405", resp.StatusCode)
	}
}
