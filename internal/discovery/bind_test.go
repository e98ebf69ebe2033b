package discovery

import (
	"errors"
	"net"
	"net/netip"
	"testing"
)

func mustAddr(s string) netip.Addr {
	return netip.MustParseAddr(s)
}

func TestResolveBindAddress(t *testing.T) {
	tests := []struct {
		name    string
		value    string
		want    netip.Addr
		wantErr bool
	}{
		{
			name: "empty binds all interfaces",
			value: "",
			want: mustAddr("0.0.0.0"),
		},
		{
			name: "literal IPv4",
			value: "192.168.1.100",
			want: mustAddr("192.168.1.100"),
		},
		{
			name:    "literal IPv6 rejected",
			value:    "fe80::1",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveBindAddress(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveBindAddress(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ResolveBindAddress(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestResolveBindAddress_UnknownInterface(t *testing.T) {
	_, err := ResolveBindAddress("no-such-interface0")
	if !errors.Is(err, ErrInterfaceNotFound) {
		t.Errorf("ResolveBindAddress() error = %v, want ErrInterfaceNotFound", err)
	}
}

func TestResolveBindAddress_Loopback(t *testing.T) {
	ifaces, err := net.Interfaces()
	if err != nil {
		t.Skipf("cannot list interfaces: %v", err)
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		want, ok := firstIPv4(addrs)
		if !ok {
			continue
		}

		got, err := ResolveBindAddress(iface.Name)
		if err != nil {
			t.Fatalf("ResolveBindAddress(%q) error = %v", iface.Name, err)
		}
		if got != want {
			t.Errorf("ResolveBindAddress(%q) = %v, want %v", iface.Name, got, want)
		}
		return
	}

	t.Skip("no loopback interface with an IPv4 address")
}

func TestResolveBindAddress_ListError(t *testing.T) {
	orig := interfaceLister
	defer func() { interfaceLister = orig }()

	interfaceLister = func() ([]net.Interface, error) {
		return nil, errors.New("boom")
	}

	if _, err := ResolveBindAddress("eth0"); err == nil {
		t.Error("ResolveBindAddress() error = nil, want error")
	}
}

func TestFirstIPv4(t *testing.T) {
	addrs := []net.Addr{
		&net.IPNet{IP: net.ParseIP("fe80::1"), Mask: net.CIDRMask(64, 128)},
		&net.IPNet{IP: net.ParseIP("10.0.0.5"), Mask: net.CIDRMask(24, 32)},
		&net.IPAddr{IP: net.ParseIP("10.0.0.6")},
	}

	got, ok := firstIPv4(addrs)
	if !ok {
		t.Fatal("firstIPv4() found nothing")
	}
	if want := mustAddr("10.0.0.5"); got != want {
		t.Errorf("firstIPv4() = %v, want %v", got, want)
	}

	if _, ok := firstIPv4(addrs[:1]); ok {
		t.Error("firstIPv4() with IPv6 only = true, want false")
	}
}
