package main

import (
	"fmt"
	"net"
	"net/netip"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/prolink/internal/discovery"
)

func init() {
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(nameCmd)
	rootCmd.AddCommand(announceCmd)

	announceCmd.Flags().StringVar(&announceName, "name", "CDJ-2000nexus", "Device name (up to 20 bytes)")
	announceCmd.Flags().Uint8Var(&announceID, "id", 1, "Player number")
	announceCmd.Flags().StringVar(&announceMAC, "mac", "00:11:22:33:44:55", "MAC address")
	announceCmd.Flags().StringVar(&announceIP, "ip", "127.0.0.1", "IPv4 address to advertise")
	announceCmd.Flags().Uint8Var(&announceKind, "kind", discovery.KindCDJ, "Device kind (1 cdj, 2 mixer, 3 rekordbox)")
	announceCmd.Flags().StringVar(&announceTarget, "target", "127.0.0.1:50000", "Destination host:port (a broadcast address works)")
}

// devicesCmd lists remembered devices
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List remembered devices",
	Long: `List every device recorded in the config file by 'listen --record',
'watch --record' or 'serve --record', with any nickname set by 'name'.`,
	Args: cobra.NoArgs,
	RunE: runDevices,
}

func runDevices(cmd *cobra.Command, args []string) error {
	registry, path, err := loadRegistry()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	macs := registry.MACs()
	if len(macs) == 0 {
		fmt.Fprintf(out, "No devices remembered in %s\n", path)
		fmt.Fprintln(out, "\nUse 'prolink listen --record' to remember devices as they appear")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MAC\tNICKNAME\tNAME\tPLAYER\tIP\tKIND\tLAST SEEN\tSIGHTINGS")
	for _, mac := range macs {
		d := registry.GetDevice(mac)
		lastSeen := "-"
		if !d.LastSeen.IsZero() {
			lastSeen = d.LastSeen.Local().Format(time.DateTime)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\t%d\n",
			mac, dash(d.Nickname), dash(d.LastName), d.LastID, dash(d.LastIP),
			discovery.KindName(uint8(d.Kind)), lastSeen, d.Sightings)
	}
	return w.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// nameCmd sets a nickname
var nameCmd = &cobra.Command{
	Use:   "name <mac> <nickname>",
	Short: "Give a device a nickname",
	Long: `Give a device a nickname shown next to its announced name.

Devices are remembered by MAC address because player numbers and IP
addresses change between sets. An empty nickname clears it.`,
	Example: `  prolink name 00:e0:36:12:34:56 "Booth left"
  prolink name 00:e0:36:12:34:56 ""`,
	Args: cobra.ExactArgs(2),
	RunE: runName,
}

func runName(cmd *cobra.Command, args []string) error {
	mac, err := net.ParseMAC(args[0])
	if err != nil {
		return fmt.Errorf("invalid MAC address %q: %w", args[0], err)
	}
	if len(mac) != 6 {
		return fmt.Errorf("invalid MAC address %q: want 6 bytes", args[0])
	}

	registry, path, err := loadRegistry()
	if err != nil {
		return err
	}

	nickname := strings.TrimSpace(args[1])
	registry.SetDeviceNickname(mac.String(), nickname)
	if err := registry.SaveTo(path); err != nil {
		return err
	}

	if nickname == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared nickname for %s\n", mac)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %q\n", mac, nickname)
	}
	return nil
}

// Announce flags
var (
	announceName   string
	announceID     uint8
	announceMAC    string
	announceIP     string
	announceKind   uint8
	announceTarget string
)

// announceCmd sends a single announcement
var announceCmd = &cobra.Command{
	Use:   "announce",
	Short: "Send one device announcement",
	Long: `Send a single keep-alive announcement, as a player would.

Useful for checking that a listener, firewall or switch passes Pro DJ Link
traffic without a player on the network.`,
	Example: `  # Announce to a local listener
  prolink announce --name "CDJ-3000" --id 2

  # Broadcast a mixer announcement on the LAN
  prolink announce --kind 2 --name DJM-900 --ip 192.168.1.20 --target 192.168.1.255:50000`,
	Args: cobra.NoArgs,
	RunE: runAnnounce,
}

func runAnnounce(cmd *cobra.Command, args []string) error {
	mac, err := net.ParseMAC(announceMAC)
	if err != nil || len(mac) != 6 {
		return fmt.Errorf("invalid --mac %q", announceMAC)
	}
	ip, err := netip.ParseAddr(announceIP)
	if err != nil || !ip.Is4() {
		return fmt.Errorf("invalid --ip %q: want an IPv4 address", announceIP)
	}
	if len(announceName) > discovery.NameLength {
		return fmt.Errorf("--name is %d bytes, at most %d fit", len(announceName), discovery.NameLength)
	}

	d := discovery.Device{
		Name: announceName,
		ID:   announceID,
		MAC:  mac,
		IP:   ip,
		Kind: announceKind,
	}

	ctx, stop := signalContext()
	defer stop()

	if err := discovery.SendAnnounce(ctx, announceTarget, d); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Sent %s to %s\n", d, announceTarget)
	return nil
}
