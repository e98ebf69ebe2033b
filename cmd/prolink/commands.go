package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/prolink/internal/config"
	"github.com/muurk/prolink/internal/discovery"
	"github.com/muurk/prolink/internal/logging"
	"github.com/muurk/prolink/internal/server"
	"github.com/muurk/prolink/internal/sink"
	"github.com/muurk/prolink/internal/ui"
	"github.com/muurk/prolink/internal/urls"
)

// Listener flags
var (
	bindInterface string
	listenPort    int
	noReuse       bool
	outputFormat  string
	queueSize     int
	record        bool
	httpAddr      string
	natsURL       string
	natsSubject   string
)

func init() {
	// Listener flags are persistent on root so 'prolink' alone behaves like 'prolink listen'
	rootCmd.PersistentFlags().StringVarP(&bindInterface, "interface", "i", "", "Interface name or IPv4 address to bind (default: all interfaces)")
	rootCmd.PersistentFlags().IntVar(&listenPort, "port", discovery.DiscoveryPort, "UDP port to listen on")
	rootCmd.PersistentFlags().BoolVar(&noReuse, "no-reuse", false, "Do not share the port with other software")
	rootCmd.PersistentFlags().IntVar(&queueSize, "queue", discovery.DefaultSinkCapacity, "Devices buffered between the listener and its consumer")
	rootCmd.PersistentFlags().BoolVar(&record, "record", false, "Remember every sighting in the config file")
	rootCmd.PersistentFlags().StringVar(&natsURL, "nats", "", "Also publish devices to this NATS server (e.g. nats://localhost:4222)")
	rootCmd.PersistentFlags().StringVar(&natsSubject, "nats-subject", sink.DefaultSubject, "NATS subject prefix; the device kind is appended")

	rootCmd.Flags().StringVar(&outputFormat, "format", "", "Output format (detailed, compact, json)")
	listenCmd.Flags().StringVar(&outputFormat, "format", "", "Output format (detailed, compact, json)")
	serveCmd.Flags().StringVar(&httpAddr, "http", ":8080", "HTTP address for /ws and /devices")

	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
}

// listenCmd prints devices as they are discovered
var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Print devices as they appear",
	Long: `Listen for Pro DJ Link announcements and print each device when it
first appears, or reappears after more than ten seconds of silence.

The banner goes to stderr so stdout can be piped, for example with
--format json.`,
	Example: `  # Listen on all interfaces
  prolink listen

  # Listen on one interface, one line per device
  prolink listen --interface eth0 --format compact

  # JSON lines for scripting, remembering every device seen
  prolink listen --format json --record`,
	RunE: runListen,
}

// watchCmd shows a live table
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show a live table of devices",
	Long: `Show every device discovered in an interactive table that updates as
devices appear. Press q to quit.`,
	Example: `  prolink watch --interface en0`,
	RunE:    runWatch,
}

// serveCmd publishes devices over HTTP
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Publish devices over HTTP and websocket",
	Long: `Publish discovered devices to other programs.

GET /devices returns every device seen so far as a JSON array.
GET /ws upgrades to a websocket that receives the same devices, then one
JSON message per new sighting.`,
	Example: `  # Serve on port 8080
  prolink serve

  # Serve on loopback only
  prolink serve --http 127.0.0.1:9000`,
	RunE: runServe,
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// listenerConfig combines flags and saved preferences. Flags win.
func listenerConfig(cmd *cobra.Command, prefs *config.Preferences) (discovery.Config, error) {
	cfg := discovery.DefaultConfig()
	cfg.Port = listenPort

	iface := bindInterface
	if !cmd.Flags().Changed("interface") && prefs != nil {
		iface = prefs.Interface
	}
	addr, err := discovery.ResolveBindAddress(iface)
	if err != nil {
		return cfg, err
	}
	cfg.BindAddress = addr

	reuse := true
	if prefs != nil {
		reuse = prefs.ReuseAddress
	}
	cfg.EnableReuseAddress = reuse && !noReuse

	return cfg, nil
}

// format returns --format or the saved preference
func format(cmd *cobra.Command, prefs *config.Preferences) string {
	if cmd.Flags().Changed("format") || prefs == nil {
		return outputFormat
	}
	return prefs.Format
}

// runPipeline runs l and consume until either stops.
// A cancelled context or a consumer that stops early is a clean exit.
func runPipeline(ctx context.Context, l *discovery.Listener, consume func(ctx context.Context, devices <-chan discovery.Device) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	devices := discovery.NewSink(queueSize)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return l.Run(gctx, devices)
	})
	g.Go(func() error {
		// The listener may be blocked in a read; cancel wakes it
		defer cancel()
		defer devices.Close()
		return consume(gctx, devices.C())
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, discovery.ErrSinkClosed) {
		return nil
	}
	return err
}

// startListener loads preferences and binds the discovery socket
func startListener(ctx context.Context, cmd *cobra.Command) (*discovery.Listener, *config.Registry, string, error) {
	registry, path, err := loadRegistry()
	if err != nil {
		return nil, nil, "", err
	}

	cfg, err := listenerConfig(cmd, registry.Preferences)
	if err != nil {
		return nil, nil, "", err
	}

	l, err := discovery.Listen(ctx, cfg)
	if err != nil {
		printSetupHints(cmd.ErrOrStderr(), cfg)
		return nil, nil, "", err
	}
	return l, registry, path, nil
}

// printSetupHints explains the usual reasons the discovery socket cannot bind
func printSetupHints(w io.Writer, cfg discovery.Config) {
	fmt.Fprintln(w, "Could not open the discovery socket.")
	fmt.Fprintln(w, "\nTroubleshooting:")
	if !cfg.EnableReuseAddress {
		fmt.Fprintln(w, "  - Another program (rekordbox, a second prolink) may own the port; drop --no-reuse")
	} else {
		fmt.Fprintln(w, "  - Another program may hold the port without allowing reuse")
	}
	if !cfg.BindAddress.IsUnspecified() {
		fmt.Fprintf(w, "  - Check that %s is assigned to an interface that is up\n", cfg.BindAddress)
	}
	fmt.Fprintf(w, "  - Use --port to listen elsewhere (players always send to %d)\n", discovery.DiscoveryPort)
	fmt.Fprintf(w, "\nProtocol reference: %s\n", urls.DeviceAnnouncements)
}

// handlers returns the extra handlers every command runs, and a func that
// releases them
func handlers(registry *config.Registry, path string) ([]sink.Handler, func(), error) {
	var hs []sink.Handler
	cleanup := func() {}

	if record {
		hs = append(hs, sink.NewRecorder(registry, path))
	}

	if natsURL != "" {
		pub, err := sink.NewPublisher(natsURL, natsSubject, registry)
		if err != nil {
			return nil, nil, err
		}
		hs = append(hs, pub)
		cleanup = func() {
			if err := pub.Close(); err != nil {
				logging.Warn("Failed to flush NATS publisher", zap.Error(err))
			}
		}
	}

	return hs, cleanup, nil
}

func runListen(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	l, registry, path, err := startListener(ctx, cmd)
	if err != nil {
		return err
	}

	outFormat := format(cmd, registry.Preferences)
	printer, err := sink.NewPrinter(cmd.OutOrStdout(), outFormat, registry)
	if err != nil {
		l.Close()
		return err
	}

	if outFormat != sink.FormatJSON {
		params := []ui.Param{
			{Key: "Address", Value: l.LocalAddr().String()},
			{Key: "Format", Value: printer.Format()},
		}
		if record {
			params = append(params, ui.Param{Key: "Recording", Value: path})
		}
		if natsURL != "" {
			params = append(params, ui.Param{Key: "NATS", Value: natsURL + " " + natsSubject + ".*"})
		}
		header := ui.NewHeader("Pro DJ Link Discovery", "prolink listen", params...)
		fmt.Fprintln(cmd.ErrOrStderr(), header.Render())
	}

	extra, cleanup, err := handlers(registry, path)
	if err != nil {
		l.Close()
		return err
	}
	defer cleanup()

	hs := append([]sink.Handler{printer}, extra...)
	return runPipeline(ctx, l, func(ctx context.Context, devices <-chan discovery.Device) error {
		return sink.Drain(ctx, devices, hs...)
	})
}

func runWatch(cmd *cobra.Command, args []string) error {
	if !ui.IsTerminal() {
		return fmt.Errorf("watch needs a terminal; use 'prolink listen' when piping output")
	}

	ctx, stop := signalContext()
	defer stop()

	l, registry, path, err := startListener(ctx, cmd)
	if err != nil {
		return err
	}

	extra, cleanup, err := handlers(registry, path)
	if err != nil {
		l.Close()
		return err
	}
	defer cleanup()

	return runPipeline(ctx, l, func(ctx context.Context, devices <-chan discovery.Device) error {
		source := devices
		if len(extra) > 0 {
			source = tee(ctx, devices, extra)
		}
		err := ui.RunLive(ctx, source, l.LocalAddr().String(), registry)
		if ctx.Err() != nil {
			// Killed by a signal rather than by the user
			return nil
		}
		return err
	})
}

// tee passes devices through to the returned channel after running hs on each
func tee(ctx context.Context, in <-chan discovery.Device, hs []sink.Handler) <-chan discovery.Device {
	out := make(chan discovery.Device)
	go func() {
		defer close(out)
		_ = sink.Drain(ctx, in, append(hs, sink.HandlerFunc(func(d discovery.Device) error {
			select {
			case out <- d:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}))...)
	}()
	return out
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	host, port, err := splitHostPort(httpAddr)
	if err != nil {
		return err
	}

	l, registry, path, err := startListener(ctx, cmd)
	if err != nil {
		return err
	}

	hub := sink.NewHub(registry)
	srv := server.New(&server.Config{Host: host, Port: port}, hub.Handler())
	srv.RegisterOnShutdown(hub.Close)

	header := ui.NewHeader("Pro DJ Link Discovery", "prolink serve",
		ui.Param{Key: "Address", Value: l.LocalAddr().String()},
		ui.Param{Key: "HTTP", Value: httpAddr},
	)
	fmt.Fprintln(cmd.ErrOrStderr(), header.Render())

	extra, cleanup, err := handlers(registry, path)
	if err != nil {
		l.Close()
		return err
	}
	defer cleanup()

	hs := append([]sink.Handler{hub}, extra...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})
	g.Go(func() error {
		err := runPipeline(gctx, l, func(ctx context.Context, devices <-chan discovery.Device) error {
			return sink.Drain(ctx, devices, hs...)
		})
		if err != nil {
			logging.Error("Discovery stopped", zap.Error(err))
		}
		return err
	})
	return g.Wait()
}

// splitHostPort parses --http
func splitHostPort(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid --http address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid --http port %q", portStr)
	}
	return host, port, nil
}
