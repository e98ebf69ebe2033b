// Package logging provides structured logging for prolink.
//
// This package wraps a global zap logger with convenience functions. Logging
// is silent unless a level is given on the command line or through the
// PROLINK_LOG_LEVEL environment variable, so device output on stdout stays
// clean. Log lines go to stderr.
//
// # Log Levels
//
//   - Debug: ignored packets with hex dumps, store purges, socket options
//   - Info: socket bound, devices discovered, websocket clients
//   - Warn: dropped websocket clients, registry save failures
//   - Error: fatal listener errors
//
// # Structured Logging
//
//	logging.Info("Listening for announcements",
//	    zap.String("addr", "0.0.0.0:50000"),
//	)
//
//	logging.LogDevice("device_discovered", "CDJ-2000", 1, "192.168.1.50", "00:01:02:03:04:05")
//	logging.LogRawBytes("Ignored packet", payload)
//
// # Configuration
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use once the logger has been
// initialized. Initialize and SetLogger are meant to be called at startup.
package logging
