// Package urls provides centralized constants for the documentation URLs
// printed in hints and help text.
//
// Usage:
//
//	import "github.com/muurk/prolink/internal/urls"
//
//	fmt.Printf("For more information, see: %s\n", urls.DeviceAnnouncements)
package urls
