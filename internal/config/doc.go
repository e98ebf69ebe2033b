// Package config provides user configuration management for prolink.
//
// This package manages a YAML-based configuration file that remembers
// players seen on the network (keyed by MAC address), user nicknames for
// them, and listener defaults such as the interface to bind.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/prolink/config.yaml or $HOME/.config/prolink/config.yaml
//   - macOS: $HOME/.config/prolink/config.yaml
//   - Windows: %LOCALAPPDATA%\prolink\config.yaml
//
// PROLINK_CONFIG overrides the location.
//
// # Usage Example
//
//	path, err := config.GetConfigPath()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	registry, err := config.LoadRegistryFrom(path)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	registry.SetDeviceNickname("00:01:02:03:04:05", "Booth left")
//
//	if err := registry.SaveTo(path); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// File writes are serialized by a mutex. A Registry value itself is not
// synchronized and should be updated from one goroutine.
package config
