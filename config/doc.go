// Package config loads the remote_uptodate YAML configuration and turns it
// into a remote.Target, an uptodate.Config and a remote.Dialer.
package config
