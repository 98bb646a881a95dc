package config

// ConfigDiff describes what changed between two configs.
// Only the log level is applied without a restart; everything else is
// reported so the operator can be told a restart is needed.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// RestartRequired lists the top-level sections whose changes only take
	// effect on the next start (registration happens once at startup).
	RestartRequired []string
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}
	if old.Server.ListenAddr != new.Server.ListenAddr {
		d.RestartRequired = append(d.RestartRequired, "server.listen_addr")
	}
	if old.Assets != new.Assets {
		d.RestartRequired = append(d.RestartRequired, "assets")
	}
	if !monitorEqual(old.Monitor, new.Monitor) {
		d.RestartRequired = append(d.RestartRequired, "monitor")
	}
	if old.Surface != new.Surface {
		d.RestartRequired = append(d.RestartRequired, "surface")
	}
	if old.Roster != new.Roster {
		d.RestartRequired = append(d.RestartRequired, "roster")
	}

	return d
}

// monitorEqual compares two monitor configs field by field; the chord slice
// prevents using ==.
func monitorEqual(a, b MonitorConfig) bool {
	if a.StartupDelay != b.StartupDelay || a.Interval != b.Interval || a.ProSlots != b.ProSlots {
		return false
	}
	if len(a.ChordButtons) != len(b.ChordButtons) {
		return false
	}
	for i := range a.ChordButtons {
		if a.ChordButtons[i] != b.ChordButtons[i] {
			return false
		}
	}
	return true
}
