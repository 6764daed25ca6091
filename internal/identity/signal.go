package identity

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
)

// DefaultWirelessPath is the Linux wireless statistics file.
const DefaultWirelessPath = "/proc/net/wireless"

// SignalReader reports the current Wi-Fi signal level in dBm.
// Zero means unknown or wired.
type SignalReader interface {
	RSSI() int
}

// SignalFunc adapts a function to SignalReader.
type SignalFunc func() int

// RSSI implements SignalReader.
func (f SignalFunc) RSSI() int { return f() }

// WirelessReader reads the signal level of one interface from
// /proc/net/wireless.
type WirelessReader struct {
	Path      string
	Interface string
}

// RSSI returns the interface's level column, or 0 if it cannot be read.
func (r WirelessReader) RSSI() int {
	path := r.Path
	if path == "" {
		path = DefaultWirelessPath
	}
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	level, _ := parseWireless(f, r.Interface)
	return level
}

// parseWireless scans /proc/net/wireless content for iface's level.
// An empty iface matches the first interface listed.
func parseWireless(r io.Reader, iface string) (int, bool) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		name, rest, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" || strings.Contains(name, "|") {
			continue
		}
		if iface != "" && name != iface {
			continue
		}

		// status, link quality, level, noise, ...
		fields := strings.Fields(rest)
		if len(fields) < 3 { //nolint:mnd // level is the third column
			return 0, false
		}
		level, err := strconv.ParseFloat(strings.TrimSuffix(fields[2], "."), 64)
		if err != nil {
			return 0, false
		}
		return int(level), true
	}
	return 0, false
}
