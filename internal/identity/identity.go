package identity

import (
	"fmt"
	"net"
	"strings"
)

// Identity is the resolved identity of the device.
type Identity struct {
	// DeviceID is the MAC as 12 uppercase hex characters.
	DeviceID string
	// MAC is the colon-separated uppercase MAC.
	MAC string
	// IP is the first IPv4 address of the interface, empty if none.
	IP string
	// Interface is the name of the interface the identity came from.
	Interface string
}

// Hostname returns the mDNS host label for the device.
func (i Identity) Hostname() string {
	return Hostname(i.DeviceID)
}

// FromMAC formats a 6-byte hardware address as a device ID.
func FromMAC(hw net.HardwareAddr) (string, error) {
	if len(hw) != 6 { //nolint:mnd // EUI-48
		return "", fmt.Errorf("%w: %q", ErrInvalidMAC, hw.String())
	}
	return fmt.Sprintf("%02X%02X%02X%02X%02X%02X", hw[0], hw[1], hw[2], hw[3], hw[4], hw[5]), nil
}

// FormatMAC returns the colon-separated uppercase form of hw.
func FormatMAC(hw net.HardwareAddr) string {
	return strings.ToUpper(hw.String())
}

// Hostname returns "seeed-ha-" followed by the lowercase device ID.
func Hostname(deviceID string) string {
	return "seeed-ha-" + strings.ToLower(deviceID)
}

// nic is the part of a network interface identity resolution looks at.
type nic struct {
	name  string
	hw    net.HardwareAddr
	flags net.Flags
	addrs []net.Addr
}

// Detect resolves the device identity from the host's interfaces.
//
// Parameters:
//   - ifaceName: Interface to use; empty picks the first up, non-loopback
//     interface with a 6-byte hardware address
//   - macOverride: Optional MAC that replaces the detected one
//
// Returns:
//   - Identity: Resolved identity
//   - error: If no interface qualifies or the override is malformed
func Detect(ifaceName, macOverride string) (Identity, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return Identity{}, fmt.Errorf("listing interfaces: %w", err)
	}

	nics := make([]nic, 0, len(ifaces))
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			addrs = nil
		}
		nics = append(nics, nic{name: iface.Name, hw: iface.HardwareAddr, flags: iface.Flags, addrs: addrs})
	}

	return resolve(nics, ifaceName, macOverride)
}

func resolve(nics []nic, ifaceName, macOverride string) (Identity, error) {
	var override net.HardwareAddr
	if macOverride != "" {
		hw, err := net.ParseMAC(macOverride)
		if err != nil {
			return Identity{}, fmt.Errorf("%w: %w", ErrInvalidMAC, err)
		}
		override = hw
	}

	chosen, found := selectNIC(nics, ifaceName)
	if !found && override == nil {
		if ifaceName != "" {
			return Identity{}, fmt.Errorf("%w: %q", ErrNoInterface, ifaceName)
		}
		return Identity{}, ErrNoInterface
	}

	hw := chosen.hw
	if override != nil {
		hw = override
	}

	id, err := FromMAC(hw)
	if err != nil {
		return Identity{}, err
	}

	return Identity{
		DeviceID:  id,
		MAC:       FormatMAC(hw),
		IP:        firstIPv4(chosen.addrs),
		Interface: chosen.name,
	}, nil
}

func selectNIC(nics []nic, name string) (nic, bool) {
	for _, n := range nics {
		if name != "" {
			if n.name == name {
				return n, true
			}
			continue
		}
		if n.flags&net.FlagLoopback != 0 || n.flags&net.FlagUp == 0 || len(n.hw) != 6 {
			continue
		}
		return n, true
	}
	return nic{}, false
}

func firstIPv4(addrs []net.Addr) string {
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip4 := ip.To4(); ip4 != nil && !ip4.IsLoopback() {
			return ip4.String()
		}
	}
	return ""
}
