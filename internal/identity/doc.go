// Package identity derives the device's stable identity from the host network
// hardware: the 12-character device ID, the mDNS hostname, the primary IPv4
// address and the Wi-Fi signal level reported on /info.
package identity
