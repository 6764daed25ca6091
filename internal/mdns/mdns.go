package mdns

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/grandcat/zeroconf"
)

// Default service parameters.
const (
	DefaultService = "_seeed_ha._tcp"
	DefaultDomain  = "local."
)

// ErrInvalidPort is returned when the advertised port is out of range.
var ErrInvalidPort = errors.New("mdns: invalid port")

// Service describes what is advertised.
type Service struct {
	Instance string // instance name, usually the device name
	Service  string
	Domain   string
	Host     string // host label without the domain; empty lets the library pick
	IP       string // required when Host is set
	Port     int    // WebSocket port
	HTTPPort int

	DeviceID string
	Model    string
	Version  string
	MAC      string
}

// TXT returns the TXT record entries for s.
func (s Service) TXT() []string {
	txt := []string{
		"id=" + s.DeviceID,
		"name=" + s.Instance,
		"model=" + s.Model,
		"version=" + s.Version,
	}
	if s.MAC != "" {
		txt = append(txt, "mac="+s.MAC)
	}
	if s.HTTPPort > 0 {
		txt = append(txt, "http_port="+strconv.Itoa(s.HTTPPort))
	}
	return txt
}

func (s Service) withDefaults() Service {
	if s.Service == "" {
		s.Service = DefaultService
	}
	if s.Domain == "" {
		s.Domain = DefaultDomain
	}
	return s
}

// Advertiser is a running mDNS registration.
type Advertiser struct {
	server *zeroconf.Server
}

// Start registers s on all multicast interfaces.
//
// When both Host and IP are set the record is published as a proxy so the
// device answers under its own host name instead of the machine's.
func Start(s Service) (*Advertiser, error) {
	s = s.withDefaults()
	if s.Port <= 0 || s.Port > 65535 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPort, s.Port)
	}

	var (
		server *zeroconf.Server
		err    error
	)
	if s.Host != "" && s.IP != "" {
		server, err = zeroconf.RegisterProxy(s.Instance, s.Service, s.Domain, s.Port, s.Host, []string{s.IP}, s.TXT(), nil)
	} else {
		server, err = zeroconf.Register(s.Instance, s.Service, s.Domain, s.Port, s.TXT(), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("registering %s: %w", s.Service, err)
	}

	return &Advertiser{server: server}, nil
}

// Stop withdraws the registration. Safe on a nil Advertiser.
func (a *Advertiser) Stop() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	a.server = nil
}
