package mdns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceTXT(t *testing.T) {
	s := Service{
		Instance: "Kitchen Node",
		Port:     81,
		HTTPPort: 80,
		DeviceID: "240AC4123456",
		Model:    "XIAO ESP32C3",
		Version:  "1.2.0",
		MAC:      "24:0A:C4:12:34:56",
	}

	assert.Equal(t, []string{
		"id=240AC4123456",
		"name=Kitchen Node",
		"model=XIAO ESP32C3",
		"version=1.2.0",
		"mac=24:0A:C4:12:34:56",
		"http_port=80",
	}, s.TXT())
}

func TestServiceTXT_OmitsOptional(t *testing.T) {
	s := Service{Instance: "n", DeviceID: "X"}
	txt := s.TXT()
	assert.Len(t, txt, 4)
	assert.NotContains(t, txt, "http_port=0")
}

func TestWithDefaults(t *testing.T) {
	s := Service{}.withDefaults()
	assert.Equal(t, DefaultService, s.Service)
	assert.Equal(t, DefaultDomain, s.Domain)

	s = Service{Service: "_x._tcp", Domain: "lan."}.withDefaults()
	assert.Equal(t, "_x._tcp", s.Service)
	assert.Equal(t, "lan.", s.Domain)
}

func TestStart_InvalidPort(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		_, err := Start(Service{Instance: "n", Port: port})
		require.ErrorIs(t, err, ErrInvalidPort)
	}
}

func TestStop_Nil(t *testing.T) {
	var a *Advertiser
	a.Stop()
	(&Advertiser{}).Stop()
}
