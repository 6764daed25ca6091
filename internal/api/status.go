package api

import (
	"html/template"
	"net/http"
	"strconv"
	"time"
)

// statusTemplate renders the device status page.
var statusTemplate = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Device.Name}}</title>
<style>
body{font-family:-apple-system,BlinkMacSystemFont,"Segoe UI",Roboto,sans-serif;background:#f4f5f7;color:#222;margin:0;padding:20px}
.container{max-width:640px;margin:0 auto}
.card{background:#fff;border-radius:12px;padding:16px 20px;margin-bottom:16px;box-shadow:0 1px 3px rgba(0,0,0,.08)}
h1{font-size:1.4em}h2{font-size:1.1em;margin-top:0}
.row{display:flex;justify-content:space-between;padding:6px 0;border-bottom:1px solid #eee}
.label{color:#666}.muted{color:#888}
.status{padding:2px 8px;border-radius:8px;background:#ddd}
.status.online,.status.on{background:#4caf50;color:#fff}
.footer{text-align:center;color:#888;font-size:.85em}
</style>
</head>
<body>
<div class="container">
<h1>{{.Device.Name}}</h1>
<div class="card">
<h2>Device</h2>
<div class="row"><span class="label">Device Model</span><span>{{.Device.Model}}</span></div>
<div class="row"><span class="label">Version</span><span>{{.Device.Version}}</span></div>
<div class="row"><span class="label">Device ID</span><span>{{.Device.ID}}</span></div>
<div class="row"><span class="label">IP Address</span><span>{{.Device.IP}}</span></div>
<div class="row"><span class="label">Home Assistant</span>{{if .Connected}}<span class="status online">Connected</span>{{else}}<span class="status">Waiting</span>{{end}}</div>
</div>
<div class="card">
<h2>Sensors</h2>
{{range .Sensors}}<div class="row"><span>{{.Name}}</span><span>{{.Value}} <span class="muted">{{.Unit}}</span></span></div>
{{else}}<p class="muted">No sensors</p>
{{end}}</div>
<div class="card">
<h2>Switches</h2>
{{range .Switches}}<div class="row"><span>{{.Name}}</span>{{if .On}}<span class="status on">ON</span>{{else}}<span class="status">OFF</span>{{end}}</div>
{{else}}<p class="muted">No switches</p>
{{end}}</div>
<div class="footer">Seeed HA Discovery v{{.Device.Version}} | up {{.Uptime}}</div>
</div>
</body>
</html>
`))

type statusSensor struct {
	Name  string
	Value string
	Unit  string
}

type statusSwitch struct {
	Name string
	On   bool
}

type statusPage struct {
	Device    DeviceInfo
	Connected bool
	Sensors   []statusSensor
	Switches  []statusSwitch
	Uptime    time.Duration
}

// handleStatusPage renders the HTML status page.
func (s *Server) handleStatusPage(w http.ResponseWriter, _ *http.Request) {
	page := statusPage{
		Device:    s.device,
		Connected: s.engine.Connected(),
		Uptime:    s.sinceStart().Truncate(time.Second),
	}
	for _, sensor := range s.registry.Sensors() {
		snap := sensor.Snapshot()
		value := "-"
		if snap.HasValue {
			value = strconv.FormatFloat(snap.Value, 'f', snap.Precision, 64)
		}
		page.Sensors = append(page.Sensors, statusSensor{Name: snap.Name, Value: value, Unit: snap.Unit})
	}
	for _, sw := range s.registry.Switches() {
		page.Switches = append(page.Switches, statusSwitch{Name: sw.Name(), On: sw.State()})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := statusTemplate.Execute(w, page); err != nil {
		s.logger.Error("rendering status page failed", "error", err)
	}
}

func (s *Server) sinceStart() time.Duration {
	return time.Since(s.startTime)
}
