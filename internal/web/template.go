package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/ethoslab/shuttlebox/internal/relay"
	"github.com/ethoslab/shuttlebox/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="2">
<title>Shuttlebox</title>
<style>
body { font-family: monospace; max-width: 640px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.warn { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Shuttlebox Controller</h1>

<table>
<tr><th>Fish position</th><td>{{.Position}}</td></tr>
<tr><th>Sensors (1=blocked)</th><td>{{.Sensors}}</td></tr>
<tr><th>Mode</th><td>{{.Mode}}</td></tr>
<tr><th>Target (right / left)</th><td>{{.Targets}}</td></tr>
<tr><th>Temperature (left / right)</th><td>{{.Temps}}</td></tr>
</table>

<table>
<tr><th>Heat</th><td class="{{if .Heat}}on{{else}}off{{end}}">{{if .Heat}}ON{{else}}OFF{{end}}</td></tr>
<tr><th>Cool</th><td class="{{if .Cool}}on{{else}}off{{end}}">{{if .Cool}}ON{{else}}OFF{{end}}</td></tr>
<tr><th>Buffer heat pump</th><td class="{{if .BufferHeat}}on{{else}}off{{end}}">{{if .BufferHeat}}ON{{else}}OFF{{end}}</td></tr>
<tr><th>Buffer cool pump</th><td class="{{if .BufferCool}}on{{else}}off{{end}}">{{if .BufferCool}}ON{{else}}OFF{{end}}</td></tr>
{{if .SafetyOverride}}<tr><th>Safety interlock</th><td class="warn">OVERRIDDEN</td></tr>{{end}}
</table>

<table>
<tr><th>Passages</th><td>{{.Counts.Passages}}</td></tr>
<tr><th>Left visits</th><td>{{.Counts.LeftVisits}}</td></tr>
<tr><th>Right visits</th><td>{{.Counts.RightVisits}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
</table>

<p><a href="/status.json">status.json</a></p>
</body>
</html>
`

// viewModel flattens a snapshot for the template.
type viewModel struct {
	Position       string
	Sensors        string
	Mode           string
	Targets        string
	Temps          string
	Heat           bool
	Cool           bool
	BufferHeat     bool
	BufferCool     bool
	SafetyOverride bool
	Counts         status.Counts
	Uptime         time.Duration
	MQTTConnected  bool
}

func renderHTML(w io.Writer, snap status.Snapshot, differential float64) {
	sensors := make([]byte, len(snap.Sensors))
	for i, clear := range snap.Sensors {
		if clear {
			sensors[i] = '0'
		} else {
			sensors[i] = '1'
		}
	}

	targets := "not set"
	if snap.TargetSet {
		targets = fmt.Sprintf("%.2f°C / %.2f°C", snap.TargetRight, snap.TargetRight-differential)
	}
	temps := "no reading yet"
	if snap.HaveTemps {
		temps = fmt.Sprintf("%.2f°C / %.2f°C", snap.TempLeft, snap.TempRight)
	}

	vm := viewModel{
		Position:       snap.Position.String(),
		Sensors:        string(sensors),
		Mode:           snap.Mode.String(),
		Targets:        targets,
		Temps:          temps,
		Heat:           snap.Relays[relay.Heat],
		Cool:           snap.Relays[relay.Cool],
		BufferHeat:     snap.Relays[relay.BufferHeat],
		BufferCool:     snap.Relays[relay.BufferCool],
		SafetyOverride: snap.SafetyOverride,
		Counts:         snap.Counts,
		Uptime:         snap.Uptime(),
		MQTTConnected:  snap.MQTTConnected,
	}
	if err := indexTmpl.Execute(w, vm); err != nil {
		log.Printf("web: render status page: %v", err)
	}
}
