package main

import (
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/ethoslab/shuttlebox/internal/console"
	"github.com/ethoslab/shuttlebox/internal/gpio"
	"github.com/ethoslab/shuttlebox/internal/mqtt"
	"github.com/ethoslab/shuttlebox/internal/onewire"
	"github.com/ethoslab/shuttlebox/internal/pconf"
	"github.com/ethoslab/shuttlebox/internal/relay"
	"github.com/ethoslab/shuttlebox/internal/status"
	"github.com/ethoslab/shuttlebox/internal/thermo"
	"github.com/ethoslab/shuttlebox/internal/track"
)

type fixtures struct {
	reader  *gpio.FakeReader
	port    *console.FakePort
	relays  *relay.FakeDriver
	sensors *onewire.FakeSensors
	pub     *mqtt.FakePublisher
}

// newTestApp wires an app from fakes. The clock is owned by the test;
// pass explicit times to step and handleCommand.
func newTestApp(t *testing.T, frames []gpio.Frame, readings ...onewire.Reading) (*app, *fixtures) {
	t.Helper()

	f := &fixtures{
		reader:  gpio.NewFakeReader(frames),
		port:    console.NewFakePort(),
		relays:  relay.NewFakeDriver(),
		sensors: onewire.NewFakeSensors(readings...),
		pub:     mqtt.NewFakePublisher(),
	}

	ctrl, err := thermo.New(thermo.DefaultConfig(), f.relays, f.sensors, &pconf.MemStore{})
	if err != nil {
		t.Fatalf("thermo.New: %v", err)
	}

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := &app{
		reader:       f.reader,
		port:         f.port,
		ctrl:         ctrl,
		array:        track.NewArray(50*time.Millisecond, track.Frame(gpio.AllClear)),
		tracker:      track.NewTracker(2 * time.Second),
		publisher:    f.pub,
		mqttStatus:   f.pub,
		stat:         status.NewTracker(start, status.Config{}),
		differential: 2.0,
		now:          func() time.Time { return start },
	}
	return a, f
}

func sentContains(lines []string, want string) bool {
	for _, l := range lines {
		if l == want {
			return true
		}
	}
	return false
}

// blocked returns an all-clear frame with the given sensors broken.
func blocked(indices ...int) gpio.Frame {
	f := gpio.AllClear
	for _, i := range indices {
		f[i] = false
	}
	return f
}

func TestStartupBanner(t *testing.T) {
	a, f := newTestApp(t, []gpio.Frame{gpio.AllClear})
	a.startup()

	sent := f.port.Sent()
	if len(sent) == 0 || sent[0] != "SHUTTLEBOX_READY" {
		t.Fatalf("first line = %v, want SHUTTLEBOX_READY", sent)
	}
	if !sentContains(sent, "EEPROM:EMPTY") {
		t.Errorf("expected EEPROM:EMPTY in %v", sent)
	}

	if len(f.pub.SystemEvents) != 1 || f.pub.SystemEvents[0].Event != "STARTUP" {
		t.Errorf("system events = %+v, want one STARTUP", f.pub.SystemEvents)
	}
	if !f.pub.SystemEvents[0].Retained {
		t.Error("STARTUP event should be retained")
	}
}

func TestPassageReported(t *testing.T) {
	// Two reads of a broken left beam: the first opens the debounce
	// window, the second commits it.
	a, f := newTestApp(t, []gpio.Frame{
		gpio.AllClear,
		blocked(0),
		blocked(0),
	})

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a.step(base)
	a.step(base.Add(100 * time.Millisecond))
	a.step(base.Add(200 * time.Millisecond))

	sent := f.port.Sent()
	if !sentContains(sent, "0") {
		t.Fatalf("expected passage code 0 in %v", sent)
	}
	if !sentContains(sent, "SENSORS:1000000000") {
		t.Errorf("expected sensor dump in %v", sent)
	}

	if len(f.pub.Positions) != 1 {
		t.Fatalf("expected 1 position event, got %d", len(f.pub.Positions))
	}
	if f.pub.Positions[0].Position != "PASSAGE" || f.pub.Positions[0].Code != "0" {
		t.Errorf("position event = %+v", f.pub.Positions[0])
	}
}

func TestDwellThenChamberReport(t *testing.T) {
	// Break and restore a left beam, then hold all-clear past the
	// dwell: one PASSAGE followed by one LEFT.
	a, f := newTestApp(t, []gpio.Frame{
		gpio.AllClear,
		blocked(2),
		blocked(2),
		gpio.AllClear,
	})

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a.step(base)
	a.step(base.Add(100 * time.Millisecond)) // window opens
	a.step(base.Add(200 * time.Millisecond)) // blocked commits, passage
	a.step(base.Add(300 * time.Millisecond)) // clear window opens
	a.step(base.Add(400 * time.Millisecond)) // clear commits, dwell armed
	a.step(base.Add(500 * time.Millisecond))
	a.step(base.Add(3 * time.Second)) // dwell expired

	var codes []string
	for _, p := range f.pub.Positions {
		codes = append(codes, p.Code)
	}
	if len(codes) != 2 || codes[0] != "0" || codes[1] != "1" {
		t.Fatalf("position codes = %v, want [0 1]", codes)
	}

	snap := a.stat.Snapshot()
	if snap.Counts.Passages != 1 || snap.Counts.LeftVisits != 1 {
		t.Errorf("counts = %+v, want 1 passage 1 left visit", snap.Counts)
	}
}

func TestTargetCommandDrivesHeating(t *testing.T) {
	a, f := newTestApp(t, []gpio.Frame{gpio.AllClear},
		onewire.Reading{Left: 21.0, Right: 24.0})

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a.handleCommand("t26.0", base)
	if !sentContains(f.port.Sent(), "TARGET:26.00") {
		t.Fatalf("expected TARGET:26.00 in %v", f.port.Sent())
	}

	a.step(base.Add(100 * time.Millisecond)) // conversion starts
	a.step(base.Add(1 * time.Second))        // reading completes

	if !f.relays.On(relay.Heat) {
		t.Error("heat relay should be on below target")
	}
	if f.relays.On(relay.Cool) {
		t.Error("cool relay should be off")
	}
	if !sentContains(f.port.Sent(), "RELAY_HEAT:1") {
		t.Errorf("expected RELAY_HEAT:1 in %v", f.port.Sent())
	}
	if !sentContains(f.port.Sent(), "TEMP:21.00/24.00") {
		t.Errorf("expected TEMP:21.00/24.00 in %v", f.port.Sent())
	}

	snap := a.stat.Snapshot()
	if snap.Mode != pconf.ModeAcclimation {
		t.Errorf("mode = %v, want acclimation", snap.Mode)
	}
	if !snap.HaveTemps || snap.TempLeft != 21.0 || snap.TempRight != 24.0 {
		t.Errorf("snapshot temps = %+v", snap)
	}
}

func TestForcedPositionSwitchesTrialRelays(t *testing.T) {
	a, f := newTestApp(t, []gpio.Frame{gpio.AllClear})

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a.handleCommand("t26.0", base)
	a.handleCommand("start", base)
	if !sentContains(f.port.Sent(), "TRIAL:STARTED") {
		t.Fatalf("expected TRIAL:STARTED in %v", f.port.Sent())
	}

	a.step(base.Add(100 * time.Millisecond))
	a.handleCommand("left", base.Add(200*time.Millisecond))

	if !f.relays.On(relay.Cool) || f.relays.On(relay.Heat) {
		t.Errorf("after left: cool=%v heat=%v, want cool on heat off",
			f.relays.On(relay.Cool), f.relays.On(relay.Heat))
	}
	if !sentContains(f.port.Sent(), "1") {
		t.Errorf("expected forced left code 1 in %v", f.port.Sent())
	}

	a.handleCommand("right", base.Add(400*time.Millisecond))
	if !f.relays.On(relay.Heat) || f.relays.On(relay.Cool) {
		t.Errorf("after right: heat=%v cool=%v, want heat on cool off",
			f.relays.On(relay.Heat), f.relays.On(relay.Cool))
	}
}

func TestStatusPingAndUnknown(t *testing.T) {
	a, f := newTestApp(t, []gpio.Frame{gpio.AllClear})
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	a.handleCommand("status", base)
	a.handleCommand("ping", base)
	a.handleCommand("bogus", base)

	sent := f.port.Sent()
	var statusLine string
	for _, l := range sent {
		if strings.HasPrefix(l, "STATUS ") {
			statusLine = l
		}
	}
	if statusLine == "" {
		t.Fatalf("no STATUS line in %v", sent)
	}
	if !strings.Contains(statusLine, "mode=IDLE") {
		t.Errorf("status line = %q, want mode=IDLE", statusLine)
	}
	if !sentContains(sent, "PONG") {
		t.Errorf("expected PONG in %v", sent)
	}
	if !sentContains(sent, "ERR unknown command") {
		t.Errorf("expected ERR unknown command in %v", sent)
	}
}

func TestRunLoopShutdownOnSignal(t *testing.T) {
	a, f := newTestApp(t, []gpio.Frame{gpio.AllClear})
	a.handleCommand("heat_on", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if !f.relays.On(relay.Heat) {
		t.Fatal("heat relay should be on before shutdown")
	}

	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)
	done := make(chan error, 1)
	go func() {
		done <- a.runLoop(tick, sig)
	}()

	tick <- time.Time{}
	sig <- syscall.SIGTERM
	if err := <-done; err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if f.relays.On(relay.Heat) {
		t.Error("heat relay should be off after shutdown")
	}

	events := f.pub.SystemEvents
	if len(events) != 1 || events[0].Event != "SHUTDOWN" {
		t.Fatalf("system events = %+v, want one SHUTDOWN", events)
	}
	if events[0].Reason != "SIGTERM" {
		t.Errorf("shutdown reason = %q, want SIGTERM", events[0].Reason)
	}
}
