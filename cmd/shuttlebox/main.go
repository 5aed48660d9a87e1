// Command shuttlebox runs the shuttlebox thermoregulation controller:
// it tracks the fish across the two chambers via the IR barriers,
// drives the heat and cool circuits, and answers the host over serial.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethoslab/shuttlebox/internal/console"
	"github.com/ethoslab/shuttlebox/internal/datalog"
	"github.com/ethoslab/shuttlebox/internal/gpio"
	"github.com/ethoslab/shuttlebox/internal/mqtt"
	"github.com/ethoslab/shuttlebox/internal/onewire"
	"github.com/ethoslab/shuttlebox/internal/pconf"
	"github.com/ethoslab/shuttlebox/internal/relay"
	"github.com/ethoslab/shuttlebox/internal/status"
	"github.com/ethoslab/shuttlebox/internal/thermo"
	"github.com/ethoslab/shuttlebox/internal/track"
	"github.com/ethoslab/shuttlebox/internal/web"
)

type options struct {
	poll         time.Duration
	debounce     time.Duration
	dwell        time.Duration
	sample       time.Duration
	differential float64
	serialDev    string
	baud         int
	broker       string
	httpAddr     string
	configPath   string
	datalogPath  string
	heartbeat    time.Duration
	w1Left       string
	w1Right      string
	w1Offset     float64
	printState   bool
}

func main() {
	var opts options
	flag.DurationVar(&opts.poll, "poll", 50*time.Millisecond, "Sensor polling interval")
	flag.DurationVar(&opts.debounce, "debounce", 50*time.Millisecond, "IR barrier debounce duration")
	flag.DurationVar(&opts.dwell, "dwell", 2*time.Second, "Dwell before a chamber position is reported")
	flag.DurationVar(&opts.sample, "sample", 5*time.Second, "Temperature sampling interval")
	flag.Float64Var(&opts.differential, "differential", 2.0, "Chamber temperature differential in degrees C")
	flag.StringVar(&opts.serialDev, "serial", "/dev/ttyAMA0", "Serial console device (empty to disable)")
	flag.IntVar(&opts.baud, "baud", 9600, "Serial console baud rate")
	flag.StringVar(&opts.broker, "broker", "", "MQTT broker address (empty to disable)")
	flag.StringVar(&opts.httpAddr, "http", ":8080", "HTTP status address (empty to disable)")
	flag.StringVar(&opts.configPath, "config", "/var/lib/shuttlebox/config.db", "Persistent configuration path")
	flag.StringVar(&opts.datalogPath, "datalog", "", "Experiment sqlite log path (empty to disable)")
	flag.DurationVar(&opts.heartbeat, "heartbeat", 5*time.Second, "Heartbeat interval (0 to disable)")
	flag.StringVar(&opts.w1Left, "w1-left", "", "1-Wire device ID of the left chamber probe")
	flag.StringVar(&opts.w1Right, "w1-right", "", "1-Wire device ID of the right chamber probe")
	flag.Float64Var(&opts.w1Offset, "w1-offset", 0, "Probe calibration offset in degrees C")
	flag.BoolVar(&opts.printState, "print-state", false, "Print current sensor state and exit")
	flag.Parse()

	if err := run(opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(opts options) error {
	reader, err := gpio.NewRealReader(gpio.DefaultPins)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer reader.Close()

	if opts.printState {
		frame, err := reader.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		arr := track.NewArray(0, track.Frame(frame))
		fmt.Println(arr.SensorLine())
		return nil
	}

	relays, err := relay.NewRealDriver(relay.DefaultPins)
	if err != nil {
		return fmt.Errorf("init relays: %w", err)
	}
	defer relays.Close()

	sensors, err := onewire.NewRealSensors(opts.w1Left, opts.w1Right, opts.w1Offset)
	if err != nil {
		return fmt.Errorf("init 1-wire: %w", err)
	}
	defer sensors.Close()

	store, err := pconf.OpenBolt(opts.configPath)
	if err != nil {
		return fmt.Errorf("open config store: %w", err)
	}
	defer store.Close()

	cfg := thermo.DefaultConfig()
	cfg.SampleInterval = opts.sample
	cfg.Differential = opts.differential
	ctrl, err := thermo.New(cfg, relays, sensors, store)
	if err != nil {
		return fmt.Errorf("init controller: %w", err)
	}

	var port console.Port
	if opts.serialDev != "" {
		sp, err := console.OpenSerial(opts.serialDev, opts.baud)
		if err != nil {
			return fmt.Errorf("open serial: %w", err)
		}
		defer sp.Close()
		port = sp
	}

	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if opts.broker != "" {
		pub, err := mqtt.NewRealPublisher(opts.broker)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer pub.Close()
		publisher = pub
		mqttStatus = pub
	}

	var dlog *datalog.Log
	if opts.datalogPath != "" {
		dlog, err = datalog.Open(opts.datalogPath)
		if err != nil {
			return fmt.Errorf("open datalog: %w", err)
		}
		defer dlog.Close()
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:     opts.poll.Milliseconds(),
		DebounceMs: opts.debounce.Milliseconds(),
		DwellMs:    opts.dwell.Milliseconds(),
		SampleMs:   opts.sample.Milliseconds(),
		Broker:     opts.broker,
		HTTPPort:   opts.httpAddr,
		SerialPort: opts.serialDev,
	})

	if opts.httpAddr != "" {
		srv := web.New(opts.httpAddr, tracker, opts.differential)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", opts.httpAddr)
	}

	log.Printf("started: poll=%v debounce=%v dwell=%v sample=%v serial=%s broker=%s",
		opts.poll, opts.debounce, opts.dwell, opts.sample, opts.serialDev, opts.broker)

	ticker := time.NewTicker(opts.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	a := &app{
		reader:       reader,
		port:         port,
		ctrl:         ctrl,
		array:        track.NewArray(opts.debounce, initialFrame(reader)),
		tracker:      track.NewTracker(opts.dwell),
		publisher:    publisher,
		mqttStatus:   mqttStatus,
		stat:         tracker,
		dlog:         dlog,
		heartbeat:    opts.heartbeat,
		differential: opts.differential,
		now:          time.Now,
	}
	a.startup()
	return a.runLoop(ticker.C, sigCh)
}

// initialFrame seeds the debounce filters from the live sensor levels
// so startup does not report spurious transitions.
func initialFrame(reader gpio.Reader) track.Frame {
	frame, err := reader.Read()
	if err != nil {
		log.Printf("initial gpio read error: %v", err)
		return track.Frame(gpio.AllClear)
	}
	return track.Frame(frame)
}

type app struct {
	reader       gpio.Reader
	port         console.Port // nil disables the serial console
	ctrl         *thermo.Controller
	array        *track.Array
	tracker      *track.Tracker
	publisher    mqtt.Publisher        // nil disables telemetry
	mqttStatus   mqtt.ConnectionStatus // nil when publisher is nil
	stat         *status.Tracker
	dlog         *datalog.Log // nil drops everything
	heartbeat    time.Duration
	differential float64
	now          func() time.Time

	lastHeartbeat time.Time
}

// startup announces readiness on every boundary. The banner tells the
// host the controller rebooted and any in-flight command was lost.
func (a *app) startup() {
	t := a.now()
	a.writeLine("SHUTTLEBOX_READY")
	a.emit(t, a.ctrl.Drain())
	a.lastHeartbeat = t

	a.updateStatus()
	if a.publisher != nil {
		snap := a.stat.Snapshot()
		event := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, a.differential, "STARTUP", ""),
		}
		if err := a.publisher.PublishSystem(event); err != nil {
			log.Printf("failed to publish startup event: %v", err)
		}
	}
	if err := a.dlog.Event(t, "system", "STARTUP"); err != nil {
		log.Printf("datalog error: %v", err)
	}
}

func (a *app) runLoop(tick <-chan time.Time, sig <-chan os.Signal) error {
	var lines <-chan string
	if a.port != nil {
		lines = a.port.Lines()
	}

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			a.shutdown(s)
			return nil

		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			a.handleCommand(line, a.now())

		case <-tick:
			a.step(a.now())
		}
	}
}

func (a *app) shutdown(s os.Signal) {
	t := a.now()
	a.emit(t, a.ctrl.AllOff())

	signalName := "UNKNOWN"
	if s == syscall.SIGINT {
		signalName = "SIGINT"
	} else if s == syscall.SIGTERM {
		signalName = "SIGTERM"
	}
	if a.publisher != nil {
		a.updateStatus()
		snap := a.stat.Snapshot()
		event := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "SHUTDOWN",
			Reason:     signalName,
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, a.differential, "SHUTDOWN", signalName),
		}
		if err := a.publisher.PublishSystem(event); err != nil {
			log.Printf("failed to publish shutdown event: %v", err)
		}
	}
	if err := a.dlog.Event(t, "system", "SHUTDOWN "+signalName); err != nil {
		log.Printf("datalog error: %v", err)
	}
}

// step is one control tick: read sensors, advance the position
// tracker, run the thermal pipeline, refresh status.
func (a *app) step(t time.Time) {
	frame, err := a.reader.Read()
	if err != nil {
		log.Printf("gpio read error: %v", err)
	} else {
		trs := a.array.Sample(track.Frame(frame), t)
		if len(trs) > 0 {
			a.writeLine(a.array.SensorLine())
		}
		pos := a.tracker.Update(trs, a.array.LeftClear(), a.array.RightClear(), t)
		if pos != track.PositionNone {
			a.reportPosition(pos, t)
		}
	}

	sample, notes := a.ctrl.Tick(t)
	a.emit(t, notes)
	if sample != nil {
		a.writeLine(fmt.Sprintf("TEMP:%.2f/%.2f", sample.Left, sample.Right))
		log.Printf("temps: left=%.2f right=%.2f", sample.Left, sample.Right)
		if err := a.dlog.Temperatures(t, sample.Left, sample.Right); err != nil {
			log.Printf("datalog error: %v", err)
		}
	}

	if a.heartbeat > 0 && t.Sub(a.lastHeartbeat) >= a.heartbeat {
		a.lastHeartbeat = t
		a.writeLine("HEARTBEAT")
		if a.publisher != nil {
			a.updateStatus()
			snap := a.stat.Snapshot()
			event := mqtt.SystemEvent{
				Timestamp:  snap.Now,
				Event:      "HEARTBEAT",
				RawPayload: status.FormatStatusEvent(snap, a.differential, "HEARTBEAT", ""),
			}
			if err := a.publisher.PublishSystem(event); err != nil {
				log.Printf("heartbeat publish error: %v", err)
			}
		}
	}

	a.updateStatus()
}

// reportPosition forwards one position report on every boundary. The
// code goes out first so the host timestamp is as close to the event
// as possible.
func (a *app) reportPosition(pos track.Position, t time.Time) {
	a.writeLine(pos.Code())
	log.Printf("position: %s", pos)

	a.emit(t, a.ctrl.OnPosition(pos, a.array.LeftClear(), a.array.RightClear(), t))
	a.stat.CountPosition(pos)

	if a.publisher != nil {
		event := mqtt.PositionEvent{
			Timestamp: t,
			Position:  pos.String(),
			Code:      pos.Code(),
		}
		if err := a.publisher.PublishPosition(event); err != nil {
			log.Printf("publish error: %v", err)
		}
	}
	if err := a.dlog.Position(t, pos.Code(), pos.String()); err != nil {
		log.Printf("datalog error: %v", err)
	}
}

func (a *app) handleCommand(line string, t time.Time) {
	cmd, err := console.Parse(line)
	if err != nil {
		a.writeLine("ERR unknown command")
		log.Printf("command error: %v", err)
		return
	}
	if err := a.dlog.Event(t, "command", line); err != nil {
		log.Printf("datalog error: %v", err)
	}

	switch cmd.Kind {
	case console.KindTarget:
		a.emit(t, a.ctrl.SetTarget(cmd.Target))
	case console.KindStart:
		a.emit(t, a.ctrl.StartTrial())
	case console.KindReset:
		a.emit(t, a.ctrl.Reset())
		a.tracker.Reset()
	case console.KindLeft:
		if pos := a.tracker.Force(track.SideLeft, t); pos != track.PositionNone {
			a.reportPosition(pos, t)
		}
	case console.KindRight:
		if pos := a.tracker.Force(track.SideRight, t); pos != track.PositionNone {
			a.reportPosition(pos, t)
		}
	case console.KindStatus:
		a.updateStatus()
		a.writeLine(a.stat.Snapshot().Line())
	case console.KindPing:
		a.writeLine("PONG")
	case console.KindAllOff:
		a.emit(t, a.ctrl.AllOff())
	case console.KindSafetyOverride:
		a.emit(t, a.ctrl.SetSafetyOverride(true))
	case console.KindSafetyNormal:
		a.emit(t, a.ctrl.SetSafetyOverride(false))
	case console.KindRelay:
		a.emit(t, a.ctrl.Command(cmd.Relay, cmd.On))
	}
	a.updateStatus()
}

// emit forwards controller notes to the serial boundary and the log.
func (a *app) emit(t time.Time, notes []string) {
	for _, n := range notes {
		a.writeLine(n)
		log.Printf("%s", n)
		if err := a.dlog.Event(t, "control", n); err != nil {
			log.Printf("datalog error: %v", err)
		}
	}
}

func (a *app) writeLine(line string) {
	if a.port == nil {
		return
	}
	if err := a.port.WriteLine(line); err != nil {
		log.Printf("serial write error: %v", err)
	}
}

func (a *app) updateStatus() {
	target, targetSet := a.ctrl.Target()
	left, right, haveTemps := a.ctrl.Temps()
	a.stat.Update(a.tracker.LastReported(), a.array.Levels(), a.ctrl.Mode(),
		target, targetSet, left, right, haveTemps,
		a.ctrl.RelayStates(), a.ctrl.SafetyOverride())
	if a.mqttStatus != nil {
		a.stat.SetMQTTConnected(a.mqttStatus.IsConnected())
	}
}
