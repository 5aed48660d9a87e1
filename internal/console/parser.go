package console

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethoslab/shuttlebox/internal/relay"
)

// Kind identifies a parsed command.
type Kind int

const (
	KindUnknown Kind = iota
	// KindTarget sets the right-chamber target and starts acclimation.
	KindTarget
	// KindStart begins a trial.
	KindStart
	// KindReset returns to Idle and invalidates persisted state.
	KindReset
	// KindLeft / KindRight are the manual position overrides.
	KindLeft
	KindRight
	// KindStatus requests a status line.
	KindStatus
	// KindPing is the host's liveness probe.
	KindPing
	// KindAllOff is the emergency stop.
	KindAllOff
	// KindSafetyOverride / KindSafetyNormal toggle the relay interlock.
	KindSafetyOverride
	KindSafetyNormal
	// KindRelay is a manual relay command.
	KindRelay
)

// Command is one parsed operator command.
type Command struct {
	Kind   Kind
	Target float64     // KindTarget only
	Relay  relay.Relay // KindRelay only
	On     bool        // KindRelay only
}

var relayWords = map[string]struct {
	r  relay.Relay
	on bool
}{
	"heat_on":         {relay.Heat, true},
	"heat_off":        {relay.Heat, false},
	"cool_on":         {relay.Cool, true},
	"cool_off":        {relay.Cool, false},
	"buffer_heat_on":  {relay.BufferHeat, true},
	"buffer_heat_off": {relay.BufferHeat, false},
	"buffer_cool_on":  {relay.BufferCool, true},
	"buffer_cool_off": {relay.BufferCool, false},
}

// Parse interprets one command line. Commands are case-insensitive.
func Parse(line string) (Command, error) {
	word := strings.ToLower(strings.TrimSpace(line))
	if word == "" {
		return Command{}, fmt.Errorf("empty command")
	}

	switch word {
	case "start":
		return Command{Kind: KindStart}, nil
	case "reset":
		return Command{Kind: KindReset}, nil
	case "left":
		return Command{Kind: KindLeft}, nil
	case "right":
		return Command{Kind: KindRight}, nil
	case "status":
		return Command{Kind: KindStatus}, nil
	case "ping":
		return Command{Kind: KindPing}, nil
	case "all_off":
		return Command{Kind: KindAllOff}, nil
	case "safety_override":
		return Command{Kind: KindSafetyOverride}, nil
	case "safety_normal":
		return Command{Kind: KindSafetyNormal}, nil
	}

	if rw, ok := relayWords[word]; ok {
		return Command{Kind: KindRelay, Relay: rw.r, On: rw.on}, nil
	}

	// t<float> sets the target temperature.
	if strings.HasPrefix(word, "t") {
		target, err := strconv.ParseFloat(word[1:], 64)
		if err != nil {
			return Command{}, fmt.Errorf("bad target %q", line)
		}
		return Command{Kind: KindTarget, Target: target}, nil
	}

	return Command{}, fmt.Errorf("unknown command %q", line)
}
