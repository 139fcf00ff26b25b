package input

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
)

// #region command

// Control verbs a console line may carry instead of an input.
const (
	ControlState   = "state"
	ControlRebirth = "rebirth"
	ControlHelp    = "help"
	ControlQuit    = "quit"
)

// DefaultIntensity applies when a command omits one.
const DefaultIntensity = 0.5

// ErrEmptyLine is returned for blank console lines.
var ErrEmptyLine = errors.New("empty line")

// Command is one parsed console line: either an input to submit or a control verb.
type Command struct {
	Control string
	Input   state.Input
}

// Usage lists the console syntax.
const Usage = `text                      speak to the seed
/say <text>               same as plain text
/touch <x> <y> [i]        touch the canvas at (x, y), 0..500
/positive|/negative|/threat|/opportunity|/neutral [i]
/state                    print the current state
/rebirth                  start over from birth
/help                     show this help
/quit                     exit`

// ParseLine turns a console line into a Command. Plain text is speech.
func ParseLine(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, ErrEmptyLine
	}
	if !strings.HasPrefix(line, "/") {
		return speech(line), nil
	}

	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("missing command after /")
	}
	verb, args := strings.ToLower(fields[0]), fields[1:]
	switch verb {
	case ControlState, ControlRebirth, ControlHelp, ControlQuit:
		return Command{Control: verb}, nil
	case "exit":
		return Command{Control: ControlQuit}, nil
	case "say":
		text := strings.TrimSpace(strings.TrimPrefix(line[1:], fields[0]))
		if text == "" {
			return Command{}, fmt.Errorf("/say needs text")
		}
		return speech(text), nil
	case string(state.InputTouch):
		if len(args) < 2 || len(args) > 3 {
			return Command{}, fmt.Errorf("usage: /touch <x> <y> [intensity]")
		}
		x, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return Command{}, fmt.Errorf("touch x: %w", err)
		}
		y, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return Command{}, fmt.Errorf("touch y: %w", err)
		}
		intensity, err := optionalIntensity(args[2:])
		if err != nil {
			return Command{}, err
		}
		return Command{Input: state.Input{Kind: state.InputTouch, X: x, Y: y, Intensity: intensity}}, nil
	}

	kind, err := state.ParseInputKind(verb)
	if err != nil || kind == state.InputSpeech {
		return Command{}, fmt.Errorf("unknown command /%s", verb)
	}
	if len(args) > 1 {
		return Command{}, fmt.Errorf("usage: /%s [intensity]", verb)
	}
	intensity, err := optionalIntensity(args)
	if err != nil {
		return Command{}, err
	}
	return Command{Input: state.Input{Kind: kind, Intensity: intensity}}, nil
}

func speech(text string) Command {
	return Command{Input: state.Input{Kind: state.InputSpeech, Text: text, Intensity: DefaultIntensity}}
}

func optionalIntensity(args []string) (float64, error) {
	if len(args) == 0 {
		return DefaultIntensity, nil
	}
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, fmt.Errorf("intensity: %w", err)
	}
	return state.Clamp01(v), nil
}

// #endregion command
