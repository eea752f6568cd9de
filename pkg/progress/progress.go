// Package progress defines the sink the pipeline reports its work to.
//
// A stage asks for a Bar when it knows the number of units up front and for a
// Spinner when it does not. Both return a Tracker that is incremented once
// per finished unit and finished exactly once when the stage ends.
package progress

import (
	"encoding/json"
	"fmt"

	"github.com/paulschiretz/pgl-modpack/pkg/util"
)

// Tracker follows a single pipeline step.
// Increment must be safe for concurrent use. Finish and Abort end the step;
// whichever comes first wins and later calls are ignored.
type Tracker interface {
	Increment()
	// Finish ends the step with its done label.
	Finish()
	// Abort ends the step without the done label.
	Abort()
}

// Reporter creates trackers for pipeline steps.
type Reporter interface {
	// Bar starts a bounded counter with a known total.
	Bar(title, done string, total int) Tracker
	// Spinner starts an indeterminate indicator.
	Spinner(title, done string) Tracker
}

// Mode selects the Reporter implementation.
type Mode string

const (
	// Auto uses Terminal when stdout is a TTY and Log otherwise.
	Auto Mode = "auto"
	// Terminal renders pterm bars and spinners.
	Terminal Mode = "bar"
	// Log writes periodic progress lines through plog.
	Log Mode = "log"
	// None disables progress output.
	None Mode = "none"
)

var modeToString = map[Mode]string{
	Auto:     "auto",
	Terminal: "bar",
	Log:      "log",
	None:     "none",
}

var stringToMode map[string]Mode

func init() {
	stringToMode = util.InvertMap(modeToString)
}

func (m Mode) String() string {
	if str, ok := modeToString[m]; ok {
		return str
	}
	return fmt.Sprintf("unknown_progress_mode(%s)", string(m))
}

// ParseMode parses a progress mode name.
func ParseMode(s string) (Mode, error) {
	if mode, ok := stringToMode[s]; ok {
		return mode, nil
	}
	return "", fmt.Errorf("invalid progress mode: %q. Must be 'auto', 'bar', 'log' or 'none'", s)
}

// MarshalJSON implements the json.Marshaler interface for Mode.
func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for Mode.
func (m *Mode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("progress mode should be a string, got %s", data)
	}
	mode, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// NoopReporter is a Reporter that discards every event.
type NoopReporter struct{}

func (NoopReporter) Bar(title, done string, total int) Tracker { return noopTracker{} }
func (NoopReporter) Spinner(title, done string) Tracker        { return noopTracker{} }

type noopTracker struct{}

func (noopTracker) Increment() {}
func (noopTracker) Finish()    {}
func (noopTracker) Abort()     {}

// Statically assert that our types implement the interface.
var _ Reporter = NoopReporter{}
var _ Reporter = (*LogReporter)(nil)
var _ Reporter = (*TerminalReporter)(nil)
var _ Reporter = (*Recorder)(nil)
