package log

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/CJiaLin/heat/types"
	"github.com/briandowns/spinner"
)

// SweepLogger is the human-facing progress output, separate from the
// structured zerolog stream: plain lines for humans, JSON for machines,
// nothing at all for modes that don't want it.
type SweepLogger struct {
	OutputStyle types.OutputStyle
	Spinner     *spinner.Spinner
}

func NewLogger(style types.OutputStyle) *SweepLogger {
	return &SweepLogger{
		OutputStyle: style,
		Spinner: spinner.New(
			spinner.CharSets[11], // Default ⣾ style spinner, can modify this at the call site
			100*time.Millisecond,
			spinner.WithHiddenCursor(true)),
	}
}

func (l *SweepLogger) Info(msg string, args ...any) {
	if l.OutputStyle == types.StyleHuman || l.OutputStyle == types.StyleHumanVerbose {
		fmt.Printf(msg+"\n", args...)
	}
	// Silent for machine modes
}

func (l *SweepLogger) Verbose(msg string, args ...any) {
	if l.OutputStyle == types.StyleHumanVerbose {
		fmt.Printf(msg+"\n", args...)
	}
	// Silent for normal human and machine modes
}

func (l *SweepLogger) Error(msg string, args ...any) {
	if l.OutputStyle == types.StyleHuman || l.OutputStyle == types.StyleHumanVerbose {
		fmt.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
	}
	// Silent for machine modes
}

func (l *SweepLogger) Json(data any) {
	if l.OutputStyle == types.StyleMachineJSON {
		encoded, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(encoded))
	}
}

// StartSpinner starts the logger spinner. You can pass optionalCharset to
// override the default spinner. It is a variadic parameter but only the
// first argument will be used.
func (l *SweepLogger) StartSpinner(text string, optionalCharset ...[]string) {
	if l.OutputStyle == types.StyleHuman || l.OutputStyle == types.StyleHumanVerbose {
		l.Spinner.Suffix = " " + text
		if len(optionalCharset) > 0 {
			l.Spinner.UpdateCharSet(optionalCharset[0])
		}
		l.Spinner.Start()
	}
}

func (l *SweepLogger) StopSpinner() {
	if l.OutputStyle == types.StyleHuman || l.OutputStyle == types.StyleHumanVerbose {
		l.Spinner.Stop()
	}
}
