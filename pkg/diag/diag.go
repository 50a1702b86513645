// Package diag is the diagnostics harness: it runs one machine.Machine per
// classic 8080 test ROM concurrently, captures console output on port 0,
// and aggregates pass/fail into a sorted, cacheable Report.
//
// The runner is a WorkerPool (channel of tasks, sync.WaitGroup, atomic.Int64
// counters, a ticking progress reporter) feeding a Report (mutex-free sorted
// results, with encoding/gob persistence for diffing across runs).
package diag

import (
	"bytes"
	"errors"
	"time"

	"github.com/gopher8080/i8080emu/pkg/bus"
	"github.com/gopher8080/i8080emu/pkg/machine"
	"github.com/gopher8080/i8080emu/pkg/mem"
)

// Result is the outcome of running one ROM (or built-in program) to
// completion.
type Result struct {
	Name         string
	Pass         bool
	Output       string
	Instructions int
	Duration     time.Duration
	FailureKind  string // machine.Kind.String(), empty on a clean HALT
	FailureDetail string
}

// Task is one unit of diagnostic work: a name plus the raw 8080 binary to
// load at address 0 and run.
type Task struct {
	Name    string
	Program []byte
	// MaxSteps bounds a runaway program; 0 means DefaultMaxSteps.
	MaxSteps int
}

// DefaultMaxSteps caps a single diagnostic run so a ROM that never HALTs
// cannot wedge a worker forever.
const DefaultMaxSteps = 10_000_000

// failMarkers are substrings classic CP/M-era 8080 diagnostic ROMs print on
// a detected failure (TST8080, 8080PRE, CPUTEST all use some variant).
var failMarkers = []string{"FAIL", "ERROR"}

// RunTask executes one Task to completion and returns its Result. It never
// returns an error itself — engine failures are recorded in the Result so a
// batch of tasks can be summarized uniformly.
func RunTask(t Task) Result {
	start := time.Now()
	m := mem.New()
	m.Load(t.Program, 0x0000)

	var out bytes.Buffer
	b := bus.New()
	b.BindOutput(0x00, bus.OutputFunc(func(v uint8) { out.WriteByte(v) }))
	b.BindInput(0x00, bus.InputFunc(func() uint8 { return 0xFF }))

	mach := machine.New(m, b)
	maxSteps := t.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	n, err := mach.Run(maxSteps)
	elapsed := time.Since(start)

	res := Result{
		Name:         t.Name,
		Output:       out.String(),
		Instructions: n,
		Duration:     elapsed,
		Pass:         err == nil,
	}
	if err != nil {
		res.Pass = false
		res.FailureDetail = err.Error()
		var merr *machine.Error
		if errors.As(err, &merr) {
			res.FailureKind = merr.Kind.String()
		}
	}
	if res.Pass {
		for _, marker := range failMarkers {
			if bytes.Contains(out.Bytes(), []byte(marker)) {
				res.Pass = false
				res.FailureDetail = "console output contained " + marker
				break
			}
		}
	}
	return res
}
