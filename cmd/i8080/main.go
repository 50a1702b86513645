// Command i8080 is the host CLI around pkg/machine: it loads raw binary
// images, runs them, disassembles them, and drives the diagnostics harness
// in pkg/diag. Built around a cobra root command with RunE subcommands,
// fmt.Printf summary output, and os.Exit(1) on failure.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gopher8080/i8080emu/pkg/bus"
	"github.com/gopher8080/i8080emu/pkg/diag"
	"github.com/gopher8080/i8080emu/pkg/inst"
	"github.com/gopher8080/i8080emu/pkg/machine"
	"github.com/gopher8080/i8080emu/pkg/mem"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "i8080",
		Short: "Intel 8080 emulator — run, disassemble, and conformance-test 8080 binaries",
	}

	rootCmd.AddCommand(newRunCmd(), newDisasmCmd(), newDiagCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var startPC uint16
	var maxSteps int
	var trace bool

	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Load a raw binary at address 0 and run it to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}

			m := mem.New()
			m.Load(program, 0)
			b := bus.New()
			b.BindOutput(0x00, bus.OutputFunc(func(v uint8) { os.Stdout.Write([]byte{v}) }))
			b.BindInput(0x00, bus.InputFunc(func() uint8 { return 0xFF }))

			mach := machine.New(m, b)
			mach.CPU.PC = startPC
			if trace {
				logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
				mach.Trace = func(pc uint16, op uint8, mnemonic string) {
					logger.Debug("step", "pc", fmt.Sprintf("%#04x", pc), "opcode", fmt.Sprintf("%#02x", op), "mnemonic", mnemonic)
				}
			}

			n, err := mach.Run(maxSteps)
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}
			fmt.Printf("halted after %d instructions at pc=%#04x\n", n, mach.CPU.PC)
			return nil
		},
	}
	cmd.Flags().Var(hexUint16Flag{&startPC}, "pc", "initial program counter (hex or decimal)")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 10_000_000, "maximum instructions to execute before giving up")
	cmd.Flags().BoolVar(&trace, "trace", false, "log each fetched instruction via slog at debug level")
	return cmd
}

func newDisasmCmd() *cobra.Command {
	var org uint16

	cmd := &cobra.Command{
		Use:   "disasm <file>",
		Short: "Disassemble a raw binary, one mnemonic per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("disasm: %w", err)
			}
			addr := int(org)
			for addr < len(program) {
				line, size := inst.Disassemble(program[addr:])
				fmt.Printf("%04X  %s\n", addr, line)
				if size < 1 {
					size = 1
				}
				addr += size
			}
			return nil
		},
	}
	cmd.Flags().Var(hexUint16Flag{&org}, "org", "file offset to start disassembling at (also the first printed address)")
	return cmd
}

func newDiagCmd() *cobra.Command {
	var cachePath string
	var workers int

	cmd := &cobra.Command{
		Use:   "diag [roms...]",
		Short: "Run the conformance harness over diagnostic ROMs (or the built-in smoke test)",
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := loadDiagTasks(args)
			if err != nil {
				return err
			}

			if workers <= 0 {
				workers = runtime.NumCPU()
			}
			pool := diag.NewWorkerPool(workers)
			pool.Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

			start := time.Now()
			results := pool.Run(tasks)
			report := diag.NewReport(results)

			var previous *diag.Report
			if cachePath != "" {
				previous, err = diag.LoadCache(cachePath)
				if err != nil {
					return fmt.Errorf("diag: %w", err)
				}
			}

			for _, res := range report.Results {
				status := "PASS"
				if !res.Pass {
					status = "FAIL"
				}
				fmt.Printf("%-20s %-4s  %8d instrs  %s", res.Name, status, res.Instructions, res.Duration)
				if !res.Pass {
					fmt.Printf("  (%s)", res.FailureDetail)
				}
				fmt.Println()
			}
			fmt.Printf("\n%d/%d passed in %s\n", report.PassCount(), len(report.Results), time.Since(start))

			if previous != nil {
				if changed := report.Diff(previous); len(changed) > 0 {
					fmt.Printf("changed since %s: %s\n", cachePath, strings.Join(changed, ", "))
				}
			}

			if cachePath != "" {
				if err := diag.SaveCache(report, cachePath); err != nil {
					return fmt.Errorf("diag: %w", err)
				}
			}

			if report.FailCount() > 0 {
				return fmt.Errorf("%d diagnostics failed", report.FailCount())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cachePath, "cache", "", "gob-encoded report path to diff against and update")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker pool size (default runtime.NumCPU())")
	return cmd
}

func loadDiagTasks(paths []string) ([]diag.Task, error) {
	if len(paths) == 0 {
		return []diag.Task{{Name: "smoke", Program: diag.SmokeProgram}}, nil
	}
	tasks := make([]diag.Task, 0, len(paths))
	for _, p := range paths {
		program, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("diag: %w", err)
		}
		tasks = append(tasks, diag.Task{Name: p, Program: program})
	}
	return tasks, nil
}

// hexUint16Flag adapts a *uint16 to pflag.Value so --pc/--org accept both
// "0x1234" and "4660".
type hexUint16Flag struct {
	dst *uint16
}

func (f hexUint16Flag) String() string {
	if f.dst == nil {
		return "0"
	}
	return strconv.Itoa(int(*f.dst))
}

func (f hexUint16Flag) Set(s string) error {
	s = strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	v, err := strconv.ParseUint(s, base, 16)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", s, err)
	}
	*f.dst = uint16(v)
	return nil
}

func (f hexUint16Flag) Type() string {
	return "address"
}
