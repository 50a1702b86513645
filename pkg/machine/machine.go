// Package machine wires the register file (pkg/cpu), flat memory (pkg/mem),
// and port bus (pkg/bus) into a runnable Intel 8080: fetch/decode/execute,
// the HALT/interrupt control unit, and the single source of machine.Error
// failures.
package machine

import (
	"github.com/gopher8080/i8080emu/pkg/bus"
	"github.com/gopher8080/i8080emu/pkg/cpu"
	"github.com/gopher8080/i8080emu/pkg/inst"
	"github.com/gopher8080/i8080emu/pkg/mem"
)

// Machine is one complete 8080: register file, memory, and port bus. The
// zero value is not useful; construct with New.
type Machine struct {
	CPU cpu.State
	Mem *mem.Memory
	Bus *bus.Bus

	// Trace, when non-nil, is called once per fetched instruction before it
	// executes. Used by cmd/i8080's --trace flag.
	Trace func(pc uint16, op uint8, mnemonic string)
}

// New returns a Machine with a fresh register file over the given memory
// and bus.
func New(m *mem.Memory, b *bus.Bus) *Machine {
	return &Machine{CPU: cpu.New(), Mem: m, Bus: b}
}

// Step fetches and executes exactly one instruction, returning the
// documented T-state count consumed. Step does nothing and returns (0, nil)
// when the CPU is halted; call Interrupt to resume it.
func (m *Machine) Step() (int, error) {
	if !m.CPU.Running {
		return 0, nil
	}
	pc := m.CPU.PC
	op := m.Mem.Read(pc)
	info := inst.Catalog[op]
	if !info.Defined {
		return 0, newError(KindUnimplementedOpcode, pc, op, "")
	}
	if int(pc)+info.Size-1 > 0xFFFF {
		return 0, newError(KindFetchOutOfRange, pc, op, "instruction operand crosses top of memory")
	}
	if m.Trace != nil {
		line, _ := inst.Disassemble(m.Mem[int(pc) : int(pc)+info.Size])
		m.Trace(pc, op, line)
	}
	m.CPU.PC += uint16(info.Size)
	if err := m.execute(op, info, pc); err != nil {
		return 0, err
	}
	return info.TStates, nil
}

// Run steps the machine until it halts, an error occurs, or limit
// instructions have executed (limit<=0 means unbounded). It returns the
// number of instructions executed.
func (m *Machine) Run(limit int) (int, error) {
	n := 0
	for m.CPU.Running {
		if limit > 0 && n >= limit {
			break
		}
		if _, err := m.Step(); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Reset reinitializes the register file to power-on state, leaving memory
// and bus bindings untouched.
func (m *Machine) Reset() {
	m.CPU = cpu.New()
}

// Interrupt delivers opcode directly to the execution engine, bypassing the
// normal fetch at PC, per the 8080's single maskable interrupt line: an
// external device drives the data bus with an instruction (almost always
// an RST) instead of the CPU fetching from memory. It clears INTE first, so
// a handler that wants nested interrupts must re-enable with EI. It also
// sets Running, since HLT plus a pending interrupt is how the reference
// hardware resumes a halted CPU.
func (m *Machine) Interrupt(opcode uint8) error {
	if !m.CPU.INTE {
		return newError(KindInterruptsDisabled, m.CPU.PC, opcode, "")
	}
	m.CPU.INTE = false
	m.CPU.Running = true
	info := inst.Catalog[opcode]
	if !info.Defined {
		return newError(KindUnimplementedOpcode, m.CPU.PC, opcode, "interrupt vector")
	}
	return m.execute(opcode, info, m.CPU.PC)
}
