package machine

import (
	"github.com/gopher8080/i8080emu/pkg/cpu"
	"github.com/gopher8080/i8080emu/pkg/inst"
)

// execute dispatches one decoded instruction. pc is the address the
// opcode was fetched from (CPU.PC has already been advanced past the
// whole instruction by the caller); fixed opcodes are matched first, then
// the operand-group patterns described in the Design Notes, mirroring the
// teacher's exec.go (one routine per instruction family instead of 256
// near-duplicate branches).
func (m *Machine) execute(op uint8, info inst.Info, pc uint16) error {
	switch op {
	case 0x00: // NOP
		return nil
	case 0x76: // HLT
		m.CPU.Running = false
		return nil
	case 0xF3: // DI
		m.CPU.INTE = false
		return nil
	case 0xFB: // EI: takes effect immediately, with no one-instruction delay
		m.CPU.INTE = true
		return nil
	case 0x07:
		m.CPU.Rlc()
		return nil
	case 0x0F:
		m.CPU.Rrc()
		return nil
	case 0x17:
		m.CPU.Ral()
		return nil
	case 0x1F:
		m.CPU.Rar()
		return nil
	case 0x27:
		m.CPU.Daa()
		return nil
	case 0x2F:
		m.CPU.Cma()
		return nil
	case 0x37:
		m.CPU.Stc()
		return nil
	case 0x3F:
		m.CPU.Cmc()
		return nil
	case 0xEB: // XCHG
		h, l := m.CPU.H, m.CPU.L
		m.CPU.H, m.CPU.L = m.CPU.D, m.CPU.E
		m.CPU.D, m.CPU.E = h, l
		return nil
	case 0xE3: // XTHL
		lo := m.Mem.Read(m.CPU.SP)
		hi := m.Mem.Read(m.CPU.SP + 1)
		m.Mem.Write(m.CPU.SP, m.CPU.L)
		m.Mem.Write(m.CPU.SP+1, m.CPU.H)
		m.CPU.L, m.CPU.H = lo, hi
		return nil
	case 0xF9: // SPHL
		m.CPU.SP = m.CPU.Reg16(cpu.HL)
		return nil
	case 0xE9: // PCHL
		m.CPU.PC = m.CPU.Reg16(cpu.HL)
		return nil
	case 0x02: // STAX B
		m.Mem.Write(m.CPU.Reg16(cpu.BC), m.CPU.A)
		return nil
	case 0x12: // STAX D
		m.Mem.Write(m.CPU.Reg16(cpu.DE), m.CPU.A)
		return nil
	case 0x0A: // LDAX B
		m.CPU.A = m.Mem.Read(m.CPU.Reg16(cpu.BC))
		return nil
	case 0x1A: // LDAX D
		m.CPU.A = m.Mem.Read(m.CPU.Reg16(cpu.DE))
		return nil
	case 0x22: // SHLD a16
		addr := m.operandAddr16(pc)
		m.Mem.Write(addr, m.CPU.L)
		m.Mem.Write(addr+1, m.CPU.H)
		return nil
	case 0x2A: // LHLD a16
		addr := m.operandAddr16(pc)
		m.CPU.L = m.Mem.Read(addr)
		m.CPU.H = m.Mem.Read(addr + 1)
		return nil
	case 0x32: // STA a16
		m.Mem.Write(m.operandAddr16(pc), m.CPU.A)
		return nil
	case 0x3A: // LDA a16
		m.CPU.A = m.Mem.Read(m.operandAddr16(pc))
		return nil
	case 0xC3: // JMP a16
		m.CPU.PC = m.operandAddr16(pc)
		return nil
	case 0xCD: // CALL a16
		target := m.operandAddr16(pc)
		if err := m.push(m.CPU.PC); err != nil {
			return err
		}
		m.CPU.PC = target
		return nil
	case 0xC9: // RET
		ret, err := m.pop()
		if err != nil {
			return err
		}
		m.CPU.PC = ret
		return nil
	case 0xD3: // OUT d8
		m.Bus.Out(m.Mem.Read(pc+1), m.CPU.A)
		return nil
	case 0xDB: // IN d8
		m.CPU.A = m.Bus.In(m.Mem.Read(pc + 1))
		return nil
	}

	switch {
	case op&0xC0 == 0x40: // MOV d,s (0x76 already handled above)
		src := m.readSel(inst.DecodeSel(op))
		return m.writeSelErr(inst.DecodeDst(op), src)

	case op&0xC7 == 0x06: // MVI d,d8
		return m.writeSelErr(inst.DecodeDst(op), m.Mem.Read(pc+1))

	case op&0xCF == 0x01: // LXI rp,d16
		m.setRP(inst.DecodeRP(op), m.operandAddr16(pc))
		return nil

	case op&0xCF == 0x03: // INX rp
		rp := inst.DecodeRP(op)
		m.setRP(rp, m.getRP(rp)+1)
		return nil

	case op&0xCF == 0x0B: // DCX rp
		rp := inst.DecodeRP(op)
		m.setRP(rp, m.getRP(rp)-1)
		return nil

	case op&0xCF == 0x09: // DAD rp
		m.CPU.Dad(m.getRP(inst.DecodeRP(op)))
		return nil

	case op&0xC7 == 0x04: // INR d
		return m.modifySelErr(inst.DecodeDst(op), m.CPU.Inr)

	case op&0xC7 == 0x05: // DCR d
		return m.modifySelErr(inst.DecodeDst(op), m.CPU.Dcr)

	case op&0xC0 == 0x80: // ALU A,s
		return m.execALUReg(op)

	case op&0xC7 == 0xC6: // ALU A,d8
		return m.execALUImm(op, m.Mem.Read(pc+1))

	case op&0xC7 == 0xC2: // Jcc a16
		target := m.operandAddr16(pc)
		if m.condTrue(inst.DecodeCond(op)) {
			m.CPU.PC = target
		}
		return nil

	case op&0xC7 == 0xC4: // Ccc a16
		target := m.operandAddr16(pc)
		if m.condTrue(inst.DecodeCond(op)) {
			if err := m.push(m.CPU.PC); err != nil {
				return err
			}
			m.CPU.PC = target
		}
		return nil

	case op&0xC7 == 0xC0: // Rcc
		if m.condTrue(inst.DecodeCond(op)) {
			ret, err := m.pop()
			if err != nil {
				return err
			}
			m.CPU.PC = ret
		}
		return nil

	case op&0xC7 == 0xC7: // RST n
		n := (op >> 3) & 0x07
		if err := m.push(m.CPU.PC); err != nil {
			return err
		}
		m.CPU.PC = uint16(n) * 8
		return nil

	case op&0xCF == 0xC5: // PUSH rp
		return m.push(m.getPP(inst.DecodePP(op)))

	case op&0xCF == 0xC1: // POP rp
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.setPP(inst.DecodePP(op), v)
		return nil
	}

	return newError(KindUnimplementedOpcode, pc, op, "decoded but not dispatched")
}

// operandAddr16 reads the little-endian 16-bit operand that follows the
// opcode at pc.
func (m *Machine) operandAddr16(pc uint16) uint16 {
	lo := m.Mem.Read(pc + 1)
	hi := m.Mem.Read(pc + 2)
	return uint16(hi)<<8 | uint16(lo)
}

func (m *Machine) readSel(s inst.Sel) uint8 {
	switch s {
	case inst.SelA:
		return m.CPU.A
	case inst.SelB:
		return m.CPU.B
	case inst.SelC:
		return m.CPU.C
	case inst.SelD:
		return m.CPU.D
	case inst.SelE:
		return m.CPU.E
	case inst.SelH:
		return m.CPU.H
	case inst.SelL:
		return m.CPU.L
	case inst.SelM:
		return m.Mem.Read(m.CPU.Reg16(cpu.HL))
	}
	panic("machine: invalid Sel")
}

func (m *Machine) writeSel(s inst.Sel, v uint8) {
	switch s {
	case inst.SelA:
		m.CPU.A = v
	case inst.SelB:
		m.CPU.B = v
	case inst.SelC:
		m.CPU.C = v
	case inst.SelD:
		m.CPU.D = v
	case inst.SelE:
		m.CPU.E = v
	case inst.SelH:
		m.CPU.H = v
	case inst.SelL:
		m.CPU.L = v
	case inst.SelM:
		m.Mem.Write(m.CPU.Reg16(cpu.HL), v)
	default:
		panic("machine: invalid Sel")
	}
}

// writeSelErr adapts writeSel's void signature to execute's error-returning
// callers; writes to a register or memory operand never fail on their own.
func (m *Machine) writeSelErr(s inst.Sel, v uint8) error {
	m.writeSel(s, v)
	return nil
}

// modifySelErr applies an in-place flag-setting mutator (Inr/Dcr) to the
// selected register or memory byte at HL.
func (m *Machine) modifySelErr(s inst.Sel, mutate func(*uint8)) error {
	if s == inst.SelM {
		addr := m.CPU.Reg16(cpu.HL)
		v := m.Mem.Read(addr)
		mutate(&v)
		m.Mem.Write(addr, v)
		return nil
	}
	switch s {
	case inst.SelA:
		mutate(&m.CPU.A)
	case inst.SelB:
		mutate(&m.CPU.B)
	case inst.SelC:
		mutate(&m.CPU.C)
	case inst.SelD:
		mutate(&m.CPU.D)
	case inst.SelE:
		mutate(&m.CPU.E)
	case inst.SelH:
		mutate(&m.CPU.H)
	case inst.SelL:
		mutate(&m.CPU.L)
	default:
		panic("machine: invalid Sel")
	}
	return nil
}

func (m *Machine) execALUReg(op uint8) error {
	value := m.readSel(inst.DecodeSel(op))
	m.applyALU((op>>3)&0x07, value)
	return nil
}

func (m *Machine) execALUImm(op uint8, value uint8) error {
	m.applyALU((op>>3)&0x07, value)
	return nil
}

func (m *Machine) applyALU(group uint8, value uint8) {
	switch group {
	case 0:
		m.CPU.Add(value)
	case 1:
		m.CPU.Adc(value)
	case 2:
		m.CPU.Sub(value)
	case 3:
		m.CPU.Sbb(value)
	case 4:
		m.CPU.And(value)
	case 5:
		m.CPU.Xra(value)
	case 6:
		m.CPU.Ora(value)
	case 7:
		m.CPU.Cmp(value)
	}
}

func (m *Machine) condTrue(c inst.Cond) bool {
	switch c {
	case inst.CondNZ:
		return !m.CPU.Flag(cpu.FlagZ)
	case inst.CondZ:
		return m.CPU.Flag(cpu.FlagZ)
	case inst.CondNC:
		return !m.CPU.Flag(cpu.FlagCY)
	case inst.CondC:
		return m.CPU.Flag(cpu.FlagCY)
	case inst.CondPO:
		return !m.CPU.Flag(cpu.FlagP)
	case inst.CondPE:
		return m.CPU.Flag(cpu.FlagP)
	case inst.CondP:
		return !m.CPU.Flag(cpu.FlagS)
	case inst.CondM:
		return m.CPU.Flag(cpu.FlagS)
	}
	panic("machine: invalid Cond")
}

func (m *Machine) getRP(rp inst.RP) uint16 {
	switch rp {
	case inst.RPBC:
		return m.CPU.Reg16(cpu.BC)
	case inst.RPDE:
		return m.CPU.Reg16(cpu.DE)
	case inst.RPHL:
		return m.CPU.Reg16(cpu.HL)
	case inst.RPSP:
		return m.CPU.SP
	}
	panic("machine: invalid RP")
}

func (m *Machine) setRP(rp inst.RP, v uint16) {
	switch rp {
	case inst.RPBC:
		m.CPU.SetReg16(cpu.BC, v)
	case inst.RPDE:
		m.CPU.SetReg16(cpu.DE, v)
	case inst.RPHL:
		m.CPU.SetReg16(cpu.HL, v)
	case inst.RPSP:
		m.CPU.SP = v
	default:
		panic("machine: invalid RP")
	}
}

func (m *Machine) getPP(pp inst.PushPop) uint16 {
	switch pp {
	case inst.PPBC:
		return m.CPU.Reg16(cpu.BC)
	case inst.PPDE:
		return m.CPU.Reg16(cpu.DE)
	case inst.PPHL:
		return m.CPU.Reg16(cpu.HL)
	case inst.PPPSW:
		return m.CPU.Reg16(cpu.PSW)
	}
	panic("machine: invalid PushPop")
}

func (m *Machine) setPP(pp inst.PushPop, v uint16) {
	switch pp {
	case inst.PPBC:
		m.CPU.SetReg16(cpu.BC, v)
	case inst.PPDE:
		m.CPU.SetReg16(cpu.DE, v)
	case inst.PPHL:
		m.CPU.SetReg16(cpu.HL, v)
	case inst.PPPSW:
		m.CPU.SetReg16(cpu.PSW, v)
	default:
		panic("machine: invalid PushPop")
	}
}

// push writes v onto the stack at SP-2/SP-1 and decrements SP by 2.
func (m *Machine) push(v uint16) error {
	if m.CPU.SP < 2 {
		return newError(KindStackOverflow, m.CPU.PC, 0, "SP underflows below address 0")
	}
	m.Mem.Write(m.CPU.SP-1, uint8(v>>8))
	m.Mem.Write(m.CPU.SP-2, uint8(v))
	m.CPU.SP -= 2
	return nil
}

// pop reads a 16-bit value from SP/SP+1 and increments SP by 2.
func (m *Machine) pop() (uint16, error) {
	if m.CPU.SP == 0xFFFF {
		return 0, newError(KindStackUnderflow, m.CPU.PC, 0, "SP overflows past address 0xFFFF")
	}
	lo := m.Mem.Read(m.CPU.SP)
	hi := m.Mem.Read(m.CPU.SP + 1)
	m.CPU.SP += 2
	return uint16(hi)<<8 | uint16(lo), nil
}
