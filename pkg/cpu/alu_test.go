package cpu

import "testing"

func TestAddSetsCarryAndAux(t *testing.T) {
	s := New()
	s.A = 0x3A
	s.Add(0xC6)
	if s.A != 0x00 {
		t.Fatalf("A = %#02x, want 0x00", s.A)
	}
	if !s.Flag(FlagCY) {
		t.Fatal("CY should be set on overflow past 0xFF")
	}
	if !s.Flag(FlagAC) {
		t.Fatal("AC should be set: low nibbles 0xA+0x6 carry")
	}
	if !s.Flag(FlagZ) {
		t.Fatal("Z should be set for a zero result")
	}
}

func TestAdcIncludesIncomingCarry(t *testing.T) {
	s := New()
	s.A = 0x01
	s.SetFlag(FlagCY, true)
	s.Adc(0x01)
	if s.A != 0x03 {
		t.Fatalf("A = %#02x, want 0x03", s.A)
	}
}

func TestSubSetsBorrowFlags(t *testing.T) {
	s := New()
	s.A = 0x00
	s.Sub(0x01)
	if s.A != 0xFF {
		t.Fatalf("A = %#02x, want 0xFF", s.A)
	}
	if !s.Flag(FlagCY) {
		t.Fatal("CY should be set: borrow occurred")
	}
	if !s.Flag(FlagAC) {
		t.Fatal("AC should be set: nibble borrow occurred")
	}
}

func TestCmpLeavesAUnchanged(t *testing.T) {
	s := New()
	s.A = 0x10
	s.Cmp(0x10)
	if s.A != 0x10 {
		t.Fatalf("A = %#02x, CMP must not modify the accumulator", s.A)
	}
	if !s.Flag(FlagZ) {
		t.Fatal("Z should be set when operands are equal")
	}
}

func TestAndUsesBit3OrRule(t *testing.T) {
	s := New()
	s.A = 0x08 // bit 3 set
	s.And(0x00)
	if !s.Flag(FlagAC) {
		t.Fatal("AC should be set: bit 3 of A was set before the AND")
	}
	s2 := New()
	s2.A = 0x01
	s2.And(0x01)
	if s2.Flag(FlagAC) {
		t.Fatal("AC should be clear: neither operand had bit 3 set")
	}
}

func TestInrDcrLeaveCarryUntouched(t *testing.T) {
	s := New()
	s.SetFlag(FlagCY, true)
	v := uint8(0xFF)
	s.Inr(&v)
	if v != 0x00 {
		t.Fatalf("v = %#02x, want 0x00", v)
	}
	if !s.Flag(FlagCY) {
		t.Fatal("CY must survive INR")
	}
	if !s.Flag(FlagZ) || !s.Flag(FlagAC) {
		t.Fatal("INR wraparound should set Z and AC")
	}

	s.Dcr(&v)
	if v != 0xFF {
		t.Fatalf("v = %#02x, want 0xFF", v)
	}
	if !s.Flag(FlagCY) {
		t.Fatal("CY must survive DCR")
	}
}

func TestDadSetsOnlyCarry(t *testing.T) {
	s := New()
	s.SetReg16(HL, 0xFFFF)
	s.SetFlag(FlagZ, true)
	s.Dad(0x0001)
	if s.Reg16(HL) != 0x0000 {
		t.Fatalf("HL = %#04x, want 0x0000", s.Reg16(HL))
	}
	if !s.Flag(FlagCY) {
		t.Fatal("CY should be set on 16-bit overflow")
	}
	if !s.Flag(FlagZ) {
		t.Fatal("DAD must not touch Z")
	}
}

func TestRotates(t *testing.T) {
	s := New()
	s.A = 0x80
	s.Rlc()
	if s.A != 0x01 || !s.Flag(FlagCY) {
		t.Fatalf("RLC: A=%#02x CY=%v, want A=0x01 CY=true", s.A, s.Flag(FlagCY))
	}

	s2 := New()
	s2.A = 0x01
	s2.Rrc()
	if s2.A != 0x80 || !s2.Flag(FlagCY) {
		t.Fatalf("RRC: A=%#02x CY=%v, want A=0x80 CY=true", s2.A, s2.Flag(FlagCY))
	}

	s3 := New()
	s3.A = 0x80
	s3.SetFlag(FlagCY, false)
	s3.Ral()
	if s3.A != 0x00 || !s3.Flag(FlagCY) {
		t.Fatalf("RAL: A=%#02x CY=%v, want A=0x00 CY=true", s3.A, s3.Flag(FlagCY))
	}

	s4 := New()
	s4.A = 0x01
	s4.SetFlag(FlagCY, true)
	s4.Rar()
	if s4.A != 0x80 || !s4.Flag(FlagCY) {
		t.Fatalf("RAR: A=%#02x CY=%v, want A=0x80 CY=true", s4.A, s4.Flag(FlagCY))
	}
}

func TestCmaCmcStc(t *testing.T) {
	s := New()
	s.A = 0x0F
	s.Cma()
	if s.A != 0xF0 {
		t.Fatalf("CMA: A=%#02x, want 0xF0", s.A)
	}

	s.SetFlag(FlagCY, false)
	s.Stc()
	if !s.Flag(FlagCY) {
		t.Fatal("STC should set CY")
	}
	s.Cmc()
	if s.Flag(FlagCY) {
		t.Fatal("CMC should clear a set CY")
	}
}

// TestDaaMatchesDatabookVector exercises the literal DAA scenario: A=0x9B,
// CY=0, AC=0 must decimal-adjust to A=0x01, CY=1, AC=1.
func TestDaaMatchesDatabookVector(t *testing.T) {
	s := New()
	s.A = 0x9B
	s.SetFlag(FlagCY, false)
	s.SetFlag(FlagAC, false)
	s.Daa()
	if s.A != 0x01 {
		t.Fatalf("A = %#02x, want 0x01", s.A)
	}
	if !s.Flag(FlagCY) {
		t.Fatal("CY should be set")
	}
	if !s.Flag(FlagAC) {
		t.Fatal("AC should be set")
	}
	if s.Flag(FlagZ) {
		t.Fatal("Z should be clear")
	}
	if s.Flag(FlagS) {
		t.Fatal("S should be clear")
	}
}
