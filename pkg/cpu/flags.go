package cpu

// ParityTable[v] is FlagP if v has an even number of set bits, else 0.
// Precomputed once at init so flags are a table lookup rather than a
// popcount at every ALU op.
var ParityTable [256]uint8

// SZTable[v] carries the Sign and Zero bits implied by the byte value v.
var SZTable [256]uint8

// SZPTable[v] is SZTable[v] | ParityTable[v], the common case for logical ops.
var SZPTable [256]uint8

func init() {
	for i := 0; i < 256; i++ {
		v := uint8(i)
		parity := uint8(0)
		for b := v; b != 0; b &= b - 1 {
			parity ^= 1
		}
		if parity == 0 {
			ParityTable[i] = uint8(FlagP)
		}
		if v&0x80 != 0 {
			SZTable[i] |= uint8(FlagS)
		}
		if v == 0 {
			SZTable[i] |= uint8(FlagZ)
		}
		SZPTable[i] = SZTable[i] | ParityTable[i]
	}
}
