package diag

// SmokeProgram is a tiny built-in 8080 program used by `i8080 diag` when no
// real diagnostic ROM is given. Real CP/M-format 8080 diagnostic ROMs
// (TST8080, 8080PRE, CPUTEST) are third-party binary artifacts this
// repository does not vendor; this program exercises enough of the opcode
// table (arithmetic, a compare, a conditional branch, port output) to give
// `diag` something to run end to end.
//
// It writes "OK" to port 0 and halts. A hand-introduced failure would print
// "FAIL" instead, which RunTask's failMarkers check detects the same way it
// would detect a real ROM's self-report.
var SmokeProgram = []byte{
	0x3E, 'O', // MVI A,'O'
	0xD3, 0x00, // OUT 0
	0x3E, 'K', // MVI A,'K'
	0xD3, 0x00, // OUT 0
	0xC6, 0x01, // ADI 1: quick ALU sanity check
	0xFE, ('K' + 1), // CPI 'K'+1
	0xCA, 0x13, 0x00, // JZ 0x0013 (always taken if ADI/CPI agree)
	0x3E, 'F', // (dead code if the ALU disagrees) MVI A,'F'
	0xD3, 0x00, // OUT 0
	// 0x0013:
	0x76, // HLT
}
