package avr

// ATmega328P memory layout.
//
// data space:
// 0000 -- register file r0..r31
// 0020 -- I/O registers (SREG at 005F, SPL/SPH at 005D/005E)
// 0060 -- extended I/O
// 0100 -- internal SRAM: .data, .bss, task stacks
// 08FF -- RAMEND, initial SP of the reset context
//
// program space is addressed in 16-bit words:
// 0000 -- interrupt vectors, two words each
// 0034 -- first word after the vector table, where code starts
// 3FFF -- last word of the 32 KiB flash
const (
	RAMStart = 0x0100
	RAMEnd   = 0x08ff
	SRAMSize = RAMEnd - RAMStart + 1

	FlashWords = 0x4000
	CodeStart  = 0x0034
)

// Interrupt vectors used by the scheduler, as word addresses.
const (
	VectorReset       = 0x0000
	VectorTimer1CompA = 0x0016
)

// Timer1 in CTC mode with a /256 prescaler on a 16 MHz clock counts 62500
// per second; OCR1A sets the counts per tick.
const (
	ClockHz         = 16_000_000
	Timer1Prescaler = 256
	Timer1Hz        = ClockHz / Timer1Prescaler
)

// Timer1Compare returns the OCR1A value that fires tickHz times a second.
func Timer1Compare(tickHz uint32) uint16 {
	if tickHz == 0 {
		return 0
	}
	return uint16(Timer1Hz / tickHz)
}
