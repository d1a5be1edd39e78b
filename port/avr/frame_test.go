package avr

import "testing"

func paint(n int) []byte {
	s := make([]byte, n)
	for i := range s {
		s[i] = 0xa5
	}
	return s
}

func TestInitStackLayout(t *testing.T) {
	stack := paint(64)
	sp := InitStack(stack, 0x1234, 0xbeef)

	top := 63
	if sp != uintptr(top-FrameSize) {
		t.Fatalf("sp = %d, want %d", sp, top-FrameSize)
	}

	tests := []struct {
		name string
		off  int
		want byte
	}{
		{"pc low", 0, 0x34},
		{"pc high", 1, 0x12},
		{"r0", 2, 0x00},
		{"sreg", 3, SREGI},
		{"r1", 4, 0x00},
		{"r2 untouched", 5, 0xa5},
		{"r23 untouched", 26, 0xa5},
		{"r24 arg low", 27, 0xef},
		{"r25 arg high", 28, 0xbe},
		{"r26 untouched", 29, 0xa5},
		{"r31 untouched", 34, 0xa5},
	}
	for _, tt := range tests {
		if got := stack[top-tt.off]; got != tt.want {
			t.Errorf("%s at top-%d = %#02x, want %#02x", tt.name, tt.off, got, tt.want)
		}
	}
	for i := 0; i <= int(sp); i++ {
		if stack[i] != 0xa5 {
			t.Fatalf("byte %d below the frame was written", i)
		}
	}
}

func TestRestoreInitialFrame(t *testing.T) {
	stack := paint(40)
	sp := InitStack(stack, 0x0074, 0x0102)

	var regs Registers
	after := Pop(stack, sp, &regs)

	if after != uintptr(len(stack)-1) {
		t.Errorf("sp after pop = %d, want top %d", after, len(stack)-1)
	}
	if regs.PC != 0x0074 {
		t.Errorf("PC = %#04x, want entry", regs.PC)
	}
	if regs.Arg() != 0x0102 {
		t.Errorf("Arg() = %#04x, want 0x0102", regs.Arg())
	}
	if !regs.Interrupts() {
		t.Errorf("restored status has interrupts disabled")
	}
	if regs.R[1] != 0 {
		t.Errorf("r1 = %d, want 0", regs.R[1])
	}
}

func TestPushPop(t *testing.T) {
	stack := make([]byte, 80)
	var in Registers
	for i := range in.R {
		in.R[i] = byte(i * 3)
	}
	in.SREG = 0x02
	in.PC = 0x0abc

	sp := uintptr(79)
	pushed := Push(stack, sp, &in)
	if pushed != sp-FrameSize {
		t.Fatalf("Push moved sp by %d, want %d", sp-pushed, FrameSize)
	}

	// A second frame stacks below the first.
	var other Registers
	other.PC = 0x0001
	inner := Push(stack, pushed, &other)
	var got Registers
	if back := Pop(stack, inner, &got); back != pushed || got.PC != 0x0001 {
		t.Fatalf("inner frame: sp %d pc %#x", back, got.PC)
	}

	if back := Pop(stack, pushed, &got); back != sp {
		t.Errorf("Pop returned sp %d, want %d", back, sp)
	}
	if got != in {
		t.Errorf("Pop = %+v, want %+v", got, in)
	}
}

func TestTimer1Compare(t *testing.T) {
	if got := Timer1Compare(1000); got != 62 {
		t.Errorf("Timer1Compare(1000) = %d, want 62", got)
	}
	if got := Timer1Compare(1); got != 62500 {
		t.Errorf("Timer1Compare(1) = %d, want 62500", got)
	}
	if got := Timer1Compare(0); got != 0 {
		t.Errorf("Timer1Compare(0) = %d, want 0", got)
	}
	if SRAMSize != 2048 {
		t.Errorf("SRAMSize = %d, want 2048", SRAMSize)
	}
}
