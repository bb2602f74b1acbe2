package regs

import "testing"

func TestIsRegister(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{"RAX", true},
		{"rax", true},
		{" e a x ", true},
		{"\teax\n", true},
		{"st(0)", true},
		{"ST (7)", true},
		{"zmm31", true},
		{"xmm15", true},
		{"xmm16", false},
		{"cr15", true},
		{"dr8", true},
		{"cs", true},
		{"rip", true},
		{"x0", true},
		{"w30", true},
		{"x31", false},
		{"v31", true},
		{"d0", true},
		{"lr", true},
		{"cpsr", true},
		{"ra", false},
		{"raxx", false},
		{"0x10", false},
		{"", false},
		{"   ", false},
		{"[rax]", false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			if got := IsRegister(tt.token); got != tt.want {
				t.Errorf("IsRegister(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}

func TestLookupPrecedence(t *testing.T) {
	// R8 exists in both sets; x86_64 is checked first.
	arch, ok := Lookup("r8")
	if !ok || arch != X86_64 {
		t.Errorf("Lookup(r8) = %q, %v, want %q, true", arch, ok, X86_64)
	}
	arch, ok = Lookup("w5")
	if !ok || arch != ARM {
		t.Errorf("Lookup(w5) = %q, %v, want %q, true", arch, ok, ARM)
	}
}

func TestNames(t *testing.T) {
	x86 := Names(X86_64)
	arm := Names(ARM)
	if len(x86) == 0 || len(arm) == 0 {
		t.Fatalf("empty register sets: x86=%d arm=%d", len(x86), len(arm))
	}
	for _, n := range append(x86, arm...) {
		if !IsRegister(n) {
			t.Errorf("Names returned %q which IsRegister rejects", n)
		}
	}
	if Names("mips") != nil {
		t.Error("unknown arch should have no names")
	}
}
