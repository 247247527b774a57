package ethval

import (
	"strings"
	"testing"
)

func TestFromHex_Strict(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantLen int
		wantErr bool
	}{
		{"normal", "0xabcd", 2, false},
		{"mixed_case", "0xAbCd", 2, false},
		{"bare_prefix_rejected", "0x", 0, true},
		{"odd_digits", "0xabc", 0, true},
		{"not_hex", "0xzz", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := FromHex(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromHex(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && d.Len() != tt.wantLen {
				t.Errorf("Len() = %d, want %d", d.Len(), tt.wantLen)
			}
		})
	}
}

func TestFromBadHex_ToleratesEmpty(t *testing.T) {
	d, err := FromBadHex("0x")
	if err != nil {
		t.Fatalf("FromBadHex(\"0x\") unexpected error: %v", err)
	}
	if d.Len() != 0 {
		t.Errorf("Len() = %d, want 0", d.Len())
	}

	// Still rejects genuinely malformed input.
	if _, err := FromBadHex("0xzz"); err == nil {
		t.Error("FromBadHex(\"0xzz\") should fail")
	}
}

func TestByteData_HexRoundTrip(t *testing.T) {
	for _, h := range []string{"0xabcd", "0xABCD", "0x00ff10"} {
		d, err := FromHex(h)
		if err != nil {
			t.Fatalf("FromHex(%q): %v", h, err)
		}
		if got, want := d.ToHex(), strings.ToLower(h); got != want {
			t.Errorf("ToHex() = %q, want %q", got, want)
		}
	}
}

func TestFromHex32_ExactLength(t *testing.T) {
	exact := "0x" + strings.Repeat("ab", 32)
	d, err := FromHex32(exact)
	if err != nil {
		t.Fatalf("FromHex32: %v", err)
	}
	if d.ToHex() != exact {
		t.Errorf("ToHex() = %q, want %q", d.ToHex(), exact)
	}

	for _, bad := range []string{
		"0x" + strings.Repeat("ab", 31),
		"0x" + strings.Repeat("ab", 33),
		"0x",
	} {
		if _, err := FromHex32(bad); err == nil {
			t.Errorf("FromHex32(%d digits) should fail", len(bad)-2)
		}
	}
}

func TestFromHexAddress_ExactLength(t *testing.T) {
	exact := "0x" + strings.Repeat("cd", 20)
	a, err := FromHexAddress(exact)
	if err != nil {
		t.Fatalf("FromHexAddress: %v", err)
	}
	if a.ToHex() != exact {
		t.Errorf("ToHex() = %q, want %q", a.ToHex(), exact)
	}

	if _, err := FromHexAddress("0x" + strings.Repeat("cd", 19)); err == nil {
		t.Error("19-byte address should fail")
	}
	if _, err := FromHexAddress("0x" + strings.Repeat("cd", 32)); err == nil {
		t.Error("32-byte input should fail as an address")
	}
}

func TestByteData_Immutability(t *testing.T) {
	raw := []byte{1, 2, 3}
	d := NewByteData(raw)
	raw[0] = 99
	if d.Bytes()[0] != 1 {
		t.Error("NewByteData should copy its input")
	}

	out := d.Bytes()
	out[1] = 99
	if d.Bytes()[1] != 2 {
		t.Error("Bytes should return a copy")
	}
}

func TestByteData_Equal(t *testing.T) {
	a := NewByteData([]byte{1, 2})
	b := NewByteData([]byte{1, 2})
	c := NewByteData([]byte{1, 3})

	if !a.Equal(b) {
		t.Error("equal values should compare equal")
	}
	if a.Equal(c) {
		t.Error("different values should not compare equal")
	}
}
