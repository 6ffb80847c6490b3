package machinespec

import "testing"

func TestParseMemKB(t *testing.T) {
	cases := map[string]uint64{
		"1K":    1,
		"1M":    1024,
		"2G":    2 * 1024 * 1024,
		"0x10K": 16,
		"1Kb":   1,
		"1kb":   1,
	}

	for in, want := range cases {
		got, err := ParseMemKB(in)
		if err != nil {
			t.Fatalf("ParseMemKB(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseMemKB(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestParseMemKBInvalidUnit(t *testing.T) {
	if _, err := ParseMemKB("5X"); err == nil {
		t.Error("expected error for invalid unit")
	}
}

func TestMemorySpecUnmarshalInteger(t *testing.T) {
	var m MemorySpec
	if err := m.UnmarshalJSON([]byte("17")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.KB != 17/1000 {
		t.Errorf("KB = %d, want %d", m.KB, 17/1000)
	}
}

func TestMemorySpecUnmarshalString(t *testing.T) {
	var m MemorySpec
	if err := m.UnmarshalJSON([]byte(`"512M"`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.KB != 512*1024 {
		t.Errorf("KB = %d, want %d", m.KB, 512*1024)
	}
}
