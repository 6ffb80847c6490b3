package pciaddr

import "testing"

func TestParse(t *testing.T) {
	cases := map[string]Slot{
		"5":     {Bus: 0, Slot: 5, Func: 0},
		"5:1":   {Bus: 0, Slot: 5, Func: 1},
		"0:5:1": {Bus: 0, Slot: 5, Func: 1},
		"2:5:1": {Bus: 2, Slot: 5, Func: 1},
	}

	for in, want := range cases {
		got, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Errorf("Parse(%q) = %+v, want %+v", in, got, want)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{"", "a:b:c", "1:2:3:4"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) expected error, got nil", in)
		}
	}
}

func TestString(t *testing.T) {
	s := Slot{Bus: 0, Slot: 5, Func: 0}
	if got := s.String(); got != "0:5:0" {
		t.Errorf("String() = %q, want %q", got, "0:5:0")
	}
}

func TestAsPassthruArg(t *testing.T) {
	s := Slot{Bus: 1, Slot: 1, Func: 1}
	if got := s.AsPassthruArg(); got != "1/1/1" {
		t.Errorf("AsPassthruArg() = %q, want %q", got, "1/1/1")
	}
}

func TestLess(t *testing.T) {
	a := Slot{Bus: 0, Slot: 0, Func: 0}
	b := Slot{Bus: 0, Slot: 1, Func: 0}
	c := Slot{Bus: 1, Slot: 0, Func: 0}

	if !a.Less(b) {
		t.Error("expected (0,0,0) < (0,1,0)")
	}
	if !b.Less(c) {
		t.Error("expected (0,1,0) < (1,0,0)")
	}
	if c.Less(a) {
		t.Error("expected (1,0,0) not < (0,0,0)")
	}
}

func TestValid(t *testing.T) {
	if !(Slot{Slot: 31, Func: 7}).Valid() {
		t.Error("31/7 should be valid")
	}
	if (Slot{Slot: 32}).Valid() {
		t.Error("slot 32 should be invalid")
	}
	if (Slot{Func: 8}).Valid() {
		t.Error("func 8 should be invalid")
	}
}

func TestUnmarshalJSONString(t *testing.T) {
	var s Slot
	if err := s.UnmarshalJSON([]byte(`"0:5:1"`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != (Slot{Bus: 0, Slot: 5, Func: 1}) {
		t.Errorf("got %+v", s)
	}
}
