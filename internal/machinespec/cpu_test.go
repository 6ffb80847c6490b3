package machinespec

import "testing"

func TestCpuSpecUnmarshalInteger(t *testing.T) {
	var c CpuSpec
	if err := c.UnmarshalJSON([]byte("4")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != (CpuSpec{Sockets: 1, Cores: 1, Threads: 4}) {
		t.Errorf("got %+v", c)
	}
	if got := c.ToBhyveArg(); got != "4" {
		t.Errorf("ToBhyveArg() = %q, want %q", got, "4")
	}
}

func TestCpuSpecUnmarshalObject(t *testing.T) {
	var c CpuSpec
	if err := c.UnmarshalJSON([]byte(`{"sockets":2,"cores":4,"threads":1}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "sockets=2,threads=1,cores=4"
	if got := c.ToBhyveArg(); got != want {
		t.Errorf("ToBhyveArg() = %q, want %q", got, want)
	}
}
