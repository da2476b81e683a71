package pte

import "testing"

func TestZeroFormat(t *testing.T) {
	e := EncodeZero()
	if e.Format() != Zero {
		t.Fatalf("got format %v, want Zero", e.Format())
	}
	if !e.IsZero() {
		t.Fatalf("IsZero() = false for zero entry")
	}
}

func TestValidRoundTrip(t *testing.T) {
	frames := []FrameNumber{0, 1, 42, 1<<FrameBits - 1}
	for _, f := range frames {
		e := EncodeValid(f)
		if got := e.Format(); got != Valid {
			t.Fatalf("frame %d: format = %v, want Valid", f, got)
		}
		if got := e.Frame(); got != f {
			t.Fatalf("frame %d: Frame() = %d", f, got)
		}
	}
}

func TestTransitionRoundTrip(t *testing.T) {
	frames := []FrameNumber{0, 7, 1 << 20}
	for _, f := range frames {
		e := EncodeTransition(f)
		if got := e.Format(); got != Transition {
			t.Fatalf("frame %d: format = %v, want Transition", f, got)
		}
		if got := e.Frame(); got != f {
			t.Fatalf("frame %d: Frame() = %d", f, got)
		}
	}
}

func TestDiskRoundTrip(t *testing.T) {
	slots := []DiskSlot{1, 2, 9999}
	for _, s := range slots {
		e := EncodeDisk(s)
		if got := e.Format(); got != Disk {
			t.Fatalf("slot %d: format = %v, want Disk", s, got)
		}
		if got := e.Slot(); got != s {
			t.Fatalf("slot %d: Slot() = %d", s, got)
		}
	}
}

func TestDiskSlotZeroPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("EncodeDisk(0) did not panic")
		}
	}()
	EncodeDisk(0)
}

func TestFrameOnWrongFormatPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("Frame() on Disk entry did not panic")
		}
	}()
	EncodeDisk(1).Frame()
}

func TestSlotOnWrongFormatPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("Slot() on Valid entry did not panic")
		}
	}()
	EncodeValid(1).Slot()
}

func TestPayloadOverflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("EncodeValid with oversized frame did not panic")
		}
	}()
	EncodeValid(1 << FrameBits)
}

func TestFormatsAreDistinguishableByDiscriminatorBits(t *testing.T) {
	// Every encoded entry must decode to exactly the format it was
	// encoded with: encode(x) == y implies decode(y) == x.
	cases := []struct {
		name string
		e    Entry
		want Format
	}{
		{"zero", EncodeZero(), Zero},
		{"valid", EncodeValid(5), Valid},
		{"transition", EncodeTransition(5), Transition},
		{"disk", EncodeDisk(5), Disk},
	}
	for _, c := range cases {
		if got := c.e.Format(); got != c.want {
			t.Errorf("%s: Format() = %v, want %v", c.name, got, c.want)
		}
	}
}
