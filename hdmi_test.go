package hdmi

import (
	"testing"
)

func TestPHYFuncsValidate(t *testing.T) {
	var nilFuncs *PHYFuncs
	if nilFuncs.Validate() != ErrMissingPHY {
		t.Error("nil funcs accepted")
	}

	p := &PHYFuncs{
		InitFunc:    func() error { return nil },
		DisableFunc: func() {},
	}
	if p.Validate() != ErrMissingPHY {
		t.Error("missing ReadHPD accepted")
	}
	p.ReadHPDFunc = func() ConnectorStatus { return StatusConnected }
	if err := p.Validate(); err != nil {
		t.Fatal(err)
	}

	// SetupHPD is optional.
	p.SetupHPD()
	var setups int
	p.SetupHPDFunc = func() { setups++ }
	p.SetupHPD()
	if setups != 1 {
		t.Errorf("setup called %d times", setups)
	}
	if p.ReadHPD() != StatusConnected {
		t.Error("ReadHPD not forwarded")
	}
}

func TestSupportsScrambling(t *testing.T) {
	var d DisplayInfo
	d.SCDC.Supported = true
	d.SCDC.Scrambling = true
	if d.SupportsScrambling() {
		t.Error("dvi sink supports scrambling")
	}
	d.IsHDMI = true
	if !d.SupportsScrambling() {
		t.Error("scrambling not supported")
	}
	d.SCDC.Supported = false
	if d.SupportsScrambling() {
		t.Error("scrambling supported without scdc")
	}
}

func TestPackInfoframe(t *testing.T) {
	payload := []byte{0x10, 0x28, 0x00, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	b := PackInfoframe(InfoframeAVI, 2, payload)
	if len(b) != AVIInfoframeSize {
		t.Fatalf("%d bytes", len(b))
	}
	if b[0] != 0x82 || b[1] != 2 || b[2] != AVIPayloadSize {
		t.Errorf("header % x", b[:3])
	}
	var sum byte
	for _, v := range b {
		sum += v
	}
	if sum != 0 {
		t.Errorf("sum 0x%x", sum)
	}
	if b[3] != InfoframeChecksum(b) {
		t.Error("checksum depends on itself")
	}
}

func TestStrings(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{StatusConnected.String(), "connected"},
		{StatusDisconnected.String(), "disconnected"},
		{ConnectorStatus(9).String(), "INVALID"},
		{ModeClockHigh.String(), "clock too high"},
		{InfoframeDRM.String(), "drm"},
		{InfoframeType(0x90).String(), "0x90"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
