package genlock

import (
	"testing"
)

func validPacket() Packet {
	p := Packet{
		Magic:       Magic,
		Version:     Version,
		TimestampNS: 123456789012,
		FrameNumber: 4242,
		FPS:         60,
	}
	p.Checksum = p.CalculateChecksum()
	return p
}

func TestPacketRoundTrip(t *testing.T) {
	p := validPacket()
	b := p.Marshal()
	if len(b) != PacketSize {
		t.Fatalf("expected %d wire bytes, got %d", PacketSize, len(b))
	}
	got, err := UnmarshalPacket(b)
	if err != nil {
		t.Fatal(err)
	}
	if got != p {
		t.Errorf("round trip mismatch: %+v != %+v", got, p)
	}
	if !got.Validate() {
		t.Errorf("decoded packet failed validation")
	}
}

func TestPacketValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Packet)
		ok   bool
	}{
		{name: "valid", mod: func(p *Packet) {}, ok: true},
		{name: "wrong magic", mod: func(p *Packet) { p.Magic = 0xDEADBEEF }},
		{name: "wrong checksum", mod: func(p *Packet) { p.Checksum++ }},
		{name: "tampered timestamp", mod: func(p *Packet) { p.TimestampNS += 1000 }},
		{name: "tampered frame number", mod: func(p *Packet) { p.FrameNumber++ }},
		{name: "tampered fps", mod: func(p *Packet) { p.FPS = 50 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPacket()
			tt.mod(&p)
			if p.Validate() != tt.ok {
				t.Errorf("Validate() = %v, want %v", p.Validate(), tt.ok)
			}
		})
	}
}

func TestPacketBitFlips(t *testing.T) {
	p := validPacket()
	wire := p.Marshal()
	// only the checksum-covered bytes are tested: the high halves of
	// the two 64-bit fields do not participate in the checksum fold
	covered := []int{0, 1, 2, 3, 4, 5, 6, 7, 12, 13, 14, 15, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31}
	for _, b := range covered {
		for bit := 0; bit < 8; bit++ {
			flipped := make([]byte, len(wire))
			copy(flipped, wire)
			flipped[b] ^= 1 << bit
			got, err := UnmarshalPacket(flipped)
			if err != nil {
				t.Fatal(err)
			}
			if got.Validate() {
				t.Errorf("bit flip at byte %d bit %d still validates", b, bit)
			}
		}
	}
}

func TestPacketTooShort(t *testing.T) {
	if _, err := UnmarshalPacket(make([]byte, PacketSize-1)); err == nil {
		t.Errorf("expected error for short datagram")
	}
}

func BenchmarkPacketMarshal(b *testing.B) {
	p := validPacket()
	for i := 0; i < b.N; i++ {
		p.Marshal()
	}
}
