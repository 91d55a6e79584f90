package genlock

import (
	"encoding/binary"
	"errors"
)

const (
	// Magic spells "GNLK" in the first four bytes of every sync packet.
	Magic   uint32 = 0x474E4C4B
	Version uint32 = 1

	// PacketSize is the fixed wire size of a sync packet in bytes.
	PacketSize = 32

	// DefaultPort is the UDP port sync packets are exchanged on.
	DefaultPort = 5960
)

var ErrBadPacket = errors.New("genlock: malformed sync packet")

// Packet is the genlock wire datagram. The master emits one per frame
// interval; slaves use TimestampNS to track the master's timeline.
type Packet struct {
	Magic       uint32
	Version     uint32
	TimestampNS int64 // master's elapsed time since its reference epoch
	FrameNumber int64 // monotonic counter
	FPS         uint32
	Checksum    uint32
}

// CalculateChecksum folds the payload fields into a single verification
// word. Truncation of the 64-bit fields to their low 32 bits is part of
// the wire contract.
func (p *Packet) CalculateChecksum() uint32 {
	return p.Magic ^ p.Version ^ uint32(p.TimestampNS) ^ uint32(p.FrameNumber) ^ p.FPS
}

// Validate reports whether the packet carries the right magic and a
// checksum matching its fields.
func (p *Packet) Validate() bool {
	return p.Magic == Magic && p.Checksum == p.CalculateChecksum()
}

// Marshal encodes the packet into its fixed 32-byte big-endian layout.
func (p *Packet) Marshal() []byte {
	b := make([]byte, PacketSize)
	binary.BigEndian.PutUint32(b[0:4], p.Magic)
	binary.BigEndian.PutUint32(b[4:8], p.Version)
	binary.BigEndian.PutUint64(b[8:16], uint64(p.TimestampNS))
	binary.BigEndian.PutUint64(b[16:24], uint64(p.FrameNumber))
	binary.BigEndian.PutUint32(b[24:28], p.FPS)
	binary.BigEndian.PutUint32(b[28:32], p.Checksum)
	return b
}

// UnmarshalPacket decodes a datagram. Short datagrams fail with
// ErrBadPacket; validity of the contents is checked separately with
// Validate so callers can count the two failure classes apart.
func UnmarshalPacket(b []byte) (Packet, error) {
	if len(b) < PacketSize {
		return Packet{}, ErrBadPacket
	}
	return Packet{
		Magic:       binary.BigEndian.Uint32(b[0:4]),
		Version:     binary.BigEndian.Uint32(b[4:8]),
		TimestampNS: int64(binary.BigEndian.Uint64(b[8:16])),
		FrameNumber: int64(binary.BigEndian.Uint64(b[16:24])),
		FPS:         binary.BigEndian.Uint32(b[24:28]),
		Checksum:    binary.BigEndian.Uint32(b[28:32]),
	}, nil
}
