package ddc

import (
	"bytes"
	"errors"
	"fmt"
)

// EDIDBlockSize is the size of a single EDID block.
const EDIDBlockSize = 128

// ErrInvalidEDID is returned when a block read from the sink is corrupted.
var ErrInvalidEDID = errors.New("ddc: invalid edid")

var edidHeader = []byte{0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00}

// edidExtensionCount is the index of the extension count in the base block.
const edidExtensionCount = 126

// ReadEDIDBlock reads EDID block n into b, which must be EDIDBlockSize long.
// Blocks past the first segment are addressed by writing the segment pointer
// in the same transfer.
func ReadEDIDBlock(t Transferer, n int, b []byte) error {
	segment := byte(n >> 1)
	start := byte(n&1) * EDIDBlockSize

	var buf [3]Msg
	msgs := buf[:0]
	if segment != 0 {
		msgs = append(msgs, Msg{Addr: AddrSegment, Buf: []byte{segment}})
	}
	msgs = append(msgs,
		Msg{Addr: AddrEDID, Buf: []byte{start}},
		Msg{Addr: AddrEDID, Flags: FlagRead, Buf: b[:EDIDBlockSize]},
	)
	_, err := t.Transfer(msgs)
	return err
}

// ReadEDID reads the base EDID block and all the extension blocks it
// announces. Only the header and block checksums are verified.
func ReadEDID(t Transferer) ([]byte, error) {
	edid := make([]byte, EDIDBlockSize)
	if err := ReadEDIDBlock(t, 0, edid); err != nil {
		return nil, err
	}
	if !bytes.Equal(edid[:len(edidHeader)], edidHeader) {
		return nil, fmt.Errorf("%w: bad header", ErrInvalidEDID)
	}
	if !validBlock(edid) {
		return nil, fmt.Errorf("%w: block 0 checksum", ErrInvalidEDID)
	}

	n := int(edid[edidExtensionCount])
	if n == 0 {
		return edid, nil
	}
	edid = append(edid, make([]byte, n*EDIDBlockSize)...)
	for i := 1; i <= n; i++ {
		b := edid[i*EDIDBlockSize : (i+1)*EDIDBlockSize]
		if err := ReadEDIDBlock(t, i, b); err != nil {
			return nil, err
		}
		if !validBlock(b) {
			return nil, fmt.Errorf("%w: block %d checksum", ErrInvalidEDID, i)
		}
	}
	return edid, nil
}

func validBlock(b []byte) bool {
	var sum byte
	for _, v := range b {
		sum += v
	}
	return sum == 0
}
