package hdmi

import "fmt"

// InfoframeType is the packet type code of an info-frame as carried in the
// first header byte.
type InfoframeType uint8

// Info-frame types.
const (
	InfoframeVendor InfoframeType = 0x81
	InfoframeAVI    InfoframeType = 0x82
	InfoframeSPD    InfoframeType = 0x83
	InfoframeAudio  InfoframeType = 0x84
	InfoframeDRM    InfoframeType = 0x87
)

func (t InfoframeType) String() string {
	switch t {
	case InfoframeVendor:
		return "vendor"
	case InfoframeAVI:
		return "avi"
	case InfoframeSPD:
		return "spd"
	case InfoframeAudio:
		return "audio"
	case InfoframeDRM:
		return "drm"
	default:
		return fmt.Sprintf("0x%02x", uint8(t))
	}
}

const (
	// InfoframeHeaderSize is the number of bytes before the checksum: type,
	// version and length.
	InfoframeHeaderSize = 3

	// AVIPayloadSize is the AVI payload length declared in the header.
	AVIPayloadSize = 13

	// AVIInfoframeSize is the total size of a packed AVI info-frame.
	AVIInfoframeSize = InfoframeHeaderSize + 1 + AVIPayloadSize

	// DRMMaxPayloadSize is the largest DRM payload length a sink may declare.
	DRMMaxPayloadSize = 26

	// DRMMaxInfoframeSize is the largest packed DRM info-frame.
	DRMMaxInfoframeSize = InfoframeHeaderSize + 1 + DRMMaxPayloadSize
)

// InfoframeChecksum returns the checksum byte that makes the sum of all bytes
// of a packed info-frame zero. The checksum position (index 3) is ignored.
func InfoframeChecksum(frame []byte) byte {
	var sum byte
	for i, b := range frame {
		if i == InfoframeHeaderSize {
			continue
		}
		sum += b
	}
	return -sum
}

// PackInfoframe builds a packed info-frame with a header, checksum and
// payload.
func PackInfoframe(t InfoframeType, version uint8, payload []byte) []byte {
	b := make([]byte, InfoframeHeaderSize+1+len(payload))
	b[0] = byte(t)
	b[1] = version
	b[2] = byte(len(payload))
	copy(b[InfoframeHeaderSize+1:], payload)
	b[InfoframeHeaderSize] = InfoframeChecksum(b)
	return b
}
