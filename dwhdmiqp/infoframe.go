package dwhdmiqp

import (
	"fmt"

	"github.com/oxplot/go-hdmi"
)

// ClearInfoframe stops the periodic transmission of info-frames of type t.
// Unsupported types are ignored.
func (tx *TX) ClearInfoframe(t hdmi.InfoframeType) error {
	switch t {
	case hdmi.InfoframeAVI:
		tx.bus.UpdateBits(regPktSchedPktEn, regPktSchedPktEnAVITxEn|regPktSchedPktEnGCPTxEn, 0)
	case hdmi.InfoframeDRM:
		tx.bus.UpdateBits(regPktSchedPktEn, regPktSchedPktEnDRMITxEn, 0)
	default:
		tx.debugf("unsupported infoframe type %s", t)
	}
	return nil
}

// WriteInfoframe loads the packed info-frame buf of type t and starts its
// periodic transmission. buf holds the 3 byte header, the checksum and the
// payload. Unsupported types are ignored. hdmi.ErrInvalidInfoframe is
// returned, before any register is touched, if the length of buf doesn't
// match its type.
func (tx *TX) WriteInfoframe(t hdmi.InfoframeType, buf []byte) error {
	switch t {
	case hdmi.InfoframeAVI:
		if len(buf) != hdmi.AVIInfoframeSize {
			tx.errorf("failed to configure avi infoframe")
			return fmt.Errorf("%w: avi length %d", hdmi.ErrInvalidInfoframe, len(buf))
		}
		tx.ClearInfoframe(t)
		tx.writeAVI(buf)
	case hdmi.InfoframeDRM:
		if err := validateDRM(buf); err != nil {
			tx.errorf("failed to configure drm infoframe")
			return err
		}
		tx.ClearInfoframe(t)
		tx.writeDRM(buf)
	default:
		tx.debugf("unsupported infoframe type %s", t)
	}
	return nil
}

func validateDRM(buf []byte) error {
	if len(buf) <= hdmi.InfoframeHeaderSize {
		return fmt.Errorf("%w: drm length %d", hdmi.ErrInvalidInfoframe, len(buf))
	}
	n := int(buf[2])
	if n > hdmi.DRMMaxPayloadSize {
		return fmt.Errorf("%w: drm payload length %d", hdmi.ErrInvalidInfoframe, n)
	}
	if len(buf) != hdmi.InfoframeHeaderSize+1+n {
		return fmt.Errorf("%w: drm length %d for payload %d", hdmi.ErrInvalidInfoframe, len(buf), n)
	}
	return nil
}

// The controller doesn't store the type byte: contents0 holds version and
// length, the following registers the checksum and payload.
func headerContents(buf []byte) uint32 {
	return uint32(buf[1])<<8 | uint32(buf[2])<<16
}

func (tx *TX) writeAVI(buf []byte) {
	tx.bus.Write(regPktAVIContents0, headerContents(buf))
	tx.packContents(regPktAVIContents1, buf[hdmi.InfoframeHeaderSize:])

	tx.bus.UpdateBits(regPktSchedPktConfig1, regPktSchedAVIFieldRate, 0)

	// GCP goes along with AVI
	en := uint32(regPktSchedPktEnAVITxEn | regPktSchedPktEnGCPTxEn)
	tx.bus.UpdateBits(regPktSchedPktEn, en, en)
}

func (tx *TX) writeDRM(buf []byte) {
	tx.bus.Write(regPktDRMIContents0, headerContents(buf))
	tx.packContents(regPktDRMIContents1, buf[hdmi.InfoframeHeaderSize:])

	tx.bus.UpdateBits(regPktSchedPktConfig1, regPktSchedDRMIFieldRate, 0)
	tx.bus.UpdateBits(regPktSchedPktEn, regPktSchedPktEnDRMITxEn, regPktSchedPktEnDRMITxEn)
}

// packContents writes b to consecutive content registers starting at reg,
// four bytes per register with the first byte in the low bits. The last
// register is zero padded.
func (tx *TX) packContents(reg uint32, b []byte) {
	for i := 0; i < len(b); i += 4 {
		var v uint32
		for j := 0; j < 4 && i+j < len(b); j++ {
			v |= uint32(b[i+j]) << (8 * j)
		}
		tx.bus.Write(reg+uint32(i), v)
	}
}
