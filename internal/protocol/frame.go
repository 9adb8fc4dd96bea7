package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// ServiceType is the mDNS service servers advertise on the LAN.
const ServiceType = "_termibbl._tcp"

// DefaultMaxFrame bounds a single payload; a canvas snapshot is run-length
// encoded so this leaves plenty of room.
const DefaultMaxFrame = 1 << 20

var (
	ErrFrameTooLarge = errors.New("frame exceeds size limit")
	ErrFrameWidth    = errors.New("invalid frame length width")
)

// Frame layout:
//
//	+-----------+-----------------------+-----------------+
//	| width: u8 | length: width bytes BE | payload         |
//	+-----------+-----------------------+-----------------+
//
// width is 2, 4 or 8, the smallest that fits the payload length.

// AppendFrame appends the framed payload to dst.
func AppendFrame(dst, payload []byte) []byte {
	n := uint64(len(payload))
	switch {
	case n <= math.MaxUint16:
		dst = append(dst, 2)
		dst = binary.BigEndian.AppendUint16(dst, uint16(n))
	case n <= math.MaxUint32:
		dst = append(dst, 4)
		dst = binary.BigEndian.AppendUint32(dst, uint32(n))
	default:
		dst = append(dst, 8)
		dst = binary.BigEndian.AppendUint64(dst, n)
	}
	return append(dst, payload...)
}

// WriteFrame writes one framed payload in a single Write call.
func WriteFrame(w io.Writer, payload []byte) error {
	_, err := w.Write(AppendFrame(make([]byte, 0, len(payload)+9), payload))
	return err
}

// ReadFrame reads one payload. A clean EOF before the header is returned as io.EOF.
func ReadFrame(r io.Reader, maxSize int) ([]byte, error) {
	var width [1]byte
	if _, err := io.ReadFull(r, width[:]); err != nil {
		return nil, err
	}
	var header [8]byte
	var size uint64
	switch width[0] {
	case 2:
		if _, err := io.ReadFull(r, header[:2]); err != nil {
			return nil, unexpected(err)
		}
		size = uint64(binary.BigEndian.Uint16(header[:2]))
	case 4:
		if _, err := io.ReadFull(r, header[:4]); err != nil {
			return nil, unexpected(err)
		}
		size = uint64(binary.BigEndian.Uint32(header[:4]))
	case 8:
		if _, err := io.ReadFull(r, header[:]); err != nil {
			return nil, unexpected(err)
		}
		size = binary.BigEndian.Uint64(header[:])
	default:
		return nil, fmt.Errorf("%w: %d", ErrFrameWidth, width[0])
	}
	if maxSize > 0 && size > uint64(maxSize) {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, size, maxSize)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, unexpected(err)
	}
	return payload, nil
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// IsFramingError reports whether err came from a malformed byte stream rather
// than the underlying connection.
func IsFramingError(err error) bool {
	return errors.Is(err, ErrFrameTooLarge) || errors.Is(err, ErrFrameWidth) || errors.Is(err, ErrMalformed)
}
