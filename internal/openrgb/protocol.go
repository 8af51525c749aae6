package openrgb

import (
	"bytes"
	"encoding/binary"
	"io"
	"net"

	"codeberg.org/mutker/rgbmond/internal/errors"
)

// ProtocolVersion is the protocol revision this client speaks. Servers
// reporting anything older are refused.
const ProtocolVersion = 2

const headerSize = 16

var magic = [4]byte{'O', 'R', 'G', 'B'}

// Command identifiers from the lighting server's network protocol
const (
	cmdRequestControllerCount uint32 = 0
	cmdRequestControllerData  uint32 = 1
	cmdRequestProtocolVersion uint32 = 40
	cmdSetClientName          uint32 = 50
	cmdUpdateZoneLEDs         uint32 = 1051
)

// header is the fixed preamble of every request and response: magic marker,
// target controller index, command identifier, payload length.
type header struct {
	Controller uint32
	Command    uint32
	Length     uint32
}

// writeMessage frames and writes one request. Encoding is total for
// well-formed inputs; the only failure mode is the transport itself.
func writeMessage(w io.Writer, controller, command uint32, payload []byte) error {
	buf := make([]byte, headerSize+len(payload))
	copy(buf[0:4], magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], controller)
	binary.LittleEndian.PutUint32(buf[8:12], command)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(len(payload)))
	copy(buf[headerSize:], payload)

	_, err := w.Write(buf)

	return err
}

// readMessage reads one full response: mirrored header plus exactly the
// declared payload. The payload is consumed in full before returning, so a
// caller is always positioned at the next message boundary.
func readMessage(r io.Reader) (header, []byte, error) {
	errFactory := errors.New()

	var raw [headerSize]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return header{}, nil, classifyReadError(err, false)
	}

	if !bytes.Equal(raw[0:4], magic[:]) {
		return header{}, nil, errFactory.WithData(errors.ErrProtocolMalformed, "bad magic marker")
	}

	h := header{
		Controller: binary.LittleEndian.Uint32(raw[4:8]),
		Command:    binary.LittleEndian.Uint32(raw[8:12]),
		Length:     binary.LittleEndian.Uint32(raw[12:16]),
	}

	payload := make([]byte, h.Length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return header{}, nil, classifyReadError(err, true)
	}

	return h, payload, nil
}

// classifyReadError maps transport read failures onto the protocol error
// taxonomy. A short payload is truncated regardless of cause; a header that
// never arrived is a connection-level failure.
func classifyReadError(err error, inPayload bool) error {
	errFactory := errors.New()

	if inPayload {
		return errFactory.Wrap(errors.ErrProtocolTruncated, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errFactory.Wrap(errors.ErrConnectionTimeout, err)
	}

	if errors.Is(err, io.ErrUnexpectedEOF) {
		return errFactory.Wrap(errors.ErrProtocolTruncated, err)
	}

	return errFactory.Wrap(errors.ErrConnectionClosed, err)
}

// IsConnectionError reports whether err belongs to the connection error
// class: refused, timeout, version mismatch, or a closed transport.
func IsConnectionError(err error) bool {
	switch errors.CodeOf(err) {
	case errors.ErrConnectionRefused,
		errors.ErrConnectionTimeout,
		errors.ErrConnectionClosed,
		errors.ErrVersionMismatch:
		return true
	default:
		return false
	}
}

// IsProtocolError reports whether err belongs to the protocol error class.
// Callers treat these as a dead connection.
func IsProtocolError(err error) bool {
	switch errors.CodeOf(err) {
	case errors.ErrProtocolMalformed, errors.ErrProtocolTruncated:
		return true
	default:
		return false
	}
}
