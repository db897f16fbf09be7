package probe

// Minecraft Server List Ping framing. Every packet on the wire is
// varint(length) ++ varint(packetID) ++ payload; strings are
// varint(len) ++ UTF-8 bytes; the handshake port field is a big-endian
// uint16 outside the varint scheme.

import (
	"errors"
	"fmt"
	"io"
)

const (
	packetIDStatus = 0x00 // handshake, status request, and status response all use ID 0

	// Protocol version -1 marks a version-agnostic status query.
	handshakeProtocolVersion = -1
	nextStateStatus          = 1

	maxVarintBytes = 5
	// Upper bound on the status JSON; real payloads are a few KB.
	maxStatusBytes = 1 << 21
)

var errVarintTooLong = errors.New("varint exceeds 5 bytes")

// appendVarint appends v in the protocol's varint encoding: 7 data bits per
// byte, least-significant group first, high bit set while more bytes follow.
// Negative values encode as their unsigned 32-bit pattern (5 bytes).
func appendVarint(buf []byte, v int32) []byte {
	u := uint32(v)
	for {
		b := byte(u & 0x7f)
		u >>= 7
		if u == 0 {
			return append(buf, b)
		}
		buf = append(buf, b|0x80)
	}
}

// readVarint reads one varint from r, rejecting encodings past the 32-bit
// range.
func readVarint(r io.Reader) (int32, error) {
	var v uint32
	var one [1]byte
	for n := 0; n < maxVarintBytes; n++ {
		if _, err := io.ReadFull(r, one[:]); err != nil {
			return 0, err
		}
		v |= uint32(one[0]&0x7f) << (7 * n)
		if one[0]&0x80 == 0 {
			return int32(v), nil
		}
	}
	return 0, errVarintTooLong
}

// framePacket prefixes a packet body (ID included) with its varint length.
func framePacket(body []byte) []byte {
	out := appendVarint(make([]byte, 0, len(body)+maxVarintBytes), int32(len(body)))
	return append(out, body...)
}

// handshakePacket builds the initial handshake announcing a status query.
func handshakePacket(host string, port uint16) []byte {
	body := appendVarint(nil, packetIDStatus)
	body = appendVarint(body, handshakeProtocolVersion)
	body = appendVarint(body, int32(len(host)))
	body = append(body, host...)
	body = append(body, byte(port>>8), byte(port))
	body = appendVarint(body, nextStateStatus)
	return framePacket(body)
}

// statusRequestPacket is the empty-bodied status request.
func statusRequestPacket() []byte {
	return framePacket([]byte{packetIDStatus})
}

// readStatusResponse reads one status response packet and returns the raw
// JSON payload. Anything that does not frame-check returns an error; the
// caller decides how to classify it.
func readStatusResponse(r io.Reader) ([]byte, error) {
	length, err := readVarint(r)
	if err != nil {
		return nil, fmt.Errorf("packet length: %w", err)
	}
	if length <= 0 || length > maxStatusBytes {
		return nil, fmt.Errorf("packet length %d out of range", length)
	}

	lr := io.LimitReader(r, int64(length))
	id, err := readVarint(lr)
	if err != nil {
		return nil, fmt.Errorf("packet id: %w", err)
	}
	if id != packetIDStatus {
		return nil, fmt.Errorf("unexpected packet id %#x", id)
	}

	strLen, err := readVarint(lr)
	if err != nil {
		return nil, fmt.Errorf("payload length: %w", err)
	}
	if strLen < 0 || int64(strLen) > int64(length) {
		return nil, fmt.Errorf("payload length %d out of range", strLen)
	}

	payload := make([]byte, strLen)
	if _, err := io.ReadFull(lr, payload); err != nil {
		return nil, fmt.Errorf("payload: %w", err)
	}
	return payload, nil
}
