// Package wire implements the IPROTO frame codec and connection handshake:
// the length-prefixed MessagePack envelope every request and response
// travels in, and the CHAP-SHA1 greeting exchange that authenticates a
// freshly dialed connection.
package wire

import (
	"bytes"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/oleggator/go-tarantool/internal/iproto"
)

// ErrTruncatedFrame is returned when a frame's payload has bytes left over
// after its header and body maps. A payload shorter than its declared length
// fails with the underlying read error instead.
var ErrTruncatedFrame = fmt.Errorf("wire: truncated frame")

// Header is the decoded form of an IPROTO frame header.
type Header struct {
	Code     iproto.Code
	Sync     uint64
	SchemaID uint64
}

// EncodeFrame serializes a header and an optional body into a single
// length-prefixed frame: <msgpack uint length><msgpack header map><msgpack
// body map>. A nil body is encoded as an empty map.
func EncodeFrame(code iproto.Code, sync uint64, body map[iproto.Key]any) ([]byte, error) {
	var payload bytes.Buffer
	enc := msgpack.NewEncoder(&payload)

	headerMap := map[iproto.Key]any{
		iproto.KeyCode: uint64(code),
		iproto.KeySync: sync,
	}
	if err := enc.Encode(headerMap); err != nil {
		return nil, fmt.Errorf("wire: encoding header: %w", err)
	}
	if body == nil {
		body = map[iproto.Key]any{}
	}
	if err := enc.Encode(body); err != nil {
		return nil, fmt.Errorf("wire: encoding body: %w", err)
	}

	var frame bytes.Buffer
	if err := msgpack.NewEncoder(&frame).EncodeUint64(uint64(payload.Len())); err != nil {
		return nil, fmt.Errorf("wire: encoding length prefix: %w", err)
	}
	frame.Write(payload.Bytes())
	return frame.Bytes(), nil
}

// ReadFrame reads one frame from r: the length prefix, then exactly that
// many bytes, decoded into a Header and a body map. It blocks until a full
// frame is available or r returns an error.
func ReadFrame(r io.Reader) (Header, map[iproto.Key]any, error) {
	// The length prefix is read with bounded reads straight from r: a msgpack
	// decoder over r itself would buffer bytes past the prefix.
	prefix := make([]byte, 1, 9)
	_, err := io.ReadFull(r, prefix)
	if err == nil && prefix[0] >= 0xcc && prefix[0] <= 0xcf {
		prefix = prefix[:1+1<<(prefix[0]-0xcc)]
		_, err = io.ReadFull(r, prefix[1:])
	}
	var length uint64
	if err == nil {
		length, err = msgpack.NewDecoder(bytes.NewReader(prefix)).DecodeUint64()
	}
	if err != nil {
		return Header{}, nil, fmt.Errorf("wire: reading length prefix: %w", err)
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Header{}, nil, fmt.Errorf("wire: reading frame body (%d bytes): %w", length, err)
	}

	payload := bytes.NewReader(buf)
	payloadDec := msgpack.NewDecoder(payload)

	// EncodeFrame always writes a header map followed by a body map, but a
	// peer on the wire (the server, in particular) is not required to send
	// one: per the tie-break rule, a frame whose bytes are exhausted after
	// the header decodes to an empty body rather than an error.
	var rawHeader map[int]any
	if err := payloadDec.Decode(&rawHeader); err != nil {
		return Header{}, nil, fmt.Errorf("wire: decoding header: %w", err)
	}
	header, err := parseHeader(rawHeader)
	if err != nil {
		return Header{}, nil, err
	}

	var rawBody map[int]any
	if err := payloadDec.Decode(&rawBody); err != nil {
		if err == io.EOF {
			return header, map[iproto.Key]any{}, nil
		}
		return Header{}, nil, fmt.Errorf("wire: decoding body: %w", err)
	}
	respBody := make(map[iproto.Key]any, len(rawBody))
	for k, v := range rawBody {
		respBody[iproto.Key(k)] = v
	}

	// A third decode should hit EOF; anything else means trailing bytes
	// the length prefix claimed but neither map consumed.
	if err := payloadDec.Decode(new(any)); err != io.EOF {
		return Header{}, nil, fmt.Errorf("%w: unexpected trailing data", ErrTruncatedFrame)
	}

	return header, respBody, nil
}

func parseHeader(raw map[int]any) (Header, error) {
	var h Header
	if v, ok := raw[int(iproto.KeyCode)]; ok {
		code, err := toUint64(v)
		if err != nil {
			return Header{}, fmt.Errorf("wire: header code: %w", err)
		}
		h.Code = iproto.Code(code)
	}
	if v, ok := raw[int(iproto.KeySync)]; ok {
		sync, err := toUint64(v)
		if err != nil {
			return Header{}, fmt.Errorf("wire: header sync: %w", err)
		}
		h.Sync = sync
	}
	if v, ok := raw[int(iproto.KeySchemaID)]; ok {
		schemaID, err := toUint64(v)
		if err != nil {
			return Header{}, fmt.Errorf("wire: header schema id: %w", err)
		}
		h.SchemaID = schemaID
	}
	return h, nil
}

func toUint64(v any) (uint64, error) {
	switch n := v.(type) {
	case uint64:
		return n, nil
	case int64:
		return uint64(n), nil
	case uint8:
		return uint64(n), nil
	case int8:
		return uint64(n), nil
	case uint16:
		return uint64(n), nil
	case int16:
		return uint64(n), nil
	case uint32:
		return uint64(n), nil
	case int32:
		return uint64(n), nil
	case int:
		return uint64(n), nil
	default:
		return 0, fmt.Errorf("unexpected numeric type %T", v)
	}
}
