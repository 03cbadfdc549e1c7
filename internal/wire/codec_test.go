package wire

import (
	"bytes"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/oleggator/go-tarantool/internal/iproto"
)

func TestFrameRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		code iproto.Code
		sync uint64
		body map[iproto.Key]any
	}{
		{"ping no body", iproto.Ping, 1, nil},
		{"select with key", iproto.Select, 42, map[iproto.Key]any{
			iproto.KeySpaceID:  uint64(999),
			iproto.KeyIndexID:  uint64(0),
			iproto.KeyLimit:    uint64(1),
			iproto.KeyOffset:   uint64(0),
			iproto.KeyIterator: uint64(0),
		}},
		{"large sync", iproto.Call, 1 << 40, map[iproto.Key]any{
			iproto.KeyFunctionName: "box.info",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := EncodeFrame(tt.code, tt.sync, tt.body)
			if err != nil {
				t.Fatalf("EncodeFrame: %v", err)
			}

			header, body, err := ReadFrame(bytes.NewReader(encoded))
			if err != nil {
				t.Fatalf("ReadFrame: %v", err)
			}
			if header.Code != tt.code {
				t.Errorf("Code = %v, want %v", header.Code, tt.code)
			}
			if header.Sync != tt.sync {
				t.Errorf("Sync = %v, want %v", header.Sync, tt.sync)
			}
			if tt.body == nil {
				if len(body) != 0 {
					t.Errorf("body = %v, want empty", body)
				}
				return
			}
			for k, want := range tt.body {
				got, ok := body[k]
				if !ok {
					t.Fatalf("missing key %v in decoded body", k)
				}
				if sv, ok := want.(string); ok {
					if gv, ok := got.(string); !ok || gv != sv {
						t.Errorf("key %v = %v, want %v", k, got, want)
					}
					continue
				}
				gv, err := toUint64(got)
				if err != nil {
					t.Fatalf("key %v: %v", k, err)
				}
				wv, _ := toUint64(want)
				if gv != wv {
					t.Errorf("key %v = %v, want %v", k, gv, wv)
				}
			}
		})
	}
}

func TestReadFrameHeaderOnly(t *testing.T) {
	var payload bytes.Buffer
	enc := msgpack.NewEncoder(&payload)
	if err := enc.Encode(map[iproto.Key]any{iproto.KeyCode: uint64(iproto.Ping), iproto.KeySync: uint64(7)}); err != nil {
		t.Fatalf("encoding header: %v", err)
	}

	var frame bytes.Buffer
	if err := msgpack.NewEncoder(&frame).EncodeUint64(uint64(payload.Len())); err != nil {
		t.Fatalf("encoding length prefix: %v", err)
	}
	frame.Write(payload.Bytes())

	header, body, err := ReadFrame(&frame)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if header.Code != iproto.Ping || header.Sync != 7 {
		t.Errorf("header = %+v, want code=Ping sync=7", header)
	}
	if len(body) != 0 {
		t.Errorf("body = %v, want empty map for a header-only frame", body)
	}
}

func TestReadFrameTruncated(t *testing.T) {
	encoded, err := EncodeFrame(iproto.Ping, 1, nil)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	truncated := encoded[:len(encoded)-1]
	if _, _, err := ReadFrame(bytes.NewReader(truncated)); err == nil {
		t.Fatal("ReadFrame succeeded on truncated input, want error")
	}
}
