// Package wire implements the on-wire envelope and record codec:
// length-delimited protocol-buffer records wrapped in an optional
// encrypted envelope. The message set is small and fixed, so records are
// encoded by hand with google.golang.org/protobuf/encoding/protowire
// instead of protoc-generated stubs; the bytes on the wire are ordinary
// protobuf either way.
package wire

import (
	"github.com/tutu-network/gossipd/internal/domain"
	"google.golang.org/protobuf/encoding/protowire"
)

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	b = protowire.AppendBytes(b, v)
	return b
}

func appendStringField(b []byte, num protowire.Number, v string) []byte {
	return appendBytesField(b, num, []byte(v))
}

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	b = protowire.AppendVarint(b, v)
	return b
}

func appendBoolField(b []byte, num protowire.Number, v bool) []byte {
	var n uint64
	if v {
		n = 1
	}
	return appendVarintField(b, num, n)
}

// rawField is one decoded (number, wire-type, raw-bytes-or-varint) triple.
type rawField struct {
	num    protowire.Number
	typ    protowire.Type
	bytes  []byte
	varint uint64
}

// parseFields does a single flat pass over a length-delimited protobuf
// message, collecting every field by number. Repeated fields accumulate in
// encounter order; callers that expect repetition index the returned map
// by field number and read the whole slice.
func parseFields(b []byte) (map[protowire.Number][]rawField, error) {
	out := make(map[protowire.Number][]rawField)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, domain.ErrDecode
		}
		b = b[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, domain.ErrDecode
			}
			b = b[n:]
			out[num] = append(out[num], rawField{num: num, typ: typ, varint: v})
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, domain.ErrDecode
			}
			b = b[n:]
			// Copy — ConsumeBytes aliases the input slice.
			cp := make([]byte, len(v))
			copy(cp, v)
			out[num] = append(out[num], rawField{num: num, typ: typ, bytes: cp})
		case protowire.Fixed32Type:
			_, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return nil, domain.ErrDecode
			}
			b = b[n:]
		case protowire.Fixed64Type:
			_, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return nil, domain.ErrDecode
			}
			b = b[n:]
		default:
			// Unknown wire type: tolerate by scanning past it is not
			// possible generically, so treat as a decode error rather than
			// silently misaligning the rest of the message.
			return nil, domain.ErrDecode
		}
	}
	return out, nil
}

func oneBytes(fields map[protowire.Number][]rawField, num protowire.Number) ([]byte, bool) {
	fs := fields[num]
	if len(fs) == 0 {
		return nil, false
	}
	return fs[len(fs)-1].bytes, true
}

func oneString(fields map[protowire.Number][]rawField, num protowire.Number) (string, bool) {
	b, ok := oneBytes(fields, num)
	if !ok {
		return "", false
	}
	return string(b), true
}

func oneVarint(fields map[protowire.Number][]rawField, num protowire.Number) (uint64, bool) {
	fs := fields[num]
	if len(fs) == 0 {
		return 0, false
	}
	return fs[len(fs)-1].varint, true
}

func oneBool(fields map[protowire.Number][]rawField, num protowire.Number) bool {
	v, _ := oneVarint(fields, num)
	return v != 0
}
