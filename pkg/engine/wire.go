package engine

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// Binary persistence for blackboard state. Layout (little-endian):
//
//	u32 variable count
//	per variable:
//	  u16 name length, name bytes
//	  u8  type tag (ValueType)
//	  payload: bool 1 byte; int i32; float f32; vector 3×f32;
//	           entity u64; string u32 length + bytes
//
// Decoding is schema-tolerant: entries whose name is unknown in the
// current schema, or whose stored tag differs from the declared type,
// are skipped and reported, never fatal. Truncated trailing data stops
// the decode loop early. This is the only bit-exact wire format in the
// core and must stay forward-compatible with unknown variable names.

// SkippedField describes one entry the decoder could not apply.
type SkippedField struct {
	Name   string
	Tag    ValueType
	Reason string
}

func (s SkippedField) String() string {
	return fmt.Sprintf("%s (%s): %s", s.Name, s.Tag, s.Reason)
}

// Serialize encodes every variable's current value. Variables are
// written in sorted name order so one call is internally consistent.
func (b *Blackboard) Serialize() []byte {
	names := b.VariableNames()
	buf := make([]byte, 0, 16+32*len(names))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(names)))
	for _, name := range names {
		e := b.entries[name]
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(name)))
		buf = append(buf, name...)
		buf = append(buf, byte(e.current.Type()))
		buf = appendPayload(buf, e.current)
	}
	return buf
}

func appendPayload(buf []byte, v Value) []byte {
	switch v.Type() {
	case TypeBool:
		if v.b {
			return append(buf, 1)
		}
		return append(buf, 0)
	case TypeInt:
		return binary.LittleEndian.AppendUint32(buf, uint32(v.i))
	case TypeFloat:
		return binary.LittleEndian.AppendUint32(buf, math.Float32bits(v.f))
	case TypeVector:
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v.v.X))
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v.v.Y))
		return binary.LittleEndian.AppendUint32(buf, math.Float32bits(v.v.Z))
	case TypeEntity:
		return binary.LittleEndian.AppendUint64(buf, uint64(v.e))
	case TypeString:
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(v.s)))
		return append(buf, v.s...)
	default:
		return buf
	}
}

// byteReader is a bounds-checked cursor over the decode buffer. Every
// read reports false once the remaining data is too short, which turns
// truncation into an early stop instead of a crash.
type byteReader struct {
	data []byte
	off  int
}

func (r *byteReader) u8() (byte, bool) {
	if r.off+1 > len(r.data) {
		return 0, false
	}
	v := r.data[r.off]
	r.off++
	return v, true
}

func (r *byteReader) u16() (uint16, bool) {
	if r.off+2 > len(r.data) {
		return 0, false
	}
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v, true
}

func (r *byteReader) u32() (uint32, bool) {
	if r.off+4 > len(r.data) {
		return 0, false
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v, true
}

func (r *byteReader) u64() (uint64, bool) {
	if r.off+8 > len(r.data) {
		return 0, false
	}
	v := binary.LittleEndian.Uint64(r.data[r.off:])
	r.off += 8
	return v, true
}

func (r *byteReader) bytes(n int) ([]byte, bool) {
	if n < 0 || r.off+n > len(r.data) {
		return nil, false
	}
	v := r.data[r.off : r.off+n]
	r.off += n
	return v, true
}

// Deserialize applies serialized state to an already-initialized
// blackboard. The schema (declared names and types) is not restored
// from the stream; it must match by having been initialized from the
// same template. Returns the entries that were skipped for unknown
// name or mismatched type; a truncated stream ends the loop early with
// whatever was applied so far.
func (b *Blackboard) Deserialize(data []byte) ([]SkippedField, error) {
	if b.entries == nil {
		return nil, ErrNotInitialized
	}
	r := &byteReader{data: data}
	count, ok := r.u32()
	if !ok {
		return nil, nil
	}

	var skipped []SkippedField
	for i := uint32(0); i < count; i++ {
		nameLen, ok := r.u16()
		if !ok {
			return skipped, nil
		}
		nameBytes, ok := r.bytes(int(nameLen))
		if !ok {
			return skipped, nil
		}
		name := string(nameBytes)
		tagByte, ok := r.u8()
		if !ok {
			return skipped, nil
		}
		tag := ValueType(tagByte)

		v, ok := readPayload(r, tag)
		if !ok {
			// Unknown tag or truncated payload: nothing further in the
			// stream can be framed reliably.
			skipped = append(skipped, SkippedField{Name: name, Tag: tag, Reason: "unreadable payload"})
			return skipped, nil
		}

		e, known := b.entries[name]
		switch {
		case !known:
			skipped = append(skipped, SkippedField{Name: name, Tag: tag, Reason: "not declared in current schema"})
		case e.decl.Type != tag:
			skipped = append(skipped, SkippedField{Name: name, Tag: tag,
				Reason: fmt.Sprintf("declared as %s", e.decl.Type)})
		default:
			e.current = v
		}
	}
	sort.Slice(skipped, func(i, j int) bool { return skipped[i].Name < skipped[j].Name })
	return skipped, nil
}

func readPayload(r *byteReader, tag ValueType) (Value, bool) {
	switch tag {
	case TypeBool:
		bb, ok := r.u8()
		if !ok {
			return Value{}, false
		}
		return BoolValue(bb != 0), true
	case TypeInt:
		u, ok := r.u32()
		if !ok {
			return Value{}, false
		}
		return IntValue(int32(u)), true
	case TypeFloat:
		u, ok := r.u32()
		if !ok {
			return Value{}, false
		}
		return FloatValue(math.Float32frombits(u)), true
	case TypeVector:
		var c [3]float32
		for i := range c {
			u, ok := r.u32()
			if !ok {
				return Value{}, false
			}
			c[i] = math.Float32frombits(u)
		}
		return VectorValue(Vec3{c[0], c[1], c[2]}), true
	case TypeEntity:
		u, ok := r.u64()
		if !ok {
			return Value{}, false
		}
		return EntityValue(EntityRef(u)), true
	case TypeString:
		n, ok := r.u32()
		if !ok {
			return Value{}, false
		}
		sb, ok := r.bytes(int(n))
		if !ok {
			return Value{}, false
		}
		return StringValue(string(sb)), true
	default:
		return Value{}, false
	}
}
