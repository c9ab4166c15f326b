package protocol

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Message is a value of the fixed auth schema. Unmarshal replaces the
// receiver's contents.
type Message interface {
	Marshal() []byte
	Unmarshal(b []byte) error
}

// Request is a Message bound to the service method that accepts it.
// Each request type has exactly one response type, named after it.
type Request interface {
	Message
	ServiceMethod() ServiceMethod
}

// Zero values are not written, as proto3 does.
type encoder struct {
	b []byte
}

func (e *encoder) tag(num protowire.Number, typ protowire.Type) {
	e.b = protowire.AppendTag(e.b, num, typ)
}

func (e *encoder) string(num protowire.Number, v string) {
	if v == "" {
		return
	}
	e.tag(num, protowire.BytesType)
	e.b = protowire.AppendString(e.b, v)
}

func (e *encoder) bytes(num protowire.Number, v []byte) {
	if len(v) == 0 {
		return
	}
	e.tag(num, protowire.BytesType)
	e.b = protowire.AppendBytes(e.b, v)
}

func (e *encoder) uint64(num protowire.Number, v uint64) {
	if v == 0 {
		return
	}
	e.tag(num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, v)
}

func (e *encoder) uint32(num protowire.Number, v uint32) {
	e.uint64(num, uint64(v))
}

func (e *encoder) int32(num protowire.Number, v int32) {
	// Negative values are sign extended to ten bytes.
	e.uint64(num, uint64(int64(v)))
}

func (e *encoder) bool(num protowire.Number, v bool) {
	if !v {
		return
	}
	e.tag(num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, 1)
}

func (e *encoder) fixed64(num protowire.Number, v uint64) {
	if v == 0 {
		return
	}
	e.tag(num, protowire.Fixed64Type)
	e.b = protowire.AppendFixed64(e.b, v)
}

func (e *encoder) float32(num protowire.Number, v float32) {
	if v == 0 {
		return
	}
	e.tag(num, protowire.Fixed32Type)
	e.b = protowire.AppendFixed32(e.b, math.Float32bits(v))
}

func (e *encoder) message(num protowire.Number, m Message) {
	e.tag(num, protowire.BytesType)
	e.b = protowire.AppendBytes(e.b, m.Marshal())
}

type decoder struct {
	b   []byte
	num protowire.Number
	typ protowire.Type
	err error
}

func newDecoder(b []byte) *decoder {
	return &decoder{b: b}
}

func (d *decoder) next() bool {
	if d.err != nil || len(d.b) == 0 {
		return false
	}
	num, typ, n := protowire.ConsumeTag(d.b)
	if n < 0 {
		d.fail(protowire.ParseError(n))
		return false
	}
	d.num, d.typ, d.b = num, typ, d.b[n:]
	return true
}

func (d *decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
	d.b = nil
}

func (d *decoder) expect(typ protowire.Type) bool {
	if d.typ != typ {
		d.fail(fmt.Errorf("field %d has wire type %d, want %d", d.num, d.typ, typ))
		return false
	}
	return true
}

func (d *decoder) varint() uint64 {
	if !d.expect(protowire.VarintType) {
		return 0
	}
	v, n := protowire.ConsumeVarint(d.b)
	if n < 0 {
		d.fail(protowire.ParseError(n))
		return 0
	}
	d.b = d.b[n:]
	return v
}

func (d *decoder) uint64() uint64 {
	return d.varint()
}

func (d *decoder) uint32() uint32 {
	return uint32(d.varint())
}

func (d *decoder) int32() int32 {
	return int32(d.varint())
}

func (d *decoder) bool() bool {
	return d.varint() != 0
}

func (d *decoder) fixed64() uint64 {
	if !d.expect(protowire.Fixed64Type) {
		return 0
	}
	v, n := protowire.ConsumeFixed64(d.b)
	if n < 0 {
		d.fail(protowire.ParseError(n))
		return 0
	}
	d.b = d.b[n:]
	return v
}

func (d *decoder) float32() float32 {
	if !d.expect(protowire.Fixed32Type) {
		return 0
	}
	v, n := protowire.ConsumeFixed32(d.b)
	if n < 0 {
		d.fail(protowire.ParseError(n))
		return 0
	}
	d.b = d.b[n:]
	return math.Float32frombits(v)
}

func (d *decoder) bytes() []byte {
	if !d.expect(protowire.BytesType) {
		return nil
	}
	v, n := protowire.ConsumeBytes(d.b)
	if n < 0 {
		d.fail(protowire.ParseError(n))
		return nil
	}
	d.b = d.b[n:]
	return append([]byte(nil), v...)
}

func (d *decoder) string() string {
	return string(d.bytes())
}

func (d *decoder) message(m Message) {
	b := d.bytes()
	if d.err != nil {
		return
	}
	if err := m.Unmarshal(b); err != nil {
		d.fail(err)
	}
}

func (d *decoder) skip() {
	n := protowire.ConsumeFieldValue(d.num, d.typ, d.b)
	if n < 0 {
		d.fail(protowire.ParseError(n))
		return
	}
	d.b = d.b[n:]
}

func (d *decoder) finish(name string) error {
	if d.err != nil {
		return &CodecError{Message: name, Err: d.err}
	}
	return nil
}
