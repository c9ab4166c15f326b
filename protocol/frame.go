package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Header is the protobuf header of a push socket frame.
type Header struct {
	SteamID         uint64
	ClientSessionID int32
	JobIDSource     uint64
	JobIDTarget     uint64
	TargetJobName   string
	EResult         EResult
	ErrorMessage    string
}

func (h *Header) Marshal() []byte {
	var e encoder
	e.fixed64(1, h.SteamID)
	e.int32(2, h.ClientSessionID)
	e.fixed64(10, h.JobIDSource)
	e.fixed64(11, h.JobIDTarget)
	e.string(12, h.TargetJobName)
	e.int32(13, int32(h.EResult))
	e.string(14, h.ErrorMessage)
	return e.b
}

func (h *Header) Unmarshal(b []byte) error {
	// An absent eresult means Fail.
	*h = Header{EResult: EResultFail}

	d := newDecoder(b)
	for d.next() {
		switch d.num {
		case 1:
			h.SteamID = d.fixed64()
		case 2:
			h.ClientSessionID = d.int32()
		case 10:
			h.JobIDSource = d.fixed64()
		case 11:
			h.JobIDTarget = d.fixed64()
		case 12:
			h.TargetJobName = d.string()
		case 13:
			h.EResult = EResult(d.int32())
		case 14:
			h.ErrorMessage = d.string()
		default:
			d.skip()
		}
	}
	return d.finish("Header")
}

// Frame is one message on the push socket:
//
//	u32 LE emsg|ProtoMask, u32 LE header length, header, body
type Frame struct {
	EMsg   EMsg
	Header Header
	Body   []byte
}

func (f *Frame) Marshal() []byte {
	header := f.Header.Marshal()

	b := make([]byte, 0, 8+len(header)+len(f.Body))
	b = binary.LittleEndian.AppendUint32(b, uint32(f.EMsg)|ProtoMask)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(header)))
	b = append(b, header...)
	b = append(b, f.Body...)

	return b
}

// ParseFrame decodes a single frame.
func ParseFrame(b []byte) (*Frame, error) {
	if len(b) < 8 {
		return nil, &CodecError{Message: "frame", Err: io.ErrUnexpectedEOF}
	}

	raw := binary.LittleEndian.Uint32(b[0:4])
	if raw&ProtoMask == 0 {
		return nil, &CodecError{Message: "frame", Err: fmt.Errorf("unexpected non-protobuf emsg %d", raw)}
	}

	headerLen := uint64(binary.LittleEndian.Uint32(b[4:8]))
	if uint64(len(b)-8) < headerLen {
		return nil, &CodecError{Message: "frame", Err: io.ErrUnexpectedEOF}
	}

	f := &Frame{EMsg: EMsg(raw &^ ProtoMask)}
	if err := f.Header.Unmarshal(b[8 : 8+headerLen]); err != nil {
		return nil, err
	}
	f.Body = append([]byte(nil), b[8+headerLen:]...)

	return f, nil
}

// Multi bundles several frames into one, optionally gzip compressed.
type Multi struct {
	SizeUnzipped uint32
	MessageBody  []byte
}

func (m *Multi) Marshal() []byte {
	var e encoder
	e.uint32(1, m.SizeUnzipped)
	e.bytes(2, m.MessageBody)
	return e.b
}

func (m *Multi) Unmarshal(b []byte) error {
	*m = Multi{}
	d := newDecoder(b)
	for d.next() {
		switch d.num {
		case 1:
			m.SizeUnzipped = d.uint32()
		case 2:
			m.MessageBody = d.bytes()
		default:
			d.skip()
		}
	}
	return d.finish("Multi")
}

// NewMulti packs frames as u32 LE length-prefixed chunks.
func NewMulti(frames []*Frame, compress bool) (*Multi, error) {
	var payload []byte
	for _, f := range frames {
		b := f.Marshal()
		payload = binary.LittleEndian.AppendUint32(payload, uint32(len(b)))
		payload = append(payload, b...)
	}

	if !compress {
		return &Multi{MessageBody: payload}, nil
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	return &Multi{SizeUnzipped: uint32(len(payload)), MessageBody: buf.Bytes()}, nil
}

// maxUnzippedSize bounds the payload a Multi may inflate to.
const maxUnzippedSize = 16 << 20

// Frames unpacks the bundled frames.
func (m *Multi) Frames() ([]*Frame, error) {
	payload := m.MessageBody

	if m.SizeUnzipped != 0 {
		zr, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, &CodecError{Message: "Multi", Err: err}
		}
		defer zr.Close()

		if m.SizeUnzipped > maxUnzippedSize {
			return nil, &CodecError{Message: "Multi", Err: fmt.Errorf("unzipped size %d over limit", m.SizeUnzipped)}
		}

		if payload, err = io.ReadAll(io.LimitReader(zr, int64(m.SizeUnzipped)+1)); err != nil {
			return nil, &CodecError{Message: "Multi", Err: err}
		}

		if len(payload) != int(m.SizeUnzipped) {
			return nil, &CodecError{Message: "Multi", Err: fmt.Errorf("unzipped %d bytes, header says %d", len(payload), m.SizeUnzipped)}
		}
	}

	var frames []*Frame
	for len(payload) > 0 {
		if len(payload) < 4 {
			return nil, &CodecError{Message: "Multi", Err: io.ErrUnexpectedEOF}
		}
		size := uint64(binary.LittleEndian.Uint32(payload))
		payload = payload[4:]

		if uint64(len(payload)) < size {
			return nil, &CodecError{Message: "Multi", Err: io.ErrUnexpectedEOF}
		}

		f, err := ParseFrame(payload[:size])
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
		payload = payload[size:]
	}

	return frames, nil
}
