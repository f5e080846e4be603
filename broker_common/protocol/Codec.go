package protocol

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"portq/broker_common/protocol/flatbuffers/PortQ"
)

const (
	frameHeaderSize = 4
	MaxFrameSize    = 64 << 20
)

var parser IFrameParser = NewFBFrameParser()

// WriteFrame writes a little-endian uint32 length followed by the serialized
// frame, in a single write.
func WriteFrame(w io.Writer, frame *Frame) error {
	body, err := parser.Serialize(frame)
	if err != nil {
		return err
	}
	if len(body) > MaxFrameSize {
		return NewFrameTooLargeError(uint32(len(body)))
	}
	buf := make([]byte, frameHeaderSize+len(body))
	binary.LittleEndian.PutUint32(buf, uint32(len(body)))
	copy(buf[frameHeaderSize:], body)
	if _, err = w.Write(buf); err != nil {
		return errors.Wrapf(err, "write %s frame", frame.Kind)
	}
	return nil
}

func ReadFrame(r io.Reader) (*Frame, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, errors.Wrap(err, "read frame header")
	}
	size := binary.LittleEndian.Uint32(header[:])
	if size > MaxFrameSize {
		return nil, NewFrameTooLargeError(size)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, errors.Wrap(err, "read frame body")
	}
	return parser.Deserialize(body)
}

func readKind(r io.Reader, kind PortQ.FrameKind) (*Frame, error) {
	frame, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	if frame.Kind != kind {
		return nil, NewUnexpectedKindError(kind, frame.Kind)
	}
	return frame, nil
}

func WriteText(w io.Writer, s string) error {
	return WriteFrame(w, TextFrame(s))
}

func WriteNumber(w io.Writer, n int64) error {
	return WriteFrame(w, NumberFrame(n))
}

func WriteFlag(w io.Writer, b bool) error {
	return WriteFrame(w, FlagFrame(b))
}

func WritePayload(w io.Writer, p []byte) error {
	return WriteFrame(w, PayloadFrame(p))
}

func ReadText(r io.Reader) (string, error) {
	frame, err := readKind(r, PortQ.FrameKindText)
	if err != nil {
		return "", err
	}
	return frame.Text, nil
}

func ReadNumber(r io.Reader) (int64, error) {
	frame, err := readKind(r, PortQ.FrameKindNumber)
	if err != nil {
		return 0, err
	}
	return frame.Number, nil
}

func ReadFlag(r io.Reader) (bool, error) {
	frame, err := readKind(r, PortQ.FrameKindFlag)
	if err != nil {
		return false, err
	}
	return frame.Flag, nil
}

func ReadPayload(r io.Reader) ([]byte, error) {
	frame, err := readKind(r, PortQ.FrameKindPayload)
	if err != nil {
		return nil, err
	}
	return frame.Payload, nil
}
