package protocol

import (
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/pkg/errors"

	"portq/broker_common/protocol/flatbuffers/PortQ"
)

// Frame is one value on the wire. Exactly one of the value fields is
// meaningful, selected by Kind.
type Frame struct {
	Kind    PortQ.FrameKind
	Text    string
	Number  int64
	Flag    bool
	Payload []byte
}

func TextFrame(s string) *Frame {
	return &Frame{Kind: PortQ.FrameKindText, Text: s}
}

func NumberFrame(n int64) *Frame {
	return &Frame{Kind: PortQ.FrameKindNumber, Number: n}
}

func FlagFrame(b bool) *Frame {
	return &Frame{Kind: PortQ.FrameKindFlag, Flag: b}
}

func PayloadFrame(p []byte) *Frame {
	return &Frame{Kind: PortQ.FrameKindPayload, Payload: p}
}

type IFrameParser interface {
	Serialize(frame *Frame) ([]byte, error)
	Deserialize([]byte) (*Frame, error)
}

type FBFrameParser struct{}

func NewFBFrameParser() *FBFrameParser {
	return &FBFrameParser{}
}

func (p *FBFrameParser) Serialize(frame *Frame) ([]byte, error) {
	if frame == nil {
		return nil, errors.New("nil frame")
	}
	builder := flatbuffers.NewBuilder(32 + len(frame.Text) + len(frame.Payload))
	var textOffset, payloadOffset flatbuffers.UOffsetT
	switch frame.Kind {
	case PortQ.FrameKindText:
		textOffset = builder.CreateString(frame.Text)
	case PortQ.FrameKindPayload:
		payloadOffset = builder.CreateByteVector(frame.Payload)
	case PortQ.FrameKindNumber, PortQ.FrameKindFlag:
	default:
		return nil, NewMalformedFrameError("unknown kind " + frame.Kind.String())
	}
	PortQ.FrameStart(builder)
	PortQ.FrameAddKind(builder, frame.Kind)
	switch frame.Kind {
	case PortQ.FrameKindText:
		PortQ.FrameAddText(builder, textOffset)
	case PortQ.FrameKindNumber:
		PortQ.FrameAddNumber(builder, frame.Number)
	case PortQ.FrameKindFlag:
		PortQ.FrameAddFlag(builder, frame.Flag)
	case PortQ.FrameKindPayload:
		PortQ.FrameAddPayload(builder, payloadOffset)
	}
	builder.Finish(PortQ.FrameEnd(builder))
	return builder.FinishedBytes(), nil
}

func (p *FBFrameParser) Deserialize(buffer []byte) (frame *Frame, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			frame = nil
			err = NewMalformedFrameError("unable to parse the frame")
		}
	}()
	if len(buffer) < flatbuffers.SizeUOffsetT {
		return nil, NewMalformedFrameError("invalid buffer format")
	}
	fbFrame := PortQ.GetRootAsFrame(buffer, 0)
	frame = &Frame{Kind: fbFrame.Kind()}
	switch frame.Kind {
	case PortQ.FrameKindText:
		frame.Text = string(fbFrame.Text())
	case PortQ.FrameKindNumber:
		frame.Number = fbFrame.Number()
	case PortQ.FrameKindFlag:
		frame.Flag = fbFrame.Flag()
	case PortQ.FrameKindPayload:
		frame.Payload = append([]byte{}, fbFrame.PayloadBytes()...)
	default:
		return nil, NewMalformedFrameError("unknown kind " + frame.Kind.String())
	}
	return frame, nil
}
