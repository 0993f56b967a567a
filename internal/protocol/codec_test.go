package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collaborative-canvas/internal/domain"
	"collaborative-canvas/internal/protocol"
)

func TestDecode_ValidEnvelope(t *testing.T) {
	raw := []byte(`{"event":"draw-move","data":{"roomId":"r1","x":3,"y":4}}`)

	msg, err := protocol.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, protocol.EventDrawMove, msg.Event)

	var req protocol.DrawMoveRequest
	require.NoError(t, msg.Bind(&req))
	assert.Equal(t, "r1", req.RoomID)
	assert.Equal(t, 3.0, *req.X)
	assert.Equal(t, 4.0, *req.Y)
}

func TestDecode_RejectsGarbage(t *testing.T) {
	_, err := protocol.Decode([]byte(`{not json`))
	assert.ErrorIs(t, err, protocol.ErrMalformedPayload)
}

func TestDecode_RejectsMissingEventName(t *testing.T) {
	_, err := protocol.Decode([]byte(`{"data":{"roomId":"r1"}}`))
	assert.ErrorIs(t, err, protocol.ErrMalformedPayload)
}

func TestBind_MissingCoordinatesRejected(t *testing.T) {
	msg, err := protocol.Decode([]byte(`{"event":"draw-move","data":{"roomId":"r1","x":3}}`))
	require.NoError(t, err)

	var req protocol.DrawMoveRequest
	assert.ErrorIs(t, msg.Bind(&req), protocol.ErrMalformedPayload)
}

func TestBind_ZeroCoordinatesAreValid(t *testing.T) {
	msg, err := protocol.Decode([]byte(`{"event":"cursor-move","data":{"roomId":"r1","x":0,"y":0}}`))
	require.NoError(t, err)

	var req protocol.CursorMoveRequest
	require.NoError(t, msg.Bind(&req))
	assert.Zero(t, *req.X)
	assert.Zero(t, *req.Y)
}

func TestBind_WrongFieldTypeRejected(t *testing.T) {
	msg, err := protocol.Decode([]byte(`{"event":"draw-move","data":{"roomId":"r1","x":"three","y":4}}`))
	require.NoError(t, err)

	var req protocol.DrawMoveRequest
	assert.ErrorIs(t, msg.Bind(&req), protocol.ErrMalformedPayload)
}

func TestBind_EmptyPayloadFailsValidation(t *testing.T) {
	msg, err := protocol.Decode([]byte(`{"event":"undo"}`))
	require.NoError(t, err)

	var req protocol.UndoRequest
	assert.ErrorIs(t, msg.Bind(&req), protocol.ErrMalformedPayload)
}

func TestDrawStartRequest_Validation(t *testing.T) {
	x, y := 1.0, 2.0

	tests := []struct {
		name    string
		req     protocol.DrawStartRequest
		wantErr bool
	}{
		{
			name: "valid brush",
			req:  protocol.DrawStartRequest{RoomID: "r1", X: &x, Y: &y, Color: "#FF6B6B", LineWidth: 2, Tool: domain.ToolBrush},
		},
		{
			name:    "unknown tool",
			req:     protocol.DrawStartRequest{RoomID: "r1", X: &x, Y: &y, LineWidth: 2, Tool: "spraycan"},
			wantErr: true,
		},
		{
			name:    "missing room",
			req:     protocol.DrawStartRequest{X: &x, Y: &y, LineWidth: 2, Tool: domain.ToolBrush},
			wantErr: true,
		},
		{
			name:    "missing y",
			req:     protocol.DrawStartRequest{RoomID: "r1", X: &x, LineWidth: 2, Tool: domain.ToolBrush},
			wantErr: true,
		},
		{
			name:    "non-positive line width",
			req:     protocol.DrawStartRequest{RoomID: "r1", X: &x, Y: &y, LineWidth: 0, Tool: domain.ToolBrush},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, protocol.ErrMalformedPayload)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEncode_RoundTripsThroughDecode(t *testing.T) {
	frame, err := protocol.Encode(protocol.EventUndo, protocol.UndoEvent{UserID: "u1", PathID: "path-1-0"})
	require.NoError(t, err)

	msg, err := protocol.Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, protocol.EventUndo, msg.Event)
	assert.JSONEq(t, `{"userId":"u1","pathId":"path-1-0"}`, string(msg.Data))
}

func TestEncode_NilPayloadOmitsData(t *testing.T) {
	frame, err := protocol.Encode(protocol.EventClearCanvas, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"clear-canvas"}`, string(frame))
}
