package drawing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func width(w float64) *float64 { return &w }

func color(c string) *string { return &c }

func TestValidator_Validate(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	line := func() DrawAction {
		return DrawAction{
			Tool:       ToolLine,
			Timestamp:  1000,
			StartPoint: &Point{X: 0, Y: 0},
			EndPoint:   &Point{X: 10, Y: 10},
		}
	}
	brush := func() DrawAction {
		return DrawAction{
			Tool:      ToolBrush,
			Timestamp: 1000,
			Points:    []*Point{{X: 1, Y: 1}, {X: 2, Y: 3}},
		}
	}

	tests := []struct {
		name    string
		action  func() DrawAction
		wantErr string
	}{
		{name: "valid line", action: line},
		{name: "valid brush", action: brush},
		{
			name: "valid short color and width bounds",
			action: func() DrawAction {
				a := brush()
				a.Color = color("#fA0")
				a.StrokeWidth = width(1)
				return a
			},
		},
		{
			name: "valid long color max width",
			action: func() DrawAction {
				a := line()
				a.Color = color("#FF00aa")
				a.StrokeWidth = width(100)
				return a
			},
		},
		{
			name: "missing tool",
			action: func() DrawAction {
				a := line()
				a.Tool = ""
				return a
			},
			wantErr: "tool is required",
		},
		{
			name: "unknown tool",
			action: func() DrawAction {
				a := line()
				a.Tool = "spray"
				return a
			},
			wantErr: `unknown tool "spray"`,
		},
		{
			name: "missing timestamp",
			action: func() DrawAction {
				a := line()
				a.Timestamp = 0
				return a
			},
			wantErr: "timestamp is required",
		},
		{
			name: "freehand without points",
			action: func() DrawAction {
				a := brush()
				a.Points = nil
				return a
			},
			wantErr: "brush requires a non-empty points path",
		},
		{
			name: "eraser with empty points",
			action: func() DrawAction {
				return DrawAction{Tool: ToolEraser, Timestamp: 5, Points: []*Point{}}
			},
			wantErr: "eraser requires a non-empty points path",
		},
		{
			name: "shape without end point",
			action: func() DrawAction {
				a := line()
				a.EndPoint = nil
				return a
			},
			wantErr: "line requires endPoint",
		},
		{
			name: "shape with points but no start",
			action: func() DrawAction {
				return DrawAction{Tool: ToolRectangle, Timestamp: 5, Points: []*Point{{X: 1, Y: 1}}, EndPoint: &Point{}}
			},
			wantErr: "rectangle requires startPoint",
		},
		{
			name: "shape carrying a points path",
			action: func() DrawAction {
				a := line()
				a.Points = []*Point{{X: 1, Y: 1}}
				return a
			},
			wantErr: "line does not take points",
		},
		{
			name: "freehand carrying an end point",
			action: func() DrawAction {
				a := brush()
				a.EndPoint = &Point{X: 4, Y: 4}
				return a
			},
			wantErr: "brush does not take endPoint",
		},
		{
			name: "null entry in points path",
			action: func() DrawAction {
				a := brush()
				a.Points = append(a.Points, nil)
				return a
			},
			wantErr: "brush points contains a null point",
		},
		{
			name: "empty color rejected",
			action: func() DrawAction {
				a := line()
				a.Color = color("")
				return a
			},
			wantErr: `color "" is not #RGB or #RRGGBB`,
		},
		{
			name: "named color rejected",
			action: func() DrawAction {
				a := line()
				a.Color = color("red")
				return a
			},
			wantErr: "is not #RGB or #RRGGBB",
		},
		{
			name: "four digit color rejected",
			action: func() DrawAction {
				a := line()
				a.Color = color("#abcd")
				return a
			},
			wantErr: "is not #RGB or #RRGGBB",
		},
		{
			name: "non hex digits rejected",
			action: func() DrawAction {
				a := line()
				a.Color = color("#ggg")
				return a
			},
			wantErr: "is not #RGB or #RRGGBB",
		},
		{
			name: "zero width rejected",
			action: func() DrawAction {
				a := brush()
				a.StrokeWidth = width(0)
				return a
			},
			wantErr: "strokeWidth 0 outside 1-100",
		},
		{
			name: "oversized width rejected",
			action: func() DrawAction {
				a := brush()
				a.StrokeWidth = width(100.5)
				return a
			},
			wantErr: "strokeWidth 100.5 outside 1-100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.action())
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidAction)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidator_ReportsEveryFailure(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	err = v.Validate(DrawAction{Tool: ToolCircle, Color: color("blue")})
	require.ErrorIs(t, err, ErrInvalidAction)

	msg := err.Error()
	assert.Contains(t, msg, "timestamp is required")
	assert.Contains(t, msg, "circle requires startPoint")
	assert.Contains(t, msg, "circle requires endPoint")
	assert.Contains(t, msg, `color "blue"`)
}

func TestValidator_DecodedPayloads(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	tests := []struct {
		name    string
		payload string
		wantErr string
	}{
		{
			name:    "absent color",
			payload: `{"tool":"line","timestamp":5,"startPoint":{"x":0,"y":0},"endPoint":{"x":1,"y":1}}`,
		},
		{
			name:    "present but empty color",
			payload: `{"tool":"line","timestamp":5,"color":"","startPoint":{"x":0,"y":0},"endPoint":{"x":1,"y":1}}`,
			wantErr: `color "" is not #RGB or #RRGGBB`,
		},
		{
			name:    "null point in path",
			payload: `{"tool":"brush","timestamp":5,"points":[null]}`,
			wantErr: "brush points contains a null point",
		},
		{
			name:    "shape with points",
			payload: `{"tool":"rectangle","timestamp":5,"startPoint":{"x":0,"y":0},"endPoint":{"x":1,"y":1},"points":[{"x":2,"y":2}]}`,
			wantErr: "rectangle does not take points",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var action DrawAction
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &action))

			err := v.Validate(action)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidAction)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestTool_Freehand(t *testing.T) {
	assert.True(t, ToolBrush.Freehand())
	assert.True(t, ToolEraser.Freehand())
	for _, tool := range []Tool{ToolLine, ToolRectangle, ToolCircle, ToolTriangle, ToolArrow, ToolSelect} {
		assert.False(t, tool.Freehand(), tool)
	}
}
