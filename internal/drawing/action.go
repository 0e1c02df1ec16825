package drawing

// Tool identifies how a DrawAction is rendered
type Tool string

const (
	ToolBrush     Tool = "brush"
	ToolEraser    Tool = "eraser"
	ToolLine      Tool = "line"
	ToolRectangle Tool = "rectangle"
	ToolCircle    Tool = "circle"
	ToolTriangle  Tool = "triangle"
	ToolArrow     Tool = "arrow"
	ToolSelect    Tool = "select"
)

// Freehand tools carry a point path instead of a start/end pair.
func (t Tool) Freehand() bool {
	return t == ToolBrush || t == ToolEraser
}

// Point is a canvas coordinate
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DrawAction is a single stroke or shape submitted by a client.
//
// Timestamp is in milliseconds since the epoch and is the ordering key of a
// room's history. AuthorID and AuthorName are always overwritten server-side.
// A Color or Points entry that is present is validated even when it is "" or
// null.
type DrawAction struct {
	Tool        Tool     `json:"tool" validate:"required,oneof=brush eraser line rectangle circle triangle arrow select"`
	Color       *string  `json:"color,omitempty" validate:"omitempty,strokecolor"`
	StrokeWidth *float64 `json:"strokeWidth,omitempty"`
	FillEnabled bool     `json:"fillEnabled,omitempty"`
	StartPoint  *Point   `json:"startPoint,omitempty"`
	EndPoint    *Point   `json:"endPoint,omitempty"`
	Points      []*Point `json:"points,omitempty"`
	Timestamp   float64  `json:"timestamp" validate:"required"`
	AuthorID    string   `json:"authorId,omitempty"`
	AuthorName  string   `json:"authorName,omitempty"`
}
