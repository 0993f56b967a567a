package domain

// Point is a single coordinate on the shared canvas.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Tool enumerates the drawing tools a path can be created with.
type Tool string

const (
	ToolBrush     Tool = "brush"
	ToolEraser    Tool = "eraser"
	ToolLine      Tool = "line"
	ToolRectangle Tool = "rectangle"
	ToolCircle    Tool = "circle"
)

// Valid reports whether t is one of the known tools.
func (t Tool) Valid() bool {
	switch t {
	case ToolBrush, ToolEraser, ToolLine, ToolRectangle, ToolCircle:
		return true
	}
	return false
}

// Shape reports whether t is a two-point shape tool rather than a freehand
// stroke.
func (t Tool) Shape() bool {
	switch t {
	case ToolLine, ToolRectangle, ToolCircle:
		return true
	}
	return false
}

// Path is a committed stroke or shape. The id is server-assigned and unique
// within its room for the lifetime of the room. Points are append-only while
// the path is open; Start/End are only set for shape tools.
type Path struct {
	ID        string  `json:"id"`
	OwnerID   string  `json:"userId"`
	Tool      Tool    `json:"tool"`
	Color     string  `json:"color"`
	LineWidth float64 `json:"lineWidth"`
	Opacity   float64 `json:"opacity,omitempty"`
	Points    []Point `json:"points"`
	Start     *Point  `json:"start,omitempty"`
	End       *Point  `json:"end,omitempty"`
	CreatedAt int64   `json:"timestamp"` // unix milliseconds
}

// Clone returns a deep copy, so the copy can be mutated or handed to another
// goroutine without aliasing the original point slice.
func (p *Path) Clone() *Path {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Points = make([]Point, len(p.Points))
	copy(cp.Points, p.Points)
	if p.Start != nil {
		s := *p.Start
		cp.Start = &s
	}
	if p.End != nil {
		e := *p.End
		cp.End = &e
	}
	return &cp
}
