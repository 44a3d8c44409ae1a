package canvas

// ManifestVersion marks manifests written in the fragmented layout.
const ManifestVersion = 2

// RepairReason is recorded on placeholders created by consistency repair.
const RepairReason = "consistency_repair"

// Position is a node's location on the canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Viewport is the pan/zoom state of a canvas.
type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// DefaultViewport is the view of a canvas that has never been saved.
func DefaultViewport() Viewport {
	return Viewport{X: 0, Y: 0, Zoom: 1}
}

// Manifest is the lightweight descriptor of a canvas: membership and view state.
type Manifest struct {
	CanvasID  string   `json:"canvasId"`
	Viewport  Viewport `json:"viewport"`
	NodeIDs   []string `json:"nodeIds"`
	EdgeIDs   []string `json:"edgeIds"`
	UpdatedAt int64    `json:"updatedAt,omitempty"`
	Version   int      `json:"version,omitempty"`
}

// EmptyManifest is returned for canvases with no stored manifest.
func EmptyManifest(canvasID string) *Manifest {
	return &Manifest{
		CanvasID: canvasID,
		Viewport: DefaultViewport(),
		NodeIDs:  []string{},
		EdgeIDs:  []string{},
	}
}

// Node is one canvas element, stored as its own document.
// Type is fixed once the node first exists.
type Node struct {
	ID                string                 `json:"id" validate:"required"`
	Type              string                 `json:"type"`
	Position          Position               `json:"position"`
	Data              map[string]interface{} `json:"data"`
	CreatedAt         int64                  `json:"createdAt,omitempty"`
	UpdatedAt         int64                  `json:"updatedAt,omitempty"`
	AutoCreated       bool                   `json:"autoCreated"`
	AutoCreatedReason string                 `json:"autoCreatedReason,omitempty"`
}

// NewPlaceholder builds the node that repair creates for a missing ID.
func NewPlaceholder(id string, now int64) *Node {
	return &Node{
		ID:                id,
		Type:              InferKind(id),
		Position:          Position{},
		Data:              map[string]interface{}{},
		CreatedAt:         now,
		UpdatedAt:         now,
		AutoCreated:       true,
		AutoCreatedReason: RepairReason,
	}
}

// Edge connects two nodes. Endpoints are not checked for existence.
type Edge struct {
	ID        string                 `json:"id" validate:"required"`
	Source    string                 `json:"source" validate:"required"`
	Target    string                 `json:"target" validate:"required"`
	Data      map[string]interface{} `json:"data"`
	CreatedAt int64                  `json:"createdAt,omitempty"`
	UpdatedAt int64                  `json:"updatedAt,omitempty"`
}
