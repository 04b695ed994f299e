package handseg

import "image"

// MarkerKind labels a classified point.
type MarkerKind int

const (
	// MarkerValley marks a defect far point, the gap between two fingers.
	MarkerValley MarkerKind = iota
	// MarkerFingertip marks a defect start point, a fingertip candidate.
	MarkerFingertip
)

// String returns the marker name.
func (k MarkerKind) String() string {
	switch k {
	case MarkerValley:
		return "valley"
	case MarkerFingertip:
		return "fingertip"
	default:
		return "unknown"
	}
}

// SegmentKind labels a rendered line segment.
type SegmentKind int

const (
	// SegmentHandToTip joins the tracked hand to a fingertip candidate.
	SegmentHandToTip SegmentKind = iota
	// SegmentHandToValley joins the tracked hand to a valley.
	SegmentHandToValley
	// SegmentValleyToTip joins a valley to its fingertip candidate.
	SegmentValleyToTip
)

// Segment is a line to render.
type Segment struct {
	From image.Point
	To   image.Point
	Kind SegmentKind
}

// Marker is a classified point to render.
type Marker struct {
	At   image.Point
	Kind MarkerKind
}

// Candidate is a defect that survived the depth filter.
type Candidate struct {
	Contour int         `json:"contour"`
	Defect  Defect      `json:"defect"`
	Tip     image.Point `json:"tip"`
	Valley  image.Point `json:"valley"`
	// End is the other hull endpoint of the defect. It is not rendered.
	End image.Point `json:"end"`
}

// Geometry is the renderable result of classification.
type Geometry struct {
	Hand       image.Point
	Candidates []Candidate
	Segments   []Segment
	Markers    []Marker
}

// Fingertips returns every fingertip candidate point, in emission order.
func (g Geometry) Fingertips() []image.Point {
	out := make([]image.Point, 0, len(g.Candidates))
	for _, c := range g.Candidates {
		out = append(out, c.Tip)
	}
	return out
}

// Classify keeps every defect whose depth strictly exceeds minDepth and turns
// it into three segments (hand to tip, hand to valley, valley to tip) and two
// markers (valley, fingertip). analyses[i] must describe contours[i].
// Candidates from different contours are neither ranked nor deduplicated.
func Classify(hand image.Point, contours []Contour, analyses []Convexity, minDepth int) Geometry {
	g := Geometry{Hand: hand}

	for ci, a := range analyses {
		if ci >= len(contours) {
			break
		}
		c := contours[ci]

		for _, d := range a.Defects {
			if d.Depth <= minDepth {
				continue
			}
			if !d.validFor(len(c)) {
				continue
			}

			tip := c[d.Start]
			valley := c[d.Far]
			g.Candidates = append(g.Candidates, Candidate{
				Contour: ci,
				Defect:  d,
				Tip:     tip,
				Valley:  valley,
				End:     c[d.End],
			})
			g.Segments = append(g.Segments,
				Segment{From: hand, To: tip, Kind: SegmentHandToTip},
				Segment{From: hand, To: valley, Kind: SegmentHandToValley},
				Segment{From: valley, To: tip, Kind: SegmentValleyToTip},
			)
			g.Markers = append(g.Markers,
				Marker{At: valley, Kind: MarkerValley},
				Marker{At: tip, Kind: MarkerFingertip},
			)
		}
	}

	return g
}

// validFor reports whether every index of d addresses a contour of length n.
func (d Defect) validFor(n int) bool {
	return d.Start >= 0 && d.Start < n &&
		d.End >= 0 && d.End < n &&
		d.Far >= 0 && d.Far < n &&
		d.Depth >= 0
}
