package handseg

import (
	"image"
	"math"

	"gocv.io/x/gocv"
)

// Defect is a convexity defect of a contour. Start and End index the hull
// edge endpoints in the contour, Far indexes the contour vertex deepest
// inside that edge. Depth is the perpendicular distance from Far to the
// edge in fixed point, scaled by DefectDepthScale.
//
// End is kept for completeness; the classifier does not render it.
type Defect struct {
	Start int `json:"start"`
	End   int `json:"end"`
	Far   int `json:"far"`
	Depth int `json:"depth"`
}

// DepthPixels returns Depth in pixel units.
func (d Defect) DepthPixels() float64 {
	return float64(d.Depth) / DefectDepthScale
}

// Convexity is the hull and defect analysis of one contour.
type Convexity struct {
	// HullIndices indexes the contour points that form the hull.
	HullIndices []int
	// HullPoints are the same hull vertices as points.
	HullPoints []image.Point
	// Defects is empty for contours with three or fewer points.
	Defects []Defect
}

// Analyze computes the convex hull of a contour in both index and point form
// and, when the contour has more than three points, its convexity defects.
func Analyze(c Contour) Convexity {
	var out Convexity
	if len(c) == 0 {
		return out
	}

	pv := gocv.NewPointVectorFromPoints(c)
	defer pv.Close()

	hullIdx := gocv.NewMat()
	defer hullIdx.Close()
	gocv.ConvexHull(pv, &hullIdx, false, false)

	hullPts := gocv.NewMat()
	defer hullPts.Close()
	gocv.ConvexHull(pv, &hullPts, false, true)

	out.HullIndices = make([]int, 0, hullIdx.Rows())
	for i := 0; i < hullIdx.Rows(); i++ {
		out.HullIndices = append(out.HullIndices, int(hullIdx.GetIntAt(i, 0)))
	}

	out.HullPoints = make([]image.Point, 0, hullPts.Rows())
	for i := 0; i < hullPts.Rows(); i++ {
		out.HullPoints = append(out.HullPoints, image.Pt(int(hullPts.GetIntAt(i, 0)), int(hullPts.GetIntAt(i, 1))))
	}

	// A triangle or smaller has no meaningful defects.
	if len(c) > 3 {
		out.Defects = ConvexityDefects(c, out.HullIndices)
	}

	return out
}

// ConvexityDefects finds, for every hull edge, the contour vertex farthest
// from that edge among the vertices the edge skips. Edges that skip no
// vertices, or whose skipped vertices all lie on the edge, yield no defect.
//
// The hull may be in either orientation relative to the contour. Hull
// indices outside the contour are ignored.
func ConvexityDefects(c Contour, hull []int) []Defect {
	n := len(c)
	if n <= 3 {
		return nil
	}

	idx := make([]int, 0, len(hull))
	for _, h := range hull {
		if h >= 0 && h < n {
			idx = append(idx, h)
		}
	}
	if len(idx) < 3 {
		return nil
	}

	// Walk the hull in the same direction as the contour.
	ascending := 0
	if idx[1] > idx[0] {
		ascending++
	}
	if idx[2] > idx[1] {
		ascending++
	}
	if idx[0] > idx[2] {
		ascending++
	}
	reversed := ascending != 2

	hullAt := func(i int) int {
		if reversed {
			return idx[len(idx)-1-i]
		}
		return idx[i]
	}

	var defects []Defect
	curr := hullAt(len(idx) - 1)
	for i := 0; i < len(idx); i++ {
		next := hullAt(i)
		p0, p1 := c[curr], c[next]
		dx0 := float64(p1.X - p0.X)
		dy0 := float64(p1.Y - p0.Y)
		scale := 0.0
		if dx0 != 0 || dy0 != 0 {
			scale = 1 / math.Sqrt(dx0*dx0+dy0*dy0)
		}

		deepest := -1
		depth := 0.0
		for j := (curr + 1) % n; j != next; j = (j + 1) % n {
			dx := float64(c[j].X - p0.X)
			dy := float64(c[j].Y - p0.Y)
			dist := math.Abs(-dy0*dx+dx0*dy) * scale
			if dist > depth {
				depth = dist
				deepest = j
			}
		}

		if deepest >= 0 {
			defects = append(defects, Defect{
				Start: curr,
				End:   next,
				Far:   deepest,
				Depth: int(math.RoundToEven(depth * DefectDepthScale)),
			})
		}
		curr = next
	}

	return defects
}
