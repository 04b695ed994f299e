package handseg

import (
	"errors"
	"image"

	"gocv.io/x/gocv"
)

// ErrEmptyImage is returned when a stage receives an empty Mat.
var ErrEmptyImage = errors.New("empty image")

// Contour is a closed boundary polyline. Only the vertices where the
// boundary changes direction are kept.
type Contour []image.Point

// HierarchyEntry links a contour to its neighbours in the contour tree.
// A value of -1 means there is no such contour.
type HierarchyEntry struct {
	Next       int `json:"next"`
	Prev       int `json:"prev"`
	FirstChild int `json:"first_child"`
	Parent     int `json:"parent"`
}

// ContourSet holds every outer and nested boundary found in one image.
// Hierarchy[i] describes Contours[i].
type ContourSet struct {
	Contours  []Contour
	Hierarchy []HierarchyEntry
}

// Len returns the number of contours.
func (s ContourSet) Len() int {
	return len(s.Contours)
}

// Outer returns the indices of the top-level contours.
func (s ContourSet) Outer() []int {
	var out []int
	for i, h := range s.Hierarchy {
		if h.Parent < 0 {
			out = append(out, i)
		}
	}
	return out
}

// pointsVector builds a gocv PointsVector. The caller must close it.
func (s ContourSet) pointsVector() gocv.PointsVector {
	pts := make([][]image.Point, len(s.Contours))
	for i, c := range s.Contours {
		pts[i] = c
	}
	return gocv.NewPointsVectorFromPoints(pts)
}

// ExtractContours finds the contour tree of the hand silhouette in an 8-bit
// display image.
//
// Algorithm:
// 1. Box blur (BlurSize x BlurSize) to suppress single-pixel noise left by masking
// 2. Binarize: pixels >= BinaryThreshold become 255, others 0
// 3. Find contours with full hierarchy and simple chain approximation
//
// An image without foreground yields an empty set and no error.
func ExtractContours(display gocv.Mat, params Params) (ContourSet, error) {
	if display.Empty() {
		return ContourSet{}, ErrEmptyImage
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.Blur(display, &blurred, image.Pt(params.BlurSize, params.BlurSize))

	// ThresholdBinary keeps values strictly above thresh; the half step makes
	// the integer threshold inclusive.
	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(blurred, &binary, float32(params.BinaryThreshold)-0.5, 255, gocv.ThresholdBinary)

	hierarchy := gocv.NewMat()
	defer hierarchy.Close()
	contours := gocv.FindContoursWithParams(binary, &hierarchy, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer contours.Close()

	set := ContourSet{
		Contours:  make([]Contour, 0, contours.Size()),
		Hierarchy: make([]HierarchyEntry, 0, contours.Size()),
	}
	for i := 0; i < contours.Size(); i++ {
		set.Contours = append(set.Contours, Contour(contours.At(i).ToPoints()))

		entry := HierarchyEntry{Next: -1, Prev: -1, FirstChild: -1, Parent: -1}
		if !hierarchy.Empty() && i < hierarchy.Cols() {
			v := hierarchy.GetVeciAt(0, i)
			if len(v) == 4 {
				entry = HierarchyEntry{
					Next:       int(v[0]),
					Prev:       int(v[1]),
					FirstChild: int(v[2]),
					Parent:     int(v[3]),
				}
			}
		}
		set.Hierarchy = append(set.Hierarchy, entry)
	}

	return set, nil
}
