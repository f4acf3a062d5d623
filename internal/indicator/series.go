package indicator

import "math"

// Point is one bar's indicator output. Valid is false during warmup.
// Scalar indicators populate Value; multi-value indicators populate Fields.
type Point struct {
	Valid  bool
	Value  float64
	Fields map[string]float64
}

// Series holds one point per input bar for a single descriptor.
type Series struct {
	Descriptor Descriptor
	Points     []Point
}

// newSeries allocates a series of n invalid points.
func newSeries(desc Descriptor, n int) *Series {
	return &Series{
		Descriptor: desc,
		Points:     make([]Point, n),
	}
}

// Len returns the number of points in the series.
func (s *Series) Len() int {
	return len(s.Points)
}

// Valid reports whether the point at index i exists and is past warmup.
func (s *Series) Valid(i int) bool {
	return i >= 0 && i < len(s.Points) && s.Points[i].Valid
}

// Field reads the named field at index i. It returns NaN for out-of-range
// indexes, warmup points and unknown field names, so comparisons against the
// result evaluate false.
func (s *Series) Field(i int, name string) float64 {
	if !s.Valid(i) {
		return math.NaN()
	}

	point := s.Points[i]
	if point.Fields == nil {
		if name == FieldValue || name == "" {
			return point.Value
		}

		return math.NaN()
	}

	value, ok := point.Fields[name]
	if !ok {
		return math.NaN()
	}

	return value
}

// setScalar marks index i valid with a scalar value.
func (s *Series) setScalar(i int, value float64) {
	s.Points[i] = Point{Valid: true, Value: value}
}

// setFields marks index i valid with a multi-field record.
func (s *Series) setFields(i int, fields map[string]float64) {
	s.Points[i] = Point{Valid: true, Fields: fields}
}
