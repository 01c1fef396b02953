package shape

// FilterKind names the structural family a filter was derived from.
type FilterKind string

const (
	FilterColor     FilterKind = "color"
	FilterShape     FilterKind = "shape"
	FilterHole      FilterKind = "hole"
	FilterUncolored FilterKind = "uncolored"
)

// Adjustment is the offset correction used to map a matched character back to its quadrant.
// Color-family matches point at the color character, shape-family matches at the kind character.
func (k FilterKind) Adjustment() int {
	switch k {
	case FilterColor, FilterUncolored:
		return 1
	}
	return 0
}

func (k FilterKind) Valid() bool {
	switch k {
	case FilterColor, FilterShape, FilterHole, FilterUncolored:
		return true
	}
	return false
}

// Match is a predicate hit: the character that matched and its offset in the canonical key.
type Match struct {
	Char   byte
	Offset int
}

// QuadrantIndexForOffset inverts a predicate offset. It only looks at the offset within its layer.
func QuadrantIndexForOffset(offset, adjustment int) int {
	return ((offset % layerStride) - adjustment) / 2
}

// Precedence is the order DeriveFilter tries the predicates in.
var Precedence = []FilterKind{FilterColor, FilterShape, FilterHole, FilterUncolored}

// QuadrantMatchesColorFilter reports whether top quadrant q is the only painted quadrant,
// every other top quadrant being uncolored or empty.
func QuadrantMatchesColorFilter(s Shape, q int) (Match, bool) {
	if !topQuadrantInRange(s, q) {
		return Match{}, false
	}
	top := s.Top()
	if !top[q].Painted() {
		return Match{}, false
	}
	for i, other := range top {
		if i != q && other.Painted() {
			return Match{}, false
		}
	}
	return Match{Char: byte(top[q].Color), Offset: colorOffset(s.count-1, q)}, true
}

// QuadrantMatchesShapeFilter reports whether top quadrant q is the only filled quadrant.
func QuadrantMatchesShapeFilter(s Shape, q int) (Match, bool) {
	if !topQuadrantInRange(s, q) {
		return Match{}, false
	}
	top := s.Top()
	if top[q].Empty() {
		return Match{}, false
	}
	for i, other := range top {
		if i != q && !other.Empty() {
			return Match{}, false
		}
	}
	return Match{Char: byte(top[q].Kind), Offset: kindOffset(s.count-1, q)}, true
}

// QuadrantIsHole reports whether top quadrant q is the only empty quadrant.
func QuadrantIsHole(s Shape, q int) (Match, bool) {
	if !topQuadrantInRange(s, q) {
		return Match{}, false
	}
	top := s.Top()
	if !top[q].Empty() {
		return Match{}, false
	}
	for i, other := range top {
		if i != q && other.Empty() {
			return Match{}, false
		}
	}
	return Match{Char: EmptyChar, Offset: kindOffset(s.count-1, q)}, true
}

// QuadrantIsUncolored reports whether top quadrant q is the only uncolored quadrant,
// every other top quadrant being painted.
func QuadrantIsUncolored(s Shape, q int) (Match, bool) {
	if !topQuadrantInRange(s, q) {
		return Match{}, false
	}
	top := s.Top()
	if top[q].Empty() || top[q].Color != Uncolored {
		return Match{}, false
	}
	for i, other := range top {
		if i != q && !other.Painted() {
			return Match{}, false
		}
	}
	return Match{Char: byte(Uncolored), Offset: colorOffset(s.count-1, q)}, true
}

func topQuadrantInRange(s Shape, q int) bool {
	return s.count > 0 && q >= 0 && q < QuadrantsPerLayer
}

// MatchQuadrant dispatches to the predicate of the given kind.
func MatchQuadrant(kind FilterKind, s Shape, q int) (Match, bool) {
	switch kind {
	case FilterColor:
		return QuadrantMatchesColorFilter(s, q)
	case FilterShape:
		return QuadrantMatchesShapeFilter(s, q)
	case FilterHole:
		return QuadrantIsHole(s, q)
	case FilterUncolored:
		return QuadrantIsUncolored(s, q)
	}
	return Match{}, false
}

// Filter is a latched comparison template derived from a sample shape.
type Filter struct {
	Kind     FilterKind
	Char     byte
	Offset   int
	Template Shape
}

// Quadrant returns the top-layer quadrant the filter looks at.
func (f Filter) Quadrant() int {
	return QuadrantIndexForOffset(f.Offset, f.Kind.Adjustment())
}

// Matches compares the filter against a goal key. Hole and uncolored filters also accept goals
// that have no layer at the filter's offset.
func (f Filter) Matches(goalKey string) bool {
	if f.Offset >= len(goalKey) {
		return f.Kind == FilterHole || f.Kind == FilterUncolored
	}
	return goalKey[f.Offset] == f.Char
}

// DeriveFilter scans the top layer of s and latches the first structural match,
// trying kinds in Precedence order and quadrants in ascending order within each kind.
func DeriveFilter(s Shape) (Filter, bool) {
	for _, kind := range Precedence {
		for q := 0; q < QuadrantsPerLayer; q++ {
			m, ok := MatchQuadrant(kind, s, q)
			if !ok {
				continue
			}
			index := QuadrantIndexForOffset(m.Offset, kind.Adjustment())
			template, err := BuildSingleQuadrantFilterShape(s.count, index, m.Char, kind)
			if err != nil {
				return Filter{}, false
			}
			return Filter{Kind: kind, Char: m.Char, Offset: m.Offset, Template: template}, true
		}
	}
	return Filter{}, false
}

// BuildSingleQuadrantFilterShape builds the comparison template for a filter: one populated
// quadrant at the given index, repeated over layerCount layers. Hole templates invert this and
// leave only that quadrant empty.
func BuildSingleQuadrantFilterShape(layerCount, quadrant int, char byte, kind FilterKind) (Shape, error) {
	bad := &FilterShapeError{LayerCount: layerCount, Quadrant: quadrant, Char: char, Kind: kind}
	if layerCount < 1 || layerCount > MaxLayers || quadrant < 0 || quadrant >= QuadrantsPerLayer {
		return Shape{}, bad
	}
	var layer Layer
	switch kind {
	case FilterColor, FilterUncolored:
		if !ValidColor(char) {
			return Shape{}, bad
		}
		layer[quadrant] = Quadrant{Kind: Circle, Color: Color(char)}
	case FilterShape:
		if !ValidKind(char) {
			return Shape{}, bad
		}
		layer[quadrant] = Quadrant{Kind: Kind(char), Color: Uncolored}
	case FilterHole:
		for i := range layer {
			if i != quadrant {
				layer[i] = Quadrant{Kind: Circle, Color: Uncolored}
			}
		}
	default:
		return Shape{}, bad
	}
	layers := make([]Layer, layerCount)
	for i := range layers {
		layers[i] = layer
	}
	return New(layers...)
}
