package shape

// MaxLayers is the tallest stack a shape may have.
const MaxLayers = 4

// QuadrantsPerLayer is fixed; quadrants are numbered clockwise from the top right.
const QuadrantsPerLayer = 4

// Kind identifies the outline of a quadrant.
type Kind byte

const (
	Circle    Kind = 'C'
	Rectangle Kind = 'R'
	Star      Kind = 'S'
	Windmill  Kind = 'W'
)

// Color identifies the paint of a quadrant. Uncolored is a real color, not an absence.
type Color byte

const (
	Red       Color = 'r'
	Green     Color = 'g'
	Blue      Color = 'b'
	Yellow    Color = 'y'
	Purple    Color = 'p'
	Cyan      Color = 'c'
	White     Color = 'w'
	Uncolored Color = 'u'
)

// ValidKind reports whether b is in the kind alphabet.
func ValidKind(b byte) bool {
	switch Kind(b) {
	case Circle, Rectangle, Star, Windmill:
		return true
	}
	return false
}

// ValidColor reports whether b is in the color alphabet, uncolored included.
func ValidColor(b byte) bool {
	switch Color(b) {
	case Red, Green, Blue, Yellow, Purple, Cyan, White, Uncolored:
		return true
	}
	return false
}

// Quadrant is either empty (the zero value) or a kind/color pair.
type Quadrant struct {
	Kind  Kind
	Color Color
}

func (q Quadrant) Empty() bool {
	return q.Kind == 0
}

// Painted reports whether the quadrant is filled with a color other than Uncolored.
func (q Quadrant) Painted() bool {
	return !q.Empty() && q.Color != Uncolored
}

// Layer is one horizontal slice of a shape.
type Layer [QuadrantsPerLayer]Quadrant

func (l Layer) Empty() bool {
	for _, q := range l {
		if !q.Empty() {
			return false
		}
	}
	return true
}

// Shape is an immutable stack of one to MaxLayers layers, lowest layer first.
// Shapes are comparable with ==; two shapes are equal iff their keys are equal.
type Shape struct {
	layers [MaxLayers]Layer
	count  int
}

// New builds a shape from its layers, bottom first.
func New(layers ...Layer) (Shape, error) {
	var s Shape
	if len(layers) == 0 {
		return s, &MalformedKeyError{Reason: "shape has no layers"}
	}
	if len(layers) > MaxLayers {
		return s, &MalformedKeyError{Reason: "too many layers"}
	}
	for i, l := range layers {
		if l.Empty() {
			return s, &MalformedKeyError{Reason: "layer is empty", Offset: i * layerStride}
		}
		for j, q := range l {
			if q.Empty() {
				l[j] = Quadrant{}
				continue
			}
			if !ValidKind(byte(q.Kind)) {
				return s, &MalformedKeyError{Reason: "unknown kind", Offset: kindOffset(i, j)}
			}
			if !ValidColor(byte(q.Color)) {
				return s, &MalformedKeyError{Reason: "unknown color", Offset: colorOffset(i, j)}
			}
		}
		s.layers[i] = l
	}
	s.count = len(layers)
	return s, nil
}

// Layers returns the number of layers.
func (s Shape) Layers() int {
	return s.count
}

// Layer returns layer i, bottom first.
func (s Shape) Layer(i int) Layer {
	return s.layers[i]
}

// Top returns the highest layer.
func (s Shape) Top() Layer {
	return s.layers[s.count-1]
}

// Quadrant returns quadrant q of layer i.
func (s Shape) Quadrant(i, q int) Quadrant {
	return s.layers[i][q]
}

// Key returns the canonical short key.
func (s Shape) Key() string {
	return Encode(s)
}

func (s Shape) String() string {
	return Encode(s)
}

// Equal compares by canonical key.
func (s Shape) Equal(o Shape) bool {
	return Hash(s) == Hash(o)
}

// RotateCW turns every layer a quarter clockwise.
func (s Shape) RotateCW() Shape {
	out := s
	for i := 0; i < s.count; i++ {
		for q := 0; q < QuadrantsPerLayer; q++ {
			out.layers[i][(q+1)%QuadrantsPerLayer] = s.layers[i][q]
		}
	}
	return out
}

// RotateCCW turns every layer a quarter counter-clockwise.
func (s Shape) RotateCCW() Shape {
	out := s
	for i := 0; i < s.count; i++ {
		for q := 0; q < QuadrantsPerLayer; q++ {
			out.layers[i][q] = s.layers[i][(q+1)%QuadrantsPerLayer]
		}
	}
	return out
}
