package shape

import "strings"

const (
	// LayerSeparator joins layer blocks in a short key.
	LayerSeparator = ':'
	// EmptyChar fills both characters of an empty quadrant.
	EmptyChar = '-'

	layerLen    = QuadrantsPerLayer * 2
	layerStride = layerLen + 1
)

func kindOffset(layer, quadrant int) int {
	return layer*layerStride + quadrant*2
}

func colorOffset(layer, quadrant int) int {
	return kindOffset(layer, quadrant) + 1
}

// Decode parses a canonical short key such as "CuRuSuWu:--Cr----".
func Decode(key string) (Shape, error) {
	var s Shape
	if key == "" {
		return s, &MalformedKeyError{Key: key, Reason: "empty key"}
	}
	blocks := strings.Split(key, string(LayerSeparator))
	if len(blocks) > MaxLayers {
		return s, &MalformedKeyError{Key: key, Offset: MaxLayers * layerStride, Reason: "more than 4 layers"}
	}
	for i, block := range blocks {
		if len(block) != layerLen {
			return s, &MalformedKeyError{Key: key, Offset: i * layerStride, Reason: "layer block is not 8 characters"}
		}
		var layer Layer
		for q := 0; q < QuadrantsPerLayer; q++ {
			k, c := block[q*2], block[q*2+1]
			switch {
			case k == EmptyChar && c == EmptyChar:
				continue
			case k == EmptyChar || c == EmptyChar:
				return s, &MalformedKeyError{Key: key, Offset: kindOffset(i, q), Reason: "half empty quadrant"}
			case !ValidKind(k):
				return s, &MalformedKeyError{Key: key, Offset: kindOffset(i, q), Reason: "unknown kind"}
			case !ValidColor(c):
				return s, &MalformedKeyError{Key: key, Offset: colorOffset(i, q), Reason: "unknown color"}
			}
			layer[q] = Quadrant{Kind: Kind(k), Color: Color(c)}
		}
		if layer.Empty() {
			return s, &MalformedKeyError{Key: key, Offset: i * layerStride, Reason: "layer is empty"}
		}
		s.layers[i] = layer
	}
	s.count = len(blocks)
	return s, nil
}

// MustDecode is Decode for keys known at compile time.
func MustDecode(key string) Shape {
	s, err := Decode(key)
	if err != nil {
		panic(err)
	}
	return s
}

// Encode returns the canonical short key, lowest layer first.
func Encode(s Shape) string {
	if s.count == 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(s.count*layerStride - 1)
	for i := 0; i < s.count; i++ {
		if i > 0 {
			b.WriteByte(LayerSeparator)
		}
		for _, q := range s.layers[i] {
			if q.Empty() {
				b.WriteByte(EmptyChar)
				b.WriteByte(EmptyChar)
				continue
			}
			b.WriteByte(byte(q.Kind))
			b.WriteByte(byte(q.Color))
		}
	}
	return b.String()
}

// Hash is the equality and lookup key of a shape: its canonical encoding.
func Hash(s Shape) string {
	return Encode(s)
}
