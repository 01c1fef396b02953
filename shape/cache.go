package shape

// Cache interns decoded shapes by key so repeated keys decode once.
type Cache struct {
	items       []Shape
	itemIndices map[string]int
	maxCapacity int
}

func NewCache(capacity int) *Cache {
	return &Cache{
		itemIndices: make(map[string]int),
		maxCapacity: capacity,
	}
}

func (c *Cache) GetIndex(key string) (int, bool) {
	index, ok := c.itemIndices[key]
	return index, ok
}

func (c *Cache) GetItem(index int) *Shape {
	return &c.items[index]
}

func (c *Cache) Len() int {
	return len(c.items)
}

// Register stores s under its key and returns its index.
func (c *Cache) Register(s Shape) (int, error) {
	key := Hash(s)
	if idx, ok := c.itemIndices[key]; ok {
		return idx, nil
	}
	if len(c.items) >= c.maxCapacity {
		return -1, CacheFullError{Capacity: c.maxCapacity}
	}
	idx := len(c.items)
	c.itemIndices[key] = idx
	c.items = append(c.items, s)
	return idx, nil
}

// Intern decodes key at most once while the cache has room. Shapes are values, so each
// call hands out its own pointer.
func (c *Cache) Intern(key string) (*Shape, error) {
	if idx, ok := c.itemIndices[key]; ok {
		s := c.items[idx]
		return &s, nil
	}
	s, err := Decode(key)
	if err != nil {
		return nil, err
	}
	// a full cache only stops remembering
	_, _ = c.Register(s)
	return &s, nil
}

func (c *Cache) Clear() {
	c.items = c.items[:0]
	c.itemIndices = make(map[string]int)
}
