package sim

// DefaultComposedCapacity is the ring buffer size a ComposedState starts with.
const DefaultComposedCapacity = 16

// MoleculeFactory supplies the per-molecule behaviour of a ComposedState.
type MoleculeFactory[T any] interface {
	// Initialize fills in a freshly added molecule. m starts as the zero value.
	Initialize(m *T, time float64)
	// Modify changes a molecule in place.
	Modify(m *T, time float64)
}

// ComposedState is an insertion-ordered collection of individually
// propertied molecules. The front is always the oldest live member.
//
// Members live in a circular buffer with start/end cursors; the population is
// (end - start) mod capacity, so one slot always stays free. The buffer
// doubles when an insertion would fill it and never shrinks during a run.
type ComposedState[T any] struct {
	name            string
	initial         uint64
	factory         MoleculeFactory[T]
	initialCapacity int

	buf        []T
	start, end int
}

// NewComposedState creates a ComposedState with DefaultComposedCapacity.
func NewComposedState[T any](name string, initial uint64, factory MoleculeFactory[T]) *ComposedState[T] {
	return NewComposedStateWithCapacity(name, initial, factory, DefaultComposedCapacity)
}

// NewComposedStateWithCapacity creates a ComposedState whose buffer starts at
// capacity slots (minimum 2).
func NewComposedStateWithCapacity[T any](name string, initial uint64, factory MoleculeFactory[T], capacity int) *ComposedState[T] {
	if capacity < 2 {
		capacity = 2
	}
	return &ComposedState[T]{
		name:            name,
		initial:         initial,
		factory:         factory,
		initialCapacity: capacity,
		buf:             make([]T, capacity),
	}
}

func (s *ComposedState[T]) Name() string             { return s.name }
func (s *ComposedState[T]) InitialCondition() uint64 { return s.initial }

func (s *ComposedState[T]) Num() uint64 {
	if len(s.buf) == 0 {
		return 0
	}
	return uint64((s.end - s.start + len(s.buf)) % len(s.buf))
}

// Capacity returns the current buffer size.
func (s *ComposedState[T]) Capacity() int {
	return len(s.buf)
}

// Add appends n molecules at the back, initialising each through the factory.
func (s *ComposedState[T]) Add(ctx *Context, n uint64) error {
	for i := uint64(0); i < n; i++ {
		if s.Num()+1 >= uint64(len(s.buf)) {
			s.grow()
		}
		var zero T
		s.buf[s.end] = zero
		s.factory.Initialize(&s.buf[s.end], ctx.Time)
		s.end = (s.end + 1) % len(s.buf)
	}
	return nil
}

// Remove drops n molecules from the front, oldest first.
func (s *ComposedState[T]) Remove(_ *Context, n uint64) error {
	if num := s.Num(); n > num {
		return &UnderflowError{State: s.name, Available: num, Requested: n}
	}
	var zero T
	for i := uint64(0); i < n; i++ {
		s.buf[s.start] = zero
		s.start = (s.start + 1) % len(s.buf)
	}
	return nil
}

// Modify applies the factory's Modify to one uniformly chosen member.
func (s *ComposedState[T]) Modify(ctx *Context) error {
	num := s.Num()
	if num == 0 {
		return &UnderflowError{State: s.name, Available: 0, Requested: 1}
	}
	idx := ctx.RNG.Intn(int(num))
	s.factory.Modify(s.at(idx), ctx.Time)
	return nil
}

// ModifyN applies the factory's Modify to n distinct members chosen
// uniformly. Draws a partial Fisher-Yates shuffle over logical indices, one
// Intn per member, so n=1 consumes the same draw as Modify.
func (s *ComposedState[T]) ModifyN(ctx *Context, n uint64) error {
	num := s.Num()
	if n > num {
		return &UnderflowError{State: s.name, Available: num, Requested: n}
	}
	// sparse permutation: only swapped positions are stored
	perm := make(map[int]int, 2*n)
	slot := func(i int) int {
		if v, ok := perm[i]; ok {
			return v
		}
		return i
	}
	for i := 0; i < int(n); i++ {
		j := i + ctx.RNG.Intn(int(num)-i)
		pick := slot(j)
		perm[j] = slot(i)
		s.factory.Modify(s.at(pick), ctx.Time)
	}
	return nil
}

// Front returns the oldest member.
func (s *ComposedState[T]) Front() (T, bool) {
	if s.Num() == 0 {
		var zero T
		return zero, false
	}
	return s.buf[s.start], true
}

// PopFront removes and returns the oldest member.
func (s *ComposedState[T]) PopFront() (T, error) {
	front, ok := s.Front()
	if !ok {
		return front, &UnderflowError{State: s.name, Available: 0, Requested: 1}
	}
	return front, s.Remove(nil, 1)
}

// Members returns a copy of the population, front to back.
func (s *ComposedState[T]) Members() []T {
	num := int(s.Num())
	out := make([]T, num)
	for i := 0; i < num; i++ {
		out[i] = *s.at(i)
	}
	return out
}

func (s *ComposedState[T]) Initialize(ctx *Context) error {
	capacity := s.initialCapacity
	for uint64(capacity) <= s.initial {
		capacity *= 2
	}
	s.buf = make([]T, capacity)
	s.start, s.end = 0, 0
	return s.Add(ctx, s.initial)
}

func (s *ComposedState[T]) Uninitialize() {
	s.buf = make([]T, s.initialCapacity)
	s.start, s.end = 0, 0
}

// at returns the member at logical index i, 0 being the front.
func (s *ComposedState[T]) at(i int) *T {
	return &s.buf[(s.start+i)%len(s.buf)]
}

// grow doubles the buffer, laying members out from index 0 in order.
func (s *ComposedState[T]) grow() {
	num := int(s.Num())
	next := make([]T, 2*len(s.buf))
	for i := 0; i < num; i++ {
		next[i] = *s.at(i)
	}
	s.buf = next
	s.start, s.end = 0, num
}
