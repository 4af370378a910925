package particle

// Pool is an arena of candidates reused across hypotheses. Particles handed
// out by Get stay valid until the next Release.
type Pool struct {
	items []*Particle
	n     int
}

func NewPool(capacity int) *Pool {
	return &Pool{items: make([]*Particle, 0, capacity)}
}

// Get returns a candidate initialized for the given charge, mass and beta.
func (p *Pool) Get(charge int, mass, beta float64) *Particle {
	if p.n == len(p.items) {
		p.items = append(p.items, &Particle{})
	}
	c := p.items[p.n]
	p.n++
	c.Init(charge, mass, beta)
	return c
}

// Drop returns the most recently handed out candidate to the arena.
func (p *Pool) Drop() {
	if p.n > 0 {
		p.n--
	}
}

func (p *Pool) Len() int { return p.n }

func (p *Pool) At(i int) *Particle { return p.items[i] }

// Release makes every candidate available again.
func (p *Pool) Release() {
	p.n = 0
}
