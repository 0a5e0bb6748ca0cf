package graph

import (
	"errors"
	"hash/fnv"
	"math"
	"strings"
)

// Physics holds force-directed simulation parameters.
// Defaults mirror the browser graph so both surfaces settle alike.
type Physics struct {
	GravitationalConstant float64
	CentralGravity        float64
	SpringLength          float64
	SpringConstant        float64
	Damping               float64
	MinVelocity           float64
	MaxVelocity           float64
	Timestep              float64
	MaxIterations         int
}

// DefaultPhysics returns the barnes-hut style defaults used by pcapview.
func DefaultPhysics() Physics {
	return Physics{
		GravitationalConstant: -3000,
		CentralGravity:        0.3,
		SpringLength:          95,
		SpringConstant:        0.04,
		Damping:               0.09,
		MinVelocity:           0.75,
		MaxVelocity:           50,
		Timestep:              0.5,
		MaxIterations:         1000,
	}
}

// ForceLayout is a Renderer that lays nodes out with a force simulation.
type ForceLayout struct {
	Physics Physics
}

// NewForceLayout returns a layout with default physics.
func NewForceLayout() *ForceLayout {
	return &ForceLayout{Physics: DefaultPhysics()}
}

// Render seeds a simulation for d. Seeding is deterministic in node ids.
func (f *ForceLayout) Render(d Data) (Instance, error) {
	if len(d.Nodes) == 0 {
		return nil, errors.New("no nodes to lay out")
	}

	sim := &Simulation{
		physics: f.Physics,
		nodes:   d.Nodes,
		pos:     make([]Point, len(d.Nodes)),
		vel:     make([]Point, len(d.Nodes)),
		index:   make(map[string]int, len(d.Nodes)),
	}
	for i, n := range d.Nodes {
		sim.index[n.ID] = i
	}
	for _, e := range d.Edges {
		a, okA := sim.index[e.From]
		b, okB := sim.index[e.To]
		if okA && okB && a != b {
			sim.springs = append(sim.springs, [2]int{a, b})
		}
	}

	radius := f.Physics.SpringLength * math.Sqrt(float64(len(d.Nodes)))
	for i, n := range d.Nodes {
		h := fnv.New64a()
		h.Write([]byte(n.ID))
		v := h.Sum64()
		angle := float64(v%3600) / 3600 * 2 * math.Pi
		r := radius * (0.5 + float64((v>>16)%1000)/2000)
		sim.pos[i] = Point{X: r * math.Cos(angle), Y: r * math.Sin(angle)}
	}
	return sim, nil
}

// Point is a 2D position or velocity.
type Point struct {
	X, Y float64
}

// Simulation is a running layout. It is advanced by Step and is not
// safe for concurrent use.
type Simulation struct {
	physics    Physics
	nodes      []EnrichedNode
	index      map[string]int
	springs    [][2]int
	pos        []Point
	vel        []Point
	iterations int
	stable     bool
	destroyed  bool
}

// Step advances the simulation one tick. It returns false once the layout
// is stable, the iteration cap is reached, or the simulation was destroyed.
func (s *Simulation) Step() bool {
	if s.destroyed || s.stable {
		return false
	}
	p := s.physics
	n := len(s.nodes)
	force := make([]Point, n)

	// repulsion, every pair
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx := s.pos[j].X - s.pos[i].X
			dy := s.pos[j].Y - s.pos[i].Y
			dist := math.Hypot(dx, dy)
			if dist < 0.1 {
				dist = 0.1
				dx = 0.1
			}
			g := p.GravitationalConstant / (dist * dist * dist)
			force[i].X += dx * g
			force[i].Y += dy * g
			force[j].X -= dx * g
			force[j].Y -= dy * g
		}
	}

	// springs along edges
	for _, sp := range s.springs {
		a, b := sp[0], sp[1]
		dx := s.pos[b].X - s.pos[a].X
		dy := s.pos[b].Y - s.pos[a].Y
		dist := math.Max(math.Hypot(dx, dy), 0.01)
		k := p.SpringConstant * (dist - p.SpringLength) / dist
		force[a].X += dx * k
		force[a].Y += dy * k
		force[b].X -= dx * k
		force[b].Y -= dy * k
	}

	// central gravity, constant magnitude toward the origin
	for i := 0; i < n; i++ {
		dist := math.Hypot(s.pos[i].X, s.pos[i].Y)
		if dist == 0 {
			continue
		}
		g := p.CentralGravity / dist
		force[i].X -= s.pos[i].X * g
		force[i].Y -= s.pos[i].Y * g
	}

	maxV := 0.0
	for i := 0; i < n; i++ {
		s.vel[i].X = clamp(s.vel[i].X+(force[i].X-p.Damping*s.vel[i].X)*p.Timestep, p.MaxVelocity)
		s.vel[i].Y = clamp(s.vel[i].Y+(force[i].Y-p.Damping*s.vel[i].Y)*p.Timestep, p.MaxVelocity)
		s.pos[i].X += s.vel[i].X * p.Timestep
		s.pos[i].Y += s.vel[i].Y * p.Timestep
		maxV = math.Max(maxV, math.Hypot(s.vel[i].X, s.vel[i].Y))
	}

	s.iterations++
	if maxV < p.MinVelocity || s.iterations >= p.MaxIterations {
		s.stable = true
	}
	return !s.stable
}

// Stabilize steps until the layout settles or the iteration cap is hit.
func (s *Simulation) Stabilize() int {
	for s.Step() {
	}
	return s.iterations
}

// Destroy stops the simulation. Further Step calls are no-ops.
func (s *Simulation) Destroy() {
	s.destroyed = true
	s.springs = nil
	s.vel = nil
}

// Destroyed reports whether Destroy was called.
func (s *Simulation) Destroyed() bool { return s.destroyed }

// Stable reports whether the simulation has stopped moving.
func (s *Simulation) Stable() bool { return s.stable }

// Iterations returns the number of steps taken.
func (s *Simulation) Iterations() int { return s.iterations }

// Nodes returns the nodes in layout order.
func (s *Simulation) Nodes() []EnrichedNode { return s.nodes }

// Position returns the current position of the node with id.
func (s *Simulation) Position(id string) (Point, bool) {
	i, ok := s.index[id]
	if !ok {
		return Point{}, false
	}
	return s.pos[i], true
}

// Plot draws the layout into a width x height character grid.
// Internal hosts are 'o', external hosts '@', the selected node '*',
// edges are dotted.
func (s *Simulation) Plot(width, height int, selected string) string {
	if width < 2 || height < 2 || len(s.nodes) == 0 {
		return ""
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range s.pos {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	spanX := math.Max(maxX-minX, 1)
	spanY := math.Max(maxY-minY, 1)

	cell := func(p Point) (int, int) {
		cx := int(math.Round((p.X - minX) / spanX * float64(width-1)))
		cy := int(math.Round((p.Y - minY) / spanY * float64(height-1)))
		return cx, cy
	}

	grid := make([][]rune, height)
	for y := range grid {
		grid[y] = []rune(strings.Repeat(" ", width))
	}

	for _, sp := range s.springs {
		x0, y0 := cell(s.pos[sp[0]])
		x1, y1 := cell(s.pos[sp[1]])
		line(x0, y0, x1, y1, func(x, y int) {
			if grid[y][x] == ' ' {
				grid[y][x] = '·'
			}
		})
	}

	for i, n := range s.nodes {
		x, y := cell(s.pos[i])
		switch {
		case n.ID == selected:
			grid[y][x] = '*'
		case n.External():
			grid[y][x] = '@'
		default:
			grid[y][x] = 'o'
		}
	}

	rows := make([]string, height)
	for y := range grid {
		rows[y] = string(grid[y])
	}
	return strings.Join(rows, "\n")
}

// line walks the cells between two points (Bresenham).
func line(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}
