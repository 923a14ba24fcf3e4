// Package nbody propagates a set of bodies under mutual gravity using a
// Barnes–Hut octree and an explicit Euler step.
package nbody

import (
	"math"

	"github.com/litescript/ls-orbits/internal/astro"
	"github.com/litescript/ls-orbits/internal/orbit"
)

// maxDepth stops subdivision when bodies coincide; deeper nodes keep
// several bodies in one leaf.
const maxDepth = 48

// octant indices; bit 0 is +x, bit 1 is +y, bit 2 is +z.
const numOctants = 8

// Tree is one cubic node of a Barnes–Hut octree.
type Tree struct {
	origin astro.Vec3
	side   float64
	depth  int

	bodies   []*Body
	center   astro.Vec3 // centre of mass
	mass     float64
	children [numOctants]*Tree
}

// NewTree creates an empty node covering the cube [origin, origin+side)³.
func NewTree(origin astro.Vec3, side float64) *Tree {
	return &Tree{origin: origin, side: side}
}

// BuildTree returns a tree over the smallest cube containing every body.
func BuildTree(bs []*Body) *Tree {
	if len(bs) == 0 {
		return NewTree(astro.Vec3{}, 1)
	}
	lo, hi := bs[0].Position, bs[0].Position
	for _, b := range bs[1:] {
		p := b.Position
		lo = astro.Vec3{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y), Z: math.Min(lo.Z, p.Z)}
		hi = astro.Vec3{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y), Z: math.Max(hi.Z, p.Z)}
	}
	side := math.Max(hi.X-lo.X, math.Max(hi.Y-lo.Y, hi.Z-lo.Z))
	if side == 0 {
		side = 1
	}
	// Pad so bodies on the upper faces land inside.
	side *= 1 + 1e-9

	t := NewTree(lo, side)
	for _, b := range bs {
		t.Insert(b)
	}
	return t
}

// Mass returns the total mass held by the node.
func (t *Tree) Mass() float64 { return t.mass }

// CenterOfMass returns the mass-weighted mean position of the node.
func (t *Tree) CenterOfMass() astro.Vec3 { return t.center }

// Len returns the number of bodies held by the node.
func (t *Tree) Len() int { return len(t.bodies) }

// isLeaf reports whether the node has no children.
func (t *Tree) isLeaf() bool {
	for _, c := range t.children {
		if c != nil {
			return false
		}
	}
	return true
}

// Insert adds a body to the node, subdividing as needed.
func (t *Tree) Insert(b *Body) {
	t.bodies = append(t.bodies, b)

	// Centre of mass is updated before the total mass.
	if len(t.bodies) == 1 {
		t.center = b.Position
	} else {
		total := t.mass + b.MassKg
		t.center = t.center.Scale(t.mass).Add(b.Position.Scale(b.MassKg)).Scale(1 / total)
	}
	t.mass += b.MassKg

	if len(t.bodies) < 2 || t.depth >= maxDepth {
		return
	}
	if len(t.bodies) == 2 {
		t.child(t.bodies[0]).Insert(t.bodies[0])
	}
	t.child(b).Insert(b)
}

// child returns the octant node for b, creating it when absent.
func (t *Tree) child(b *Body) *Tree {
	half := t.side / 2
	idx := 0
	origin := t.origin
	if b.Position.X >= t.origin.X+half {
		idx |= 1
		origin.X += half
	}
	if b.Position.Y >= t.origin.Y+half {
		idx |= 2
		origin.Y += half
	}
	if b.Position.Z >= t.origin.Z+half {
		idx |= 4
		origin.Z += half
	}
	if t.children[idx] == nil {
		t.children[idx] = &Tree{origin: origin, side: half, depth: t.depth + 1}
	}
	return t.children[idx]
}

// Force returns the gravitational force in kN exerted on b by the bodies in
// the node. Nodes whose side/distance ratio is under theta are treated as a
// single point mass; theta = 0 gives direct summation. A body exerts no
// force on itself.
func (t *Tree) Force(b *Body, theta float64) astro.Vec3 {
	if len(t.bodies) == 0 {
		return astro.Vec3{}
	}

	if t.isLeaf() {
		var f astro.Vec3
		if len(t.bodies) == 1 {
			if t.bodies[0] == b {
				return f
			}
			return pointForce(b, t.center, t.mass)
		}
		// Coincident bodies collected at max depth.
		for _, other := range t.bodies {
			if other != b {
				f = f.Add(pointForce(b, other.Position, other.MassKg))
			}
		}
		return f
	}

	r := t.center.Sub(b.Position).Norm()
	if r > 0 && t.side/r < theta && !t.contains(b) {
		return pointForce(b, t.center, t.mass)
	}

	var f astro.Vec3
	for _, c := range t.children {
		if c != nil {
			f = f.Add(c.Force(b, theta))
		}
	}
	return f
}

// contains reports whether b lies inside the node's cube. A node holding
// b is always opened so b's own mass never acts on it.
func (t *Tree) contains(b *Body) bool {
	p, o := b.Position, t.origin
	return p.X >= o.X && p.X < o.X+t.side &&
		p.Y >= o.Y && p.Y < o.Y+t.side &&
		p.Z >= o.Z && p.Z < o.Z+t.side
}

// pointForce is the Newtonian force on b from a point mass at pos.
func pointForce(b *Body, pos astro.Vec3, massKg float64) astro.Vec3 {
	d := pos.Sub(b.Position)
	r := d.Norm()
	if r == 0 {
		return astro.Vec3{}
	}
	f := orbit.G * massKg * b.MassKg / (r * r)
	return d.Scale(f / r)
}
