package bsp

import "github.com/chazu/facet/pkg/geom"

// node is one split of a BSP tree. A missing back child is solid space and
// a missing front child is empty space.
type node struct {
	plane    *geom.Plane
	front    *node
	back     *node
	polygons []*polygon
}

func newNode(polygons []*polygon) *node {
	n := &node{}
	if len(polygons) > 0 {
		n.build(polygons)
	}
	return n
}

// invert swaps solid and empty space.
func (n *node) invert() {
	for _, p := range n.polygons {
		p.flip()
	}
	if n.plane != nil {
		f := n.plane.Flip()
		n.plane = &f
	}
	if n.front != nil {
		n.front.invert()
	}
	if n.back != nil {
		n.back.invert()
	}
	n.front, n.back = n.back, n.front
}

// clipPolygons removes the parts of polygons that lie inside this tree.
func (n *node) clipPolygons(polygons []*polygon) []*polygon {
	if n.plane == nil {
		return append([]*polygon(nil), polygons...)
	}
	var fronts, backs []*polygon
	for _, p := range polygons {
		splitPolygon(*n.plane, p, &fronts, &backs, &fronts, &backs)
	}
	if n.front != nil {
		fronts = n.front.clipPolygons(fronts)
	}
	if n.back != nil {
		backs = n.back.clipPolygons(backs)
	} else {
		backs = nil
	}
	return append(fronts, backs...)
}

// clipTo removes every polygon of this tree that lies inside other.
func (n *node) clipTo(other *node) {
	n.polygons = other.clipPolygons(n.polygons)
	if n.front != nil {
		n.front.clipTo(other)
	}
	if n.back != nil {
		n.back.clipTo(other)
	}
}

func (n *node) allPolygons() []*polygon {
	out := append([]*polygon(nil), n.polygons...)
	if n.front != nil {
		out = append(out, n.front.allPolygons()...)
	}
	if n.back != nil {
		out = append(out, n.back.allPolygons()...)
	}
	return out
}

// build inserts polygons into the tree, splitting them at each plane.
func (n *node) build(polygons []*polygon) {
	if len(polygons) == 0 {
		return
	}
	if n.plane == nil {
		pl := polygons[0].plane
		n.plane = &pl
	}
	var fronts, backs []*polygon
	for _, p := range polygons {
		splitPolygon(*n.plane, p, &n.polygons, &n.polygons, &fronts, &backs)
	}
	if len(fronts) > 0 {
		if n.front == nil {
			n.front = &node{}
		}
		n.front.build(fronts)
	}
	if len(backs) > 0 {
		if n.back == nil {
			n.back = &node{}
		}
		n.back.build(backs)
	}
}
