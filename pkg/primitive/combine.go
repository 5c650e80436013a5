package primitive

import (
	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/kernel"
	"github.com/dhconnelly/rtreego"
)

// accumulator holds operands queued for a deferred combine. Operands
// whose bounds overlap an earlier one must be unioned; the rest are
// grouped.
type accumulator struct {
	unions []*Primitive
	groups []*Primitive

	index     *rtreego.Rtree
	unbounded bool
}

type queued struct {
	rect rtreego.Rect
}

func (q *queued) Bounds() rtreego.Rect { return q.rect }

func rectOf(b geom.BBox, pad float64) (rtreego.Rect, bool) {
	if b.IsEmpty() || !b.IsBounded() {
		return rtreego.Rect{}, false
	}
	b = b.Pad(pad)
	r, err := rtreego.NewRectFromPoints(
		rtreego.Point{b.Min.X, b.Min.Y, b.Min.Z},
		rtreego.Point{b.Max.X, b.Max.Y, b.Max.Z},
	)
	return r, err == nil
}

func (a *accumulator) empty() bool {
	return len(a.unions) == 0 && len(a.groups) == 0
}

// add queues o. When join is false the queue is chosen by overlap with
// seed and the operands already queued.
func (a *accumulator) add(seed, o *Primitive, join bool) {
	if a.index == nil {
		a.index = rtreego.NewTree(3, 4, 16)
	}
	b := o.Bounds()
	pad := o.tolerance()
	r, bounded := rectOf(b, pad)
	if !join {
		switch {
		case b.IsEmpty():
		case !bounded || a.unbounded:
			join = true
		case seed.Bounds().Overlaps(b):
			join = true
		default:
			join = len(a.index.SearchIntersect(r)) > 0
		}
	}
	if bounded {
		a.index.Insert(&queued{rect: r})
	} else if !b.IsEmpty() {
		a.unbounded = true
	}
	if join {
		a.unions = append(a.unions, o)
	} else {
		a.groups = append(a.groups, o)
	}
}

func (a accumulator) clone() accumulator {
	c := accumulator{
		unions:    append([]*Primitive(nil), a.unions...),
		groups:    append([]*Primitive(nil), a.groups...),
		unbounded: a.unbounded,
	}
	if a.index != nil {
		c.index = rtreego.NewTree(3, 4, 16)
		for _, s := range a.index.SearchIntersect(everything()) {
			c.index.Insert(s)
		}
	}
	return c
}

func everything() rtreego.Rect {
	const big = 1e300
	r, _ := rtreego.NewRectFromPoints(rtreego.Point{-big, -big, -big}, rtreego.Point{big, big, big})
	return r
}

// GroupLater queues o for the next Combine. It is unioned if its bounds
// overlap p or anything already queued, otherwise grouped.
func (p *Primitive) GroupLater(o *Primitive) {
	if o != nil {
		p.acc.add(p, o, false)
	}
}

// JoinLater queues o for the n-ary union of the next Combine.
func (p *Primitive) JoinLater(o *Primitive) {
	if o != nil {
		p.acc.add(p, o, true)
	}
}

// Pending returns the number of queued operands.
func (p *Primitive) Pending() int {
	return len(p.acc.unions) + len(p.acc.groups)
}

// Combine drains the queues: grouped operands are folded pairwise with
// Group, then the result and every queued union operand are joined in one
// n-ary union. With nothing queued p is returned as is.
func (p *Primitive) Combine() (*Primitive, error) {
	if p.acc.empty() {
		return p, nil
	}
	groups, unions := p.acc.groups, p.acc.unions
	p.acc = accumulator{}

	r := p
	var err error
	for _, g := range groups {
		if r, err = r.Group(g); err != nil {
			return nil, err
		}
	}
	return r.unionAll(unions)
}

// unionAll joins others into p with a single kernel call where it can.
// Operands that cannot share the call are folded in one at a time.
func (p *Primitive) unionAll(others []*Primitive) (*Primitive, error) {
	if len(others) == 0 {
		return p, nil
	}
	r := p
	var batch []*Primitive
	for _, o := range others {
		if r.k != nil && r.kind == Volume && r.solidBacked() && o.solidBacked() && o.kind == Volume {
			batch = append(batch, o)
			continue
		}
		var err error
		if r, err = r.Union(o); err != nil {
			return nil, err
		}
	}
	if len(batch) == 0 {
		return r, nil
	}
	if !r.solidBacked() || r.kind != Volume {
		for _, o := range batch {
			var err error
			if r, err = r.Union(o); err != nil {
				return nil, err
			}
		}
		return r, nil
	}

	solids := make([]kernel.Solid, 0, len(batch)+1)
	for _, q := range append([]*Primitive{r}, batch...) {
		s, err := q.materialize()
		if err != nil {
			return nil, err
		}
		solids = append(solids, s)
	}
	u, err := kernel.Guard("union_all", func() (kernel.Solid, error) { return r.k.UnionAll(solids) })
	if err != nil {
		return nil, r.fail("union_all", err)
	}
	r.setSolid(u)
	for _, o := range batch {
		r.AppendChild(o)
	}
	r.log.Debug().Int("operands", len(solids)).Msg("n-ary union")
	return r, nil
}
