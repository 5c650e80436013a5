package graph

import "testing"

func TestNodeKindNames(t *testing.T) {
	for k := NodeUnion; k <= NodeChildren; k++ {
		name := k.String()
		got, err := ParseNodeKind(name)
		if err != nil {
			t.Fatalf("ParseNodeKind(%q): %v", name, err)
		}
		if got != k {
			t.Errorf("ParseNodeKind(%q) = %v, want %v", name, got, k)
		}
	}
	if _, err := ParseNodeKind("loft"); err == nil {
		t.Error("ParseNodeKind accepted an unknown kind")
	}
	if s := NodeKind(99).String(); s != "NodeKind(99)" {
		t.Errorf("out of range kind = %q", s)
	}
}

func TestReductionOrder(t *testing.T) {
	tests := []struct {
		kind        NodeKind
		commutative bool
		ordered     bool
	}{
		{NodeUnion, true, false},
		{NodeGroup, true, false},
		{NodeDifference, false, true},
		{NodeIntersection, false, true},
		{NodeSymmetricDifference, false, true},
		{NodeMinkowski, false, true},
		{NodeGlide, false, true},
		{NodeTransform, false, false},
		{NodeHull, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := tt.kind.Commutative(); got != tt.commutative {
				t.Errorf("Commutative() = %v, want %v", got, tt.commutative)
			}
			if got := tt.kind.Ordered(); got != tt.ordered {
				t.Errorf("Ordered() = %v, want %v", got, tt.ordered)
			}
		})
	}
}

func TestWalk(t *testing.T) {
	a := New(NodePoints, PointsData{}).Named("a")
	b := New(NodePoints, PointsData{}).Named("b")
	c := New(NodePoints, PointsData{}).Named("c")
	root := New(NodeUnion, nil, New(NodeGroup, nil, a, b).Named("g"), c).Named("root")

	var order []string
	Walk(root, func(n *Node) bool {
		order = append(order, n.Name)
		return n.Name != "g"
	})
	want := []string{"root", "g", "c"}
	if len(order) != len(want) {
		t.Fatalf("visited %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("visit %d = %q, want %q", i, order[i], want[i])
		}
	}
	if n := Count(root); n != 5 {
		t.Errorf("Count = %d, want 5", n)
	}
}
