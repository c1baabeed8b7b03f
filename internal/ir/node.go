// Package ir implements the basic-block and edge model, the EH
// region tree, local-variable and SSA-lifetime descriptors, and
// the tagged-union expression node shape the later passes walk.
package ir

// IDGen hands out ids from one counter per compilation. Blocks made by
// ControlFlowGraph.NewBlock and the statements and nodes TreeCloner copies
// draw from it; edges carry no id, and locals and EH regions are numbered
// by whoever builds them.
type IDGen struct {
	next int
}

// NewIDGen creates an id generator starting at 1; it never hands out 0.
func NewIDGen() *IDGen {
	return &IDGen{next: 1}
}

func (g *IDGen) Next() int {
	id := g.next
	g.next++
	return id
}

// Seen lets the consistency checker verify global id
// uniqueness without assuming every id was minted by the same IDGen (a
// clone operation mints new ids through the same generator, but a checker
// run after a failed partial transform should still catch stragglers).
type Seen struct {
	ids map[int]string // id -> kind, for a useful duplicate diagnostic
}

func NewSeen() *Seen {
	return &Seen{ids: make(map[int]string)}
}

// Mark records id as belonging to kind and reports the previously recorded
// kind if id was already seen (a duplicate), or "" if this is the first
// sighting.
func (s *Seen) Mark(id int, kind string) (previousKind string, duplicate bool) {
	if prev, ok := s.ids[id]; ok {
		return prev, true
	}
	s.ids[id] = kind
	return "", false
}
