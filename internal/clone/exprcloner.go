package clone

import "jitcore/internal/ir"

// TreeCloner is a deep-copying ir.ExprCloner: it never declines. Real
// front-end expression trees can carry constructs this core has no model
// of (inline array initializers, intrinsics with side tables); a fuller
// cloner would decline on those. This one is enough to exercise the
// mechanics below against the synthetic trees this core builds and tests
// with.
type TreeCloner struct {
	NextID func() int
}

func (t TreeCloner) CloneStatement(stmt *ir.Statement, localToReplace *ir.LocalVar, replacementValue *ir.Node) (*ir.Statement, bool) {
	root := t.cloneNode(stmt.Root, localToReplace, replacementValue)
	return &ir.Statement{ID: t.NextID(), Root: root}, true
}

func (t TreeCloner) cloneNode(n *ir.Node, localToReplace *ir.LocalVar, replacementValue *ir.Node) *ir.Node {
	if n == nil {
		return nil
	}
	if localToReplace != nil && n.Kind == ir.NodeLclVar && n.Lcl == localToReplace {
		return replacementValue
	}
	out := *n
	out.ID = t.NextID()
	out.Op1 = t.cloneNode(n.Op1, localToReplace, replacementValue)
	out.Op2 = t.cloneNode(n.Op2, localToReplace, replacementValue)
	if n.Children != nil {
		out.Children = make([]*ir.Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = t.cloneNode(c, localToReplace, replacementValue)
		}
	}
	return &out
}
