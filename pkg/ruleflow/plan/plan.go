package plan

import (
	"fmt"
	"strings"

	"github.com/randalmurphal/ruleflow/pkg/ruleflow/types"
)

// Plan is a validated expression bound to the schema layout it was built
// against. A Plan is immutable after New returns and may be evaluated
// concurrently.
type Plan struct {
	// Text is the expression the plan was built from. RecordRef spans
	// index into it.
	Text        string
	Fingerprint types.Fingerprint

	// Root joins the top-level units with the inter-group operator.
	Root *Node

	// Subexpressions maps every id to its clause chain.
	Subexpressions map[string]*Chain
	// SortedIDs lists the ids in evaluation order.
	SortedIDs []string
	// IntraGroupOps holds the operator joining the members of each
	// top-level group that has more than one member.
	IntraGroupOps map[int]types.LogicalOp
	// InterGroupOps joins consecutive top-level units.
	InterGroupOps []types.LogicalOp
	// MultiLevelGroups lists, for each top-level group nested more than
	// one level deep, all of its ids in order.
	MultiLevelGroups map[int][]string
	// IntraMultiLevelOps records for each id of a multi-level group the
	// operator joining it to its next sibling. The last member of a
	// nested group maps to LogicalNone.
	IntraMultiLevelOps map[string]types.LogicalOp
}

// New finalizes a parse tree into a plan. Each child of root is a
// top-level unit; groups holding a single member are collapsed into that
// member before ids are assigned.
//
// Ids: a bare top-level chain is "1.1"; top-level group k that reduces to
// one chain is "k.1"; otherwise member j of group k is "k.j", and members
// of nested groups extend their parent's id by one level.
func New(text string, fp types.Fingerprint, root *Node) (*Plan, error) {
	if root == nil || root.IsLeaf() || len(root.Children) == 0 {
		return nil, fmt.Errorf("plan root must be a group with at least one member")
	}

	p := &Plan{
		Text:               text,
		Fingerprint:        fp,
		Root:               root,
		Subexpressions:     make(map[string]*Chain),
		IntraGroupOps:      make(map[int]types.LogicalOp),
		MultiLevelGroups:   make(map[int][]string),
		IntraMultiLevelOps: make(map[string]types.LogicalOp),
	}

	for i, child := range root.Children {
		k := i + 1
		child = collapse(child)
		root.Children[i] = child
		if i > 0 {
			p.InterGroupOps = append(p.InterGroupOps, root.Op)
		}

		if child.IsLeaf() {
			if err := p.assign(child, fmt.Sprintf("%d.1", k)); err != nil {
				return nil, err
			}
			continue
		}

		p.IntraGroupOps[k] = child.Op
		var ids []string
		for j, member := range child.Children {
			sub, err := p.assignAll(member, fmt.Sprintf("%d.%d", k, j+1))
			if err != nil {
				return nil, err
			}
			ids = append(ids, sub...)
		}
		if maxDepth(ids) > 2 {
			p.MultiLevelGroups[k] = ids
			p.recordLinks(child)
		}
	}

	for id := range p.Subexpressions {
		p.SortedIDs = append(p.SortedIDs, id)
	}
	SortIDs(p.SortedIDs)
	return p, nil
}

// collapse removes groups that wrap a single member.
func collapse(n *Node) *Node {
	if n.IsLeaf() {
		return n
	}
	for i, c := range n.Children {
		n.Children[i] = collapse(c)
	}
	if len(n.Children) == 1 {
		return n.Children[0]
	}
	return n
}

func (p *Plan) assign(n *Node, id string) error {
	if len(n.Chain.Clauses) == 0 {
		return fmt.Errorf("subexpression %s has no clauses", id)
	}
	if _, dup := p.Subexpressions[id]; dup {
		return fmt.Errorf("duplicate subexpression id %s", id)
	}
	n.Chain.ID = id
	p.Subexpressions[id] = n.Chain
	return nil
}

// assignAll numbers the leaves under n and returns their ids in order.
func (p *Plan) assignAll(n *Node, prefix string) ([]string, error) {
	if n.IsLeaf() {
		return []string{prefix}, p.assign(n, prefix)
	}
	var ids []string
	for m, c := range n.Children {
		sub, err := p.assignAll(c, fmt.Sprintf("%s.%d", prefix, m+1))
		if err != nil {
			return nil, err
		}
		ids = append(ids, sub...)
	}
	return ids, nil
}

// recordLinks stores, for every leaf under group g, the operator to its
// next sibling. A nested group's link is carried by its last leaf.
func (p *Plan) recordLinks(g *Node) {
	for i, c := range g.Children {
		link := types.LogicalNone
		if i < len(g.Children)-1 {
			link = g.Op
		}
		if c.IsLeaf() {
			p.IntraMultiLevelOps[c.Chain.ID] = link
			continue
		}
		p.recordLinks(c)
	}
}

func maxDepth(ids []string) int {
	d := 0
	for _, id := range ids {
		if n := Depth(id); n > d {
			d = n
		}
	}
	return d
}

// ClauseText returns the source text of c: the element predicate for a
// RecordRef clause, the canonical rendering otherwise.
func (p *Plan) ClauseText(c *Clause) string {
	if c.Kind != RecordRef {
		return c.String()
	}
	sel := ""
	if c.Selector != nil {
		sel = "[" + c.SelectorText + "]"
	}
	return c.Path + sel + ".{ " + p.RefText(c) + " }"
}

// RefText returns the element predicate of a RecordRef clause.
func (p *Plan) RefText(c *Clause) string {
	if c.Ref.Start < 0 || c.Ref.End > len(p.Text) || c.Ref.Start > c.Ref.End {
		return ""
	}
	return strings.TrimSpace(p.Text[c.Ref.Start:c.Ref.End])
}

// ClauseCount returns the number of clauses across all subexpressions.
func (p *Plan) ClauseCount() int {
	n := 0
	for _, ch := range p.Subexpressions {
		n += len(ch.Clauses)
	}
	return n
}
