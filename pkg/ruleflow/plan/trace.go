package plan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/randalmurphal/ruleflow/pkg/ruleflow/types"
)

// Trace renders the plan's subexpression map and operator maps as stable,
// line-oriented text.
func (p *Plan) Trace() string {
	var b strings.Builder
	fmt.Fprintf(&b, "expression: %s\n", p.Text)
	fmt.Fprintf(&b, "schema: %s\n", p.Fingerprint)

	b.WriteString("subexpressions:\n")
	for _, id := range p.SortedIDs {
		fmt.Fprintf(&b, "  %s: %s\n", id, p.chainText(p.Subexpressions[id]))
	}
	fmt.Fprintf(&b, "sorted ids: %s\n", strings.Join(p.SortedIDs, " "))

	b.WriteString("intra-group ops:")
	if len(p.IntraGroupOps) == 0 {
		b.WriteString(" none\n")
	} else {
		b.WriteString("\n")
		for _, k := range sortedGroups(p.IntraGroupOps) {
			fmt.Fprintf(&b, "  %d: %s\n", k, p.IntraGroupOps[k])
		}
	}

	b.WriteString("inter-group ops:")
	if len(p.InterGroupOps) == 0 {
		b.WriteString(" none\n")
	} else {
		for _, op := range p.InterGroupOps {
			b.WriteString(" " + op.String())
		}
		b.WriteString("\n")
	}

	b.WriteString("multi-level groups:")
	if len(p.MultiLevelGroups) == 0 {
		b.WriteString(" none\n")
		return b.String()
	}
	b.WriteString("\n")
	for _, k := range sortedGroups(p.MultiLevelGroups) {
		fmt.Fprintf(&b, "  %d:", k)
		for _, id := range p.MultiLevelGroups[k] {
			op := p.IntraMultiLevelOps[id].String()
			if op == "" {
				op = "."
			}
			fmt.Fprintf(&b, " %s(%s)", id, op)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (p *Plan) chainText(c *Chain) string {
	parts := make([]string, len(c.Clauses))
	for i, cl := range c.Clauses {
		parts[i] = p.ClauseText(cl)
	}
	sep := " "
	if c.Op != types.LogicalNone {
		sep = " " + c.Op.String() + " "
	}
	return strings.Join(parts, sep)
}

func sortedGroups[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
