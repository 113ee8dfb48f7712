// Package plan defines the evaluation plan: the validated, schema-bound form
// of a predicate expression.
//
// A plan holds a tree of groups whose leaves are clause chains
// (subexpressions). Every chain carries a dotted id that encodes its
// position: the first level numbers the top-level group, the second the
// member within that group, and further levels the members of nested
// groups. Alongside the tree the plan keeps flat maps keyed by id (the
// subexpression map, intra-group, inter-group and multi-level operator
// maps) which Trace renders for diagnostics.
//
// Plans are produced by the parser package, stored by the cache package and
// executed by the eval package.
package plan
