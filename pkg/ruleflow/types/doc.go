/*
Package types defines the value model shared by every ruleflow stage.

# Type Tags

A TypeTag is one of the scalar kinds (bool, int32, uint32, int64, uint64,
float32, float64, string) or a collection: set<T>, list<T>, map<K,V> with
scalar elements, or list<record> carrying the element Schema.

# Values

Value is a tagged union. Collections carry their elements as Values, sets and
maps keep a canonical-key index so membership does not depend on float
equality:

	tags := types.NewList(types.String, types.NewString("low"), types.NewString("urgent"))
	tags.Contains(types.NewString("urgent")) // true

# Schemas

Schema is an ordered, flattened mapping from dotted attribute path to
TypeTag. Its Fingerprint identifies the layout and is what the plan cache
compares on reuse.

# Operators

Operator and LogicalOp enumerate clause and connective operators. Compatible
is the operator table: it decides which operators an attribute of a given
type accepts.
*/
package types
