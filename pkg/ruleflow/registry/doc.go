// Package registry provides a generic, insertion-ordered, thread-safe map.
//
// Rule sets keep their rules in a Registry so that rules are listed and
// evaluated in the order they were declared, while lookups by name stay
// constant time:
//
//	rules := registry.New[string, ruleset.Rule]()
//	if err := rules.Add("high-value", rule); errors.Is(err, registry.ErrDuplicate) {
//	    // two rules share a name
//	}
//	rules.Range(func(name string, r ruleset.Rule) bool {
//	    fmt.Println(name)
//	    return true
//	})
//
// All methods are safe for concurrent use. Range iterates over a snapshot.
package registry
