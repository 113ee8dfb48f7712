/*
Package ruleflow evaluates boolean predicates over typed records.

# Overview

A predicate is text such as

	price > 100.0 && symbol == "IBM"
	(tags contains "urgent" || priority >= 3) && (owner equalsCI "ops")
	items[0].{ qty > 1 && sku startsWith "A-" }

validated against a record's schema, compiled into an evaluation plan,
cached by its text, and evaluated with short-circuiting logic.

# Basic Usage

	engine := ruleflow.New(ruleflow.WithLogger(logger))

	rec := record.MustFromMap(map[string]any{
	    "price":  150.5,
	    "symbol": "IBM",
	})

	ok, err := engine.EvaluatePredicate(ctx, `price > 100.0 && symbol == "IBM"`, rec, false)
	if err != nil {
	    log.Printf("failed: %s", ruleflow.CodeOf(err))
	}

# Grammar

Clauses compare an attribute path, optionally indexed or keyed, with a
literal:

	counts[2] % 5 == 0          arithmetic composite
	limits["eu"] <= 12.5        map value by key
	name containsCI "straße"    case-insensitive substring
	tags sizeGE 2               collection size
	symbol inCI ["ibm", "msft"] membership in a literal list

Clauses are joined by && or ||. A chain of clauses uses one operator.
Parentheses group chains; either every top-level unit is parenthesized or
none is, and members of one group are joined by one operator.

# Plan Cache

Each Engine owns one cache keyed by expression text. Entries are never
evicted. A cached plan is bound to the schema layout it was validated
against: evaluating the same text against a record with a different
layout fails with SCHEMA_MISMATCH_IN_CACHE instead of rebuilding.

# Errors

Every failure carries a stable ErrorCode, available through CodeOf:

  - validation codes (bad syntax, unknown attribute, operator not valid for
    the attribute's type); nothing is cached
  - SCHEMA_MISMATCH_IN_CACHE
  - runtime codes (DIVIDE_BY_ZERO, INVALID_INDEX, INVALID_KEY,
    INVALID_LITERAL_FOR_TYPE); the cached plan stays usable

A literal that does not fit its attribute, as in b == "x" for an int32 b,
is reported only if that clause is reached. WithStrictLiterals reports it
at validation instead.

# Observability

WithLogger, WithMetrics and WithTracing attach slog logging and
OpenTelemetry metrics and spans. Passing traced=true to EvaluatePredicate
logs the plan and each evaluated clause at Info.
*/
package ruleflow
