package benchmarks

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"testing"

	"github.com/randalmurphal/ruleflow/pkg/ruleflow"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/record"
)

func quietEngine() *ruleflow.Engine {
	return ruleflow.New(ruleflow.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func benchRecord() *record.Map {
	return record.MustFromMap(map[string]any{
		"price":  150.5,
		"symbol": "IBM",
		"counts": []int32{1, 2, 10, 3},
		"tags":   []string{"low", "urgent"},
		"items": []any{
			map[string]any{"sku": "A-1", "qty": int32(2)},
			map[string]any{"sku": "B-7", "qty": int32(0)},
		},
	})
}

// wideExpression builds n clauses joined by &&.
func wideExpression(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "price > " + strconv.Itoa(i) + ".0"
	}
	return strings.Join(parts, " && ")
}

// BenchmarkEvaluate_Warm evaluates an expression whose plan is cached.
func BenchmarkEvaluate_Warm(b *testing.B) {
	e := quietEngine()
	rec := benchRecord()
	ctx := context.Background()
	expr := `price > 100.0 && symbol == "IBM"`
	_, _ = e.EvaluatePredicate(ctx, expr, rec, false)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.EvaluatePredicate(ctx, expr, rec, false)
	}
}

// BenchmarkEvaluate_Cold validates and evaluates on a fresh engine each time.
func BenchmarkEvaluate_Cold(b *testing.B) {
	rec := benchRecord()
	ctx := context.Background()
	expr := `price > 100.0 && symbol == "IBM"`
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = quietEngine().EvaluatePredicate(ctx, expr, rec, false)
	}
}

// BenchmarkEvaluate_Wide_10 evaluates 10 conjoined clauses.
func BenchmarkEvaluate_Wide_10(b *testing.B) {
	benchWide(b, 10)
}

// BenchmarkEvaluate_Wide_100 evaluates 100 conjoined clauses.
func BenchmarkEvaluate_Wide_100(b *testing.B) {
	benchWide(b, 100)
}

func benchWide(b *testing.B, n int) {
	e := quietEngine()
	rec := benchRecord()
	ctx := context.Background()
	expr := wideExpression(n)
	_, _ = e.EvaluatePredicate(ctx, expr, rec, false)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.EvaluatePredicate(ctx, expr, rec, false)
	}
}

// BenchmarkEvaluate_Groups evaluates nested groups with short-circuiting.
func BenchmarkEvaluate_Groups(b *testing.B) {
	e := quietEngine()
	rec := benchRecord()
	ctx := context.Background()
	expr := `(price < 1.0 || (counts[2] % 5 == 0 && tags contains "urgent")) && (symbol inCI ["ibm", "msft"])`
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.EvaluatePredicate(ctx, expr, rec, false)
	}
}

// BenchmarkEvaluate_RecordElement re-validates the inner predicate on every
// call, since element predicates are not cached.
func BenchmarkEvaluate_RecordElement(b *testing.B) {
	e := quietEngine()
	rec := benchRecord()
	ctx := context.Background()
	expr := `items[1].{ qty == 0 && sku startsWith "B" }`
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.EvaluatePredicate(ctx, expr, rec, false)
	}
}

// BenchmarkEvaluate_Parallel measures concurrent evaluation over one cache.
func BenchmarkEvaluate_Parallel(b *testing.B) {
	e := quietEngine()
	rec := benchRecord()
	ctx := context.Background()
	exprs := []string{
		`price > 100.0 && symbol == "IBM"`,
		`tags sizeEQ 2`,
		`counts[1] + 3 == 5`,
	}
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_, _ = e.EvaluatePredicate(ctx, exprs[i%len(exprs)], rec, false)
			i++
		}
	})
}

// BenchmarkFetchAttributeValue measures path resolution.
func BenchmarkFetchAttributeValue(b *testing.B) {
	e := quietEngine()
	rec := benchRecord()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.FetchAttributeValue("items[1].sku", rec)
	}
}
