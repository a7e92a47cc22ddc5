package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-bexpr"
	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrInvalidFilter is returned when a list filter expression does not compile.
var ErrInvalidFilter = errors.New("invalid filter expression")

// FilterEvaluator compiles go-bexpr list filters and keeps the compiled
// evaluators in a bounded LRU keyed by expression text.
type FilterEvaluator struct {
	cache *lru.Cache[string, *bexpr.Evaluator]
}

// NewFilterEvaluator creates an evaluator caching up to size compiled expressions.
func NewFilterEvaluator(size int) (*FilterEvaluator, error) {
	cache, err := lru.New[string, *bexpr.Evaluator](size)
	if err != nil {
		return nil, fmt.Errorf("create filter cache: %w", err)
	}
	return &FilterEvaluator{cache: cache}, nil
}

// Compile returns the evaluator for expr, compiling and caching it on first use.
func (f *FilterEvaluator) Compile(expr string) (*bexpr.Evaluator, error) {
	expr = strings.TrimSpace(expr)
	if cached, ok := f.cache.Get(expr); ok {
		return cached, nil
	}

	evaluator, err := bexpr.CreateEvaluator(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	f.cache.Add(expr, evaluator)
	return evaluator, nil
}

// Match evaluates expr against datum. An empty expression matches everything.
// Evaluation errors (e.g. a selector missing from datum) count as no match.
func (f *FilterEvaluator) Match(expr string, datum map[string]any) (bool, error) {
	if strings.TrimSpace(expr) == "" {
		return true, nil
	}
	evaluator, err := f.Compile(expr)
	if err != nil {
		return false, err
	}
	matches, err := evaluator.Evaluate(datum)
	if err != nil {
		return false, nil
	}
	return matches, nil
}

// Len returns the number of cached evaluators.
func (f *FilterEvaluator) Len() int {
	return f.cache.Len()
}
