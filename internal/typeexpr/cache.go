package typeexpr

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 1024

// Classifier memoizes Classify. It is safe for concurrent use; the enum pass
// and every slice renderer share one instance per run.
type Classifier struct {
	cache *lru.Cache[string, *Expr]
}

// NewClassifier returns a Classifier holding up to size expressions.
func NewClassifier(size int) *Classifier {
	if size < 1 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, *Expr](size)
	if err != nil {
		// lru.New only fails on a non-positive size.
		panic(err)
	}
	return &Classifier{cache: cache}
}

// Classify returns the cached classification of input.
func (c *Classifier) Classify(input string) *Expr {
	if e, ok := c.cache.Get(input); ok {
		return e
	}
	e := Classify(input)
	c.cache.Add(input, e)
	return e
}
