package render

import (
	"context"
	"testing"

	"github.com/matzehuels/cellgraph/pkg/cache"
	"github.com/matzehuels/cellgraph/pkg/dag"
)

func TestCachedSVG(t *testing.T) {
	ctx := context.Background()
	g := dag.New()
	if err := g.AddDependency("A1", "B1"); err != nil {
		t.Fatal(err)
	}
	dot := ToDOT(g, nil, Options{})
	c := cache.NewMemoryCache(4)

	first, err := CachedSVG(ctx, c, dot)
	if err != nil {
		t.Fatalf("CachedSVG() error = %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("cache holds %d entries after a miss, want 1", c.Len())
	}

	// A planted entry proves the second call is served from the cache.
	if err := c.Set(ctx, cache.Key("svg", dot), []byte("<svg/>"), 0); err != nil {
		t.Fatal(err)
	}
	second, err := CachedSVG(ctx, c, dot)
	if err != nil {
		t.Fatal(err)
	}
	if string(second) != "<svg/>" || len(first) == 0 {
		t.Errorf("CachedSVG() = %q on hit", second)
	}
}

func TestCachedSVGNilCache(t *testing.T) {
	svg, err := CachedSVG(context.Background(), nil, "digraph { a }")
	if err != nil || len(svg) == 0 {
		t.Errorf("CachedSVG(nil) = %d bytes, %v", len(svg), err)
	}
}
