package render

import (
	"context"
	"time"

	"github.com/matzehuels/cellgraph/pkg/cache"
)

// SVGCacheTTL is how long a rendered graph stays in a cache.
const SVGCacheTTL = 7 * 24 * time.Hour

// CachedSVG returns the SVG for dot from c, rendering and storing it on a
// miss. Cache failures fall back to rendering. A nil cache disables caching.
func CachedSVG(ctx context.Context, c cache.Cache, dot string) ([]byte, error) {
	if c == nil {
		return RenderSVG(ctx, dot)
	}
	key := cache.Key("svg", dot)
	if data, ok, err := c.Get(ctx, key); err == nil && ok {
		return data, nil
	}
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	_ = c.Set(ctx, key, svg, SVGCacheTTL)
	return svg, nil
}
