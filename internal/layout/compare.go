package layout

import "fmt"

// comparisonCopier namespaces every key under the ancestor and the side of
// a before/after view, so both copies can be shown next to each other.
func comparisonCopier(ancestorKey string, isSource bool) copier {
	side := "target"
	if isSource {
		side = "source"
	}
	return rekeyCopier(func(k string) string {
		return fmt.Sprintf("%s-%s-%s", ancestorKey, side, k)
	})
}
