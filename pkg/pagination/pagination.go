// Package pagination walks cursor-paginated MCP listings.
//
// MCP list operations return at most one page per request together with an
// opaque nextCursor. Collect follows the cursor chain until the server
// stops returning one, so callers see the complete listing as a single
// slice.
package pagination

import (
	mcperrors "github.com/modelctx/mcp-client-go/pkg/errors"
)

// MaxPages bounds a single Collect walk. A server that keeps handing out
// cursors past this is misbehaving and the walk fails rather than looping.
const MaxPages = 1000

// FetchPage retrieves one page for the given cursor. An empty cursor
// requests the first page; an empty returned cursor ends the walk.
type FetchPage[T any] func(cursor string) (items []T, nextCursor string, err error)

// Collect walks every page of a listing and returns the concatenation
func Collect[T any](fetch FetchPage[T]) ([]T, error) {
	var (
		out    []T
		cursor string
	)
	seen := make(map[string]bool)

	for page := 0; ; page++ {
		if page >= MaxPages {
			return nil, mcperrors.DataErrorf("listing exceeded %d pages", MaxPages)
		}

		items, next, err := fetch(cursor)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)

		if next == "" {
			return out, nil
		}
		if seen[next] {
			return nil, mcperrors.DataErrorf("server repeated pagination cursor %q", next)
		}
		seen[next] = true
		cursor = next
	}
}
