// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package migrate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/refmigrate/pkg/types"
)

// BuildHierarchy imports the collection forest. Parents are always created
// before their children: each pass imports every collection whose parent is
// either absent (root) or already mapped, and the loop runs until a pass
// makes no progress. Collections left over at convergence sit on a cycle or
// reference a parent that does not exist; that is a structural defect of
// the catalog and fails the whole run.
func BuildHierarchy(ctx context.Context, tx Target, collections []types.Collection, keys *KeyMap, rep *Report) error {
	known := make(map[string]bool, len(collections))
	for _, c := range collections {
		known[c.UUID] = true
	}

	pending := make([]types.Collection, len(collections))
	copy(pending, collections)

	for len(pending) > 0 {
		var stuck []types.Collection
		progressed := false

		for _, col := range pending {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			var parentID int64
			if col.ParentUUID != "" {
				parent, ok := keys.Lookup(ClassCollection, col.ParentUUID)
				if !ok {
					if known[col.ParentUUID] {
						// Parent exists but is not imported yet; retry next pass.
						stuck = append(stuck, col)
						continue
					}
					return fmt.Errorf("collection %q (%s) references unknown parent %s",
						col.Name, col.UUID, col.ParentUUID)
				}
				parentID = parent.RowID
			}

			col := col
			_, err := keys.Resolve(ClassCollection, col.UUID, func(key string) (int64, error) {
				return tx.InsertCollection(ctx, col.Name, key, parentID)
			})
			if err != nil {
				return fmt.Errorf("creating collection %q: %w", col.Name, err)
			}
			rep.Collections++
			progressed = true
		}

		if !progressed && len(stuck) > 0 {
			names := make([]string, 0, len(stuck))
			for _, c := range stuck {
				names = append(names, c.Name)
			}
			sort.Strings(names)
			return fmt.Errorf("collection hierarchy contains a cycle involving: %s",
				strings.Join(names, ", "))
		}
		pending = stuck
	}
	return nil
}
