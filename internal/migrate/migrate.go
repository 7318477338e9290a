// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package migrate

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/refmigrate/pkg/types"
)

// Run executes one migration: the collection hierarchy once, then every
// publication through the importer, all inside the single transaction tx.
// On success the transaction is committed; any fatal error (structural
// hierarchy defect, storage failure, or a per-publication failure under
// fail-fast) rolls back every database write of the run. File copies are
// never rolled back: they are fingerprint-gated and idempotent, so a
// later run reuses them.
//
// The report is returned in every outcome, commit or rollback.
func Run(ctx context.Context, cat *types.Catalog, tx Target, mat *Materializer, cfg types.MigrationConfig, w io.Writer) (*Report, error) {
	rep := &Report{
		RunID:  uuid.NewString(),
		DryRun: cfg.DryRun,
	}
	defer tx.Rollback()

	keys := NewKeyMap(rand.NewSource(time.Now().UnixNano()))

	fmt.Fprintf(w, "migrating %d collections...\n", len(cat.Collections))
	if err := BuildHierarchy(ctx, tx, cat.Collections, keys, rep); err != nil {
		return rep, fmt.Errorf("collection hierarchy: %w", err)
	}

	pubs := cat.Publications
	if cfg.Limit > 0 && cfg.Limit < len(pubs) {
		pubs = pubs[:cfg.Limit]
		fmt.Fprintf(w, "limiting run to the first %d publications\n", cfg.Limit)
	}

	fmt.Fprintf(w, "migrating %d publications...\n", len(pubs))
	if cfg.SkipAttachments {
		fmt.Fprintln(w, "skipping attachments (metadata-only import)")
	}

	importer := NewImporter(keys)
	for i, pub := range pubs {
		select {
		case <-ctx.Done():
			return rep, ctx.Err()
		default:
		}
		if i > 0 && i%100 == 0 {
			fmt.Fprintf(w, "progress: %d/%d\n", i, len(pubs))
		}

		itemID, naming, err := importer.ImportPublication(ctx, tx, pub, rep)
		if err != nil {
			if cfg.FailFast {
				return rep, fmt.Errorf("publication %s: %w", pub.UUID, err)
			}
			rep.Fail(pub.UUID, "%v", err)
			continue
		}

		if !cfg.SkipAttachments {
			if err := importer.ImportAttachments(ctx, tx, mat, pub, itemID, naming, rep); err != nil {
				if cfg.FailFast {
					return rep, fmt.Errorf("publication %s attachments: %w", pub.UUID, err)
				}
				rep.Fail(pub.UUID, "attachments: %v", err)
			}
		}
	}

	if cfg.DryRun {
		fmt.Fprintln(w, "dry run: no changes written")
		return rep, nil
	}

	if err := tx.Commit(); err != nil {
		return rep, fmt.Errorf("committing transaction: %w", err)
	}
	rep.Committed = true
	return rep, nil
}
