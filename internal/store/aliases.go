package store

import (
	"context"
	"fmt"

	"github.com/roach88/causalcore/internal/align"
)

// ImportAliases merges alias entries into the stored table and returns
// the number of new rows. The canonical name is stored as an alias of
// itself so the table round-trips through align.Table.
//
// Returns ALIGNMENT_AMBIGUOUS, and stores nothing, if any alias already
// maps to a different canonical variable.
func (s *Store) ImportAliases(ctx context.Context, entries []align.Entry) (int, error) {
	table, err := s.AliasTable(ctx)
	if err != nil {
		return 0, err
	}
	for i, e := range entries {
		if err := table.Add(e.Canonical, e.Aliases...); err != nil {
			return 0, fmt.Errorf("variables[%d]: %w", i, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("import aliases: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO variable_aliases (alias, canonical) VALUES (?, ?)
		ON CONFLICT(alias) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("import aliases: prepare: %w", err)
	}
	defer stmt.Close()

	count := 0
	for _, e := range table.Entries() {
		for _, alias := range append([]string{e.Canonical}, e.Aliases...) {
			res, err := stmt.ExecContext(ctx, alias, e.Canonical)
			if err != nil {
				return 0, fmt.Errorf("import alias %q: %w", alias, err)
			}
			n, _ := res.RowsAffected()
			count += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("import aliases: commit: %w", err)
	}
	return count, nil
}

// AliasEntries returns the stored aliases grouped by canonical name, in
// canonical order.
func (s *Store) AliasEntries(ctx context.Context) ([]align.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT canonical, alias
		FROM variable_aliases
		ORDER BY canonical COLLATE BINARY ASC, alias COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query aliases: %w", err)
	}
	defer rows.Close()

	entries := []align.Entry{}
	for rows.Next() {
		var canonical, alias string
		if err := rows.Scan(&canonical, &alias); err != nil {
			return nil, fmt.Errorf("scan alias: %w", err)
		}
		if len(entries) == 0 || entries[len(entries)-1].Canonical != canonical {
			entries = append(entries, align.Entry{Canonical: canonical})
		}
		if alias != canonical {
			last := &entries[len(entries)-1]
			last.Aliases = append(last.Aliases, alias)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aliases: %w", err)
	}
	return entries, nil
}

// AliasTable builds an alignment table from the stored aliases.
func (s *Store) AliasTable(ctx context.Context) (*align.Table, error) {
	entries, err := s.AliasEntries(ctx)
	if err != nil {
		return nil, err
	}
	return align.FromEntries(entries)
}
