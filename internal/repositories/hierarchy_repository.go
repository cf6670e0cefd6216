package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"projectcrm/internal/hierarchy"
)

// parentLinks reads and writes one self-referencing parent column.
type parentLinks struct {
	db     *sql.DB
	table  string
	column string
	what   string
}

func (p parentLinks) ParentOf(ctx context.Context, id int64) (*int64, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, p.column, p.table)
	var parent sql.NullInt64
	if err := conn(ctx, p.db).QueryRowContext(ctx, q, id).Scan(&parent); err != nil {
		return nil, notFoundOr(p.what, err)
	}
	if !parent.Valid {
		return nil, nil
	}
	return &parent.Int64, nil
}

func (p parentLinks) SetParent(ctx context.Context, id int64, parent *int64) error {
	q := fmt.Sprintf(`UPDATE %s SET %s = $1, updated_at = NOW() WHERE id = $2`, p.column, p.table)
	res, err := conn(ctx, p.db).ExecContext(ctx, q, parent, id)
	if err != nil {
		return dbErr("set "+p.what+" parent", err)
	}
	return affectedOrNotFound(res, p.what)
}

// ParentChain loads id and every row above it as parent links, nearest first.
// The path array ends the recursion when stored links already loop.
func (p parentLinks) ParentChain(ctx context.Context, id int64) ([]hierarchy.Link, error) {
	q := fmt.Sprintf(`
WITH RECURSIVE chain(id, parent, path) AS (
    SELECT id, %[1]s, ARRAY[id] FROM %[2]s WHERE id = $1
    UNION ALL
    SELECT t.id, t.%[1]s, c.path || t.id
    FROM %[2]s t JOIN chain c ON t.id = c.parent
    WHERE NOT t.id = ANY(c.path)
)
SELECT id, parent FROM chain ORDER BY array_length(path, 1)`, p.column, p.table)

	rows, err := conn(ctx, p.db).QueryContext(ctx, q, id)
	if err != nil {
		return nil, dbErr("load "+p.what+" parent chain", err)
	}
	defer rows.Close()

	var out []hierarchy.Link
	for rows.Next() {
		var (
			l      hierarchy.Link
			parent sql.NullInt64
		)
		if err := rows.Scan(&l.ID, &parent); err != nil {
			return nil, dbErr("scan "+p.what+" parent link", err)
		}
		if parent.Valid {
			l.Parent = &parent.Int64
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
