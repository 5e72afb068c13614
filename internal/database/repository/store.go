package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jask/adminpanel/internal/database"
	"github.com/jask/adminpanel/internal/query"
)

var (
	ErrNotFound     = errors.New("repository: record not found")
	ErrInvalidQuery = errors.New("repository: invalid query")
	ErrReadOnly     = errors.New("repository: table is read-only")
)

// Record is one row keyed by field name.
type Record map[string]any

// ID returns the record id, empty when absent.
func (r Record) ID() string {
	s, _ := r["id"].(string)
	return s
}

// ListQuery is a decoded list request. Filters hold raw wire values keyed by
// field name.
type ListQuery struct {
	Search  string
	Filters map[string]string
	Sort    []query.Sort
	Page    int // 1-based
	PerPage int
}

type dbtx interface {
	ExecContext(ctx context.Context, stmt string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, stmt string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, stmt string, args ...any) *sql.Row
}

// Store reads and writes any described table.
type Store struct {
	db   dbtx
	root *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db, root: db} }

// Tx runs fn against a Store bound to one transaction.
func (s *Store) Tx(ctx context.Context, fn func(tx *Store) error) error {
	if s.root == nil {
		return fn(s)
	}
	return database.WithTx(ctx, s.root, func(tx *sql.Tx) error {
		return fn(&Store{db: tx})
	})
}

// List returns one page of t matching q, plus the total match count.
func (s *Store) List(ctx context.Context, t Table, q ListQuery) ([]Record, int, error) {
	where, args, err := t.where(q)
	if err != nil {
		return nil, 0, err
	}
	order, err := t.orderBy(q.Sort)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.Name+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", t.Name, err)
	}

	if q.PerPage <= 0 {
		q.PerPage = query.DefaultPageSize
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	stmt := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT ? OFFSET ?",
		strings.Join(t.columns(), ", "), t.Name, where, order)
	args = append(args, q.PerPage, (q.Page-1)*q.PerPage)

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", t.Name, err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := t.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

func (s *Store) Get(ctx context.Context, t Table, id string) (Record, error) {
	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", strings.Join(t.columns(), ", "), t.Name)
	rows, err := s.db.QueryContext(ctx, stmt, id)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", t.Name, err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, t.Name, id)
	}
	return t.scan(rows)
}

// Insert stores the writable fields of rec as a new row and returns it.
func (s *Store) Insert(ctx context.Context, t Table, rec Record) (Record, error) {
	if t.ReadOnly {
		return nil, fmt.Errorf("%w: %s", ErrReadOnly, t.Name)
	}
	row := t.writable(rec)
	if t.Derive != nil {
		t.Derive(row)
	}
	id, err := s.Put(ctx, t, row)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, t, id)
}

// Put inserts rec as is, assigning an id and created_at when missing. It
// ignores field write flags and is meant for seeding.
func (s *Store) Put(ctx context.Context, t Table, rec Record) (string, error) {
	if rec.ID() == "" {
		rec["id"] = uuid.NewString()
	}
	if _, ok := rec["created_at"]; !ok {
		rec["created_at"] = database.Now()
	}
	var cols, marks []string
	var args []any
	for _, f := range t.Fields {
		v, ok := rec[f.Name]
		if !ok {
			continue
		}
		val, err := f.encode(v)
		if err != nil {
			return "", err
		}
		cols = append(cols, f.Name)
		marks = append(marks, "?")
		args = append(args, val)
	}
	stmt := fmt.Sprintf("INSERT INTO %s(%s) VALUES(%s)", t.Name, strings.Join(cols, ", "), strings.Join(marks, ", "))
	if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
		return "", fmt.Errorf("insert %s: %w", t.Name, err)
	}
	return rec.ID(), nil
}

// Update changes the writable fields present in rec and returns the row.
func (s *Store) Update(ctx context.Context, t Table, id string, rec Record) (Record, error) {
	row := t.writable(rec)
	if t.Derive != nil {
		t.Derive(row)
	}
	var sets []string
	var args []any
	for _, f := range t.Fields {
		v, ok := row[f.Name]
		if !ok {
			continue
		}
		val, err := f.encode(v)
		if err != nil {
			return nil, err
		}
		sets = append(sets, f.Name+" = ?")
		args = append(args, val)
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidQuery)
	}
	args = append(args, id)
	res, err := s.db.ExecContext(ctx, fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", t.Name, strings.Join(sets, ", ")), args...)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", t.Name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, t.Name, id)
	}
	return s.Get(ctx, t, id)
}

func (s *Store) Delete(ctx context.Context, t Table, id string) error {
	if t.ReadOnly {
		return fmt.Errorf("%w: %s", ErrReadOnly, t.Name)
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+t.Name+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", t.Name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s %s", ErrNotFound, t.Name, id)
	}
	return nil
}

func (t Table) writable(rec Record) Record {
	out := Record{}
	for _, f := range t.Fields {
		if v, ok := rec[f.Name]; ok && f.Write {
			out[f.Name] = v
		}
	}
	return out
}

func (t Table) where(q ListQuery) (string, []any, error) {
	var clauses []string
	var args []any

	if s := strings.TrimSpace(q.Search); s != "" {
		var ors []string
		for _, f := range t.Fields {
			if f.Search {
				ors = append(ors, f.Name+" LIKE ?")
				args = append(args, "%"+s+"%")
			}
		}
		if len(ors) > 0 {
			clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
		}
	}

	names := make([]string, 0, len(q.Filters))
	for name := range q.Filters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		raw := q.Filters[name]
		f, ok := t.Field(name)
		if !ok || f.Filter == query.FilterNone {
			return "", nil, fmt.Errorf("%w: %s cannot be filtered", ErrInvalidQuery, name)
		}
		clause, vals, err := f.condition(raw)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, clause)
		args = append(args, vals...)
	}

	if len(clauses) == 0 {
		return "", args, nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func (f Field) condition(raw string) (string, []any, error) {
	raw = strings.TrimSpace(raw)
	switch f.Filter {
	case query.FilterText:
		return f.Name + " LIKE ?", []any{"%" + raw + "%"}, nil
	case query.FilterSelect:
		v, err := f.scalar(raw)
		return f.Name + " = ?", []any{v}, err
	case query.FilterMultiSelect:
		var marks []string
		var vals []any
		for _, it := range strings.Split(raw, ",") {
			if it = strings.TrimSpace(it); it != "" {
				marks = append(marks, "?")
				vals = append(vals, it)
			}
		}
		if len(vals) == 0 {
			return "", nil, fmt.Errorf("%w: empty list for %s", ErrInvalidQuery, f.Name)
		}
		return f.Name + " IN (" + strings.Join(marks, ", ") + ")", vals, nil
	case query.FilterDate:
		if _, err := time.Parse(time.DateOnly, raw); err != nil {
			return "", nil, fmt.Errorf("%w: %s wants YYYY-MM-DD", ErrInvalidQuery, f.Name)
		}
		return "substr(" + f.Name + ", 1, 10) = ?", []any{raw}, nil
	case query.FilterDateRange:
		from, to, found := strings.Cut(raw, ",")
		from, to = strings.TrimSpace(from), strings.TrimSpace(to)
		if !found {
			to = from
		}
		bad := fmt.Errorf("%w: %s wants YYYY-MM-DD[,YYYY-MM-DD] with one side optional", ErrInvalidQuery, f.Name)
		if from == "" && to == "" {
			return "", nil, bad
		}
		for _, d := range []string{from, to} {
			if _, err := time.Parse(time.DateOnly, d); d != "" && err != nil {
				return "", nil, bad
			}
		}
		col := "substr(" + f.Name + ", 1, 10)"
		switch {
		case to == "":
			return col + " >= ?", []any{from}, nil
		case from == "":
			return col + " <= ?", []any{to}, nil
		case from > to:
			return "", nil, fmt.Errorf("%w: %s starts after it ends", ErrInvalidQuery, f.Name)
		}
		return col + " BETWEEN ? AND ?", []any{from, to}, nil
	case query.FilterBoolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %s wants true or false", ErrInvalidQuery, f.Name)
		}
		return f.Name + " = ?", []any{b}, nil
	}
	return "", nil, fmt.Errorf("%w: %s cannot be filtered", ErrInvalidQuery, f.Name)
}

func (f Field) scalar(raw string) (any, error) {
	switch f.Kind {
	case KindInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s wants an integer", ErrInvalidQuery, f.Name)
		}
		return n, nil
	case KindReal:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s wants a number", ErrInvalidQuery, f.Name)
		}
		return n, nil
	}
	return raw, nil
}

func (t Table) orderBy(seq []query.Sort) (string, error) {
	if len(seq) == 0 {
		seq = t.DefaultSort
	}
	parts := make([]string, 0, len(seq)+1)
	for _, s := range seq {
		f, ok := t.Field(s.Column)
		if !ok || !f.Sort {
			return "", fmt.Errorf("%w: cannot sort by %s", ErrInvalidQuery, s.Column)
		}
		switch s.Direction {
		case query.Asc:
			parts = append(parts, f.Name+" ASC")
		case query.Desc:
			parts = append(parts, f.Name+" DESC")
		default:
			return "", fmt.Errorf("%w: sort direction %q", ErrInvalidQuery, s.Direction)
		}
	}
	return strings.Join(append(parts, "id ASC"), ", "), nil
}

func (t Table) scan(rows *sql.Rows) (Record, error) {
	raw := make([]any, len(t.Fields))
	ptrs := make([]any, len(t.Fields))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan %s: %w", t.Name, err)
	}
	rec := make(Record, len(t.Fields))
	for i, f := range t.Fields {
		rec[f.Name] = f.decode(raw[i])
	}
	return rec, nil
}

// decode turns a driver value into the JSON-friendly Go value of the field.
func (f Field) decode(v any) any {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	switch f.Kind {
	case KindBool:
		switch x := v.(type) {
		case int64:
			return x != 0
		case bool:
			return x
		}
		return false
	case KindReal:
		if n, ok := v.(int64); ok {
			return float64(n)
		}
	case KindTime:
		if t, ok := v.(time.Time); ok {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return v
}

// encode turns a request or seed value into what is stored.
func (f Field) encode(v any) (any, error) {
	bad := func() error {
		return fmt.Errorf("%w: %s does not accept %T", ErrInvalidQuery, f.Name, v)
	}
	switch f.Kind {
	case KindBool:
		switch x := v.(type) {
		case bool:
			return x, nil
		case float64:
			return x != 0, nil
		case int:
			return x != 0, nil
		case string:
			b, err := strconv.ParseBool(x)
			if err != nil {
				return nil, bad()
			}
			return b, nil
		}
		return nil, bad()
	case KindInt:
		switch x := v.(type) {
		case float64:
			return int64(x), nil
		case int:
			return int64(x), nil
		case int64:
			return x, nil
		}
		return nil, bad()
	case KindReal:
		switch x := v.(type) {
		case float64:
			return x, nil
		case int:
			return float64(x), nil
		case int64:
			return float64(x), nil
		}
		return nil, bad()
	case KindTime:
		switch x := v.(type) {
		case time.Time:
			return database.Timestamp(x), nil
		case string:
			t, err := time.Parse(time.RFC3339, x)
			if err != nil {
				return nil, bad()
			}
			return database.Timestamp(t), nil
		}
		return nil, bad()
	}
	switch x := v.(type) {
	case string:
		return x, nil
	case nil:
		return "", nil
	}
	return fmt.Sprint(v), nil
}
