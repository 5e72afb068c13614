package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/jask/adminpanel/internal/database"
	"github.com/jask/adminpanel/internal/database/repository"
	"github.com/jask/adminpanel/internal/query"
)

func openStore(t *testing.T) *repository.Store {
	t.Helper()
	db, err := database.OpenMigrated(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return repository.NewStore(db)
}

func day(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d.Add(10 * time.Hour)
}

func seedPayments(t *testing.T, s *repository.Store) {
	t.Helper()
	ctx := context.Background()
	rows := []repository.Record{
		{"reference": "PAY-1", "user_email": "ada@example.com", "amount": 10.5, "currency": "USD", "method": "card", "status": "paid", "created_at": day("2024-01-05")},
		{"reference": "PAY-2", "user_email": "bob@example.com", "amount": 99.0, "currency": "USD", "method": "bank", "status": "pending", "created_at": day("2024-01-06")},
		{"reference": "PAY-3", "user_email": "ada@example.com", "amount": 5.0, "currency": "USD", "method": "wallet", "status": "paid", "created_at": day("2024-01-07")},
		{"reference": "PAY-4", "user_email": "cy@example.com", "amount": 42.0, "currency": "USD", "method": "card", "status": "failed", "created_at": day("2024-01-05")},
	}
	for _, r := range rows {
		_, err := s.Put(ctx, repository.Payments, r)
		require.NoError(t, err)
	}
}

func refs(recs []repository.Record) []string {
	var out []string
	for _, r := range recs {
		out = append(out, r["reference"].(string))
	}
	return out
}

func TestListFiltersSortsAndPages(t *testing.T) {
	s := openStore(t)
	seedPayments(t, s)
	ctx := context.Background()

	all, total, err := s.List(ctx, repository.Payments, repository.ListQuery{})
	require.NoError(t, err)
	require.Equal(t, 4, total)
	require.Equal(t, "PAY-3", all[0]["reference"], "newest first by default")

	cases := []struct {
		name string
		q    repository.ListQuery
		want []string
	}{
		{"search", repository.ListQuery{Search: "ada@"}, []string{"PAY-1", "PAY-3"}},
		{"select", repository.ListQuery{Filters: map[string]string{"status": "paid"}}, []string{"PAY-1", "PAY-3"}},
		{"multi", repository.ListQuery{Filters: map[string]string{"method": "card,bank"}}, []string{"PAY-1", "PAY-2", "PAY-4"}},
		{"single day", repository.ListQuery{Filters: map[string]string{"created_at": "2024-01-05"}}, []string{"PAY-1", "PAY-4"}},
		{"range", repository.ListQuery{Filters: map[string]string{"created_at": "2024-01-06,2024-01-07"}}, []string{"PAY-2", "PAY-3"}},
		{"from only", repository.ListQuery{Filters: map[string]string{"created_at": "2024-01-06,"}}, []string{"PAY-2", "PAY-3"}},
		{"to only", repository.ListQuery{Filters: map[string]string{"created_at": ",2024-01-05"}}, []string{"PAY-1", "PAY-4"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, _, err := s.List(ctx, repository.Payments, repository.ListQuery{
				Search:  tc.q.Search,
				Filters: tc.q.Filters,
				Sort:    []query.Sort{{Column: "reference", Direction: query.Asc}},
			})
			require.NoError(t, err)
			require.Equal(t, tc.want, refs(got))
		})
	}

	page, total, err := s.List(ctx, repository.Payments, repository.ListQuery{
		Sort:    []query.Sort{{Column: "amount", Direction: query.Desc}},
		Page:    2,
		PerPage: 3,
	})
	require.NoError(t, err)
	require.Equal(t, 4, total)
	require.Equal(t, []string{"PAY-3"}, refs(page))
	require.Equal(t, 5.0, page[0]["amount"])
}

func TestListRejectsBadQueries(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	bad := []repository.ListQuery{
		{Filters: map[string]string{"amount": "5"}},
		{Filters: map[string]string{"created_at": "Jan 5"}},
		{Filters: map[string]string{"created_at": ","}},
		{Filters: map[string]string{"created_at": "2024-01-07,2024-01-05"}},
		{Filters: map[string]string{"method": " , "}},
		{Sort: []query.Sort{{Column: "currency", Direction: query.Asc}}},
		{Sort: []query.Sort{{Column: "amount", Direction: "up"}}},
	}
	for _, q := range bad {
		_, _, err := s.List(ctx, repository.Payments, q)
		require.ErrorIs(t, err, repository.ErrInvalidQuery, "%+v", q)
	}
}

func TestInsertUpdateDelete(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	rec, err := s.Insert(ctx, repository.Users, repository.Record{
		"name": "Ada", "email": "ada@example.com", "role": "admin", "status": "active", "verified": true,
		"created_at": "1999-01-01T00:00:00Z", // not writable, ignored
	})
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID())
	require.Equal(t, true, rec["verified"])
	require.NotEqual(t, "1999-01-01T00:00:00Z", rec["created_at"])

	rec, err = s.Update(ctx, repository.Users, rec.ID(), repository.Record{"status": "suspended", "id": "hijack"})
	require.NoError(t, err)
	require.Equal(t, "suspended", rec["status"])

	_, err = s.Update(ctx, repository.Users, rec.ID(), repository.Record{"id": "x"})
	require.ErrorIs(t, err, repository.ErrInvalidQuery)
	_, err = s.Update(ctx, repository.Users, "missing", repository.Record{"status": "active"})
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, s.Delete(ctx, repository.Users, rec.ID()))
	_, err = s.Get(ctx, repository.Users, rec.ID())
	require.ErrorIs(t, err, repository.ErrNotFound)
	require.ErrorIs(t, s.Delete(ctx, repository.Users, rec.ID()), repository.ErrNotFound)
}

func TestReadOnlyTables(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	_, err := s.Insert(ctx, repository.OTPs, repository.Record{"phone": "1"})
	require.ErrorIs(t, err, repository.ErrReadOnly)
	require.ErrorIs(t, s.Delete(ctx, repository.OTPs, "x"), repository.ErrReadOnly)
}

func TestDeriveRunsOnWrites(t *testing.T) {
	s := openStore(t)
	posts := repository.Posts
	posts.Derive = func(r repository.Record) {
		if b, ok := r["body"].(string); ok {
			r["body_html"] = "<p>" + b + "</p>"
		}
	}
	rec, err := s.Insert(context.Background(), posts, repository.Record{"title": "Hi", "author": "ada", "body": "hello"})
	require.NoError(t, err)
	require.Equal(t, "<p>hello</p>", rec["body_html"])
}

func TestAdminRepo(t *testing.T) {
	db, err := database.OpenMigrated(filepath.Join(t.TempDir(), "admins.db"))
	require.NoError(t, err)
	defer db.Close()
	repo := repository.NewAdminRepo(db)
	ctx := context.Background()

	_, err = repo.ByEmail(ctx, "root@example.com")
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.Upsert(ctx, repository.Admin{ID: "a1", Email: "root@example.com", PasswordHash: "h1"}))
	require.NoError(t, repo.Upsert(ctx, repository.Admin{ID: "a2", Email: "root@example.com", PasswordHash: "h2"}))
	a, err := repo.ByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	require.Equal(t, "a1", a.ID)
	require.Equal(t, "h2", a.PasswordHash)
}

func TestListSurfacesDriverErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM payments WHERE status = \?`).
		WithArgs("paid").
		WillReturnError(errors.New("disk I/O error"))

	s := repository.NewStore(db)
	_, _, err = s.List(context.Background(), repository.Payments, repository.ListQuery{Filters: map[string]string{"status": "paid"}})
	require.ErrorContains(t, err, "count payments: disk I/O error")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListScansRowsFromDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM locations`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT id, name, city, country, latitude, longitude, active, created_at FROM locations ORDER BY name ASC, id ASC LIMIT \? OFFSET \?`).
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "city", "country", "latitude", "longitude", "active", "created_at"}).
			AddRow("l1", []byte("Depot"), "Oslo", "NO", int64(59), 10.75, int64(1), "2024-01-05T10:00:00Z"))

	s := repository.NewStore(db)
	recs, total, err := s.List(context.Background(), repository.Locations, repository.ListQuery{
		Sort: []query.Sort{{Column: "name", Direction: query.Asc}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, repository.Record{
		"id": "l1", "name": "Depot", "city": "Oslo", "country": "NO",
		"latitude": 59.0, "longitude": 10.75, "active": true, "created_at": "2024-01-05T10:00:00Z",
	}, recs[0])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSurfacesDriverErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM vendors WHERE id = \?`).
		WithArgs("v1").
		WillReturnError(errors.New("database is locked"))

	err = repository.NewStore(db).Delete(context.Background(), repository.Vendors, "v1")
	require.ErrorContains(t, err, "delete vendors: database is locked")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTxRollsBackOnError(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	err := s.Tx(ctx, func(tx *repository.Store) error {
		_, err := tx.Put(ctx, repository.Vendors, repository.Record{"name": "Acme", "email": "ops@acme.test", "category": "food", "status": "pending"})
		require.NoError(t, err)
		return errors.New("abort")
	})
	require.EqualError(t, err, "abort")
	_, total, err := s.List(ctx, repository.Vendors, repository.ListQuery{})
	require.NoError(t, err)
	require.Zero(t, total)

	require.NoError(t, s.Tx(ctx, func(tx *repository.Store) error {
		_, err := tx.Put(ctx, repository.Vendors, repository.Record{"name": "Acme", "email": "ops@acme.test", "category": "food", "status": "pending"})
		return err
	}))
	_, total, err = s.List(ctx, repository.Vendors, repository.ListQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
}
