// Package store persists computed observables in a SQLite database keyed by their run parameters.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/fumin/isingchain"
)

const (
	tableObservables = "observables"

	// Methods of computing observables.
	MethodExact      = "exact"
	MethodMetropolis = "metropolis"
	// MethodMetropolisTimeAverage is Metropolis sampling that also counts rejected proposals.
	MethodMetropolisTimeAverage = "metropolis_time_average"
	MethodTransfer              = "transfer"
)

// Key identifies a computation.
type Key struct {
	Method string
	N      int
	T      float64
	J      float64
	U      float64
	// M is the number of samples per chain, zero for deterministic methods.
	M int
	// Chains and Seed select the independent Metropolis chains, zero for deterministic methods.
	Chains int
	Seed   uint64
}

// Row is a stored computation.
type Row struct {
	Key
	isingchain.Observables
}

// Store is a SQLite backed table of observables.
type Store struct {
	Path string

	db *sql.DB
}

// Open opens or creates the database at dbPath.
func Open(dbPath string) (*Store, error) {
	s := &Store{Path: dbPath}
	var err error
	s.db, err = newDB(s.Path)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Put inserts or replaces a row.
func (s *Store) Put(ctx context.Context, r Row) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	sqlStr := fmt.Sprintf(`INSERT OR REPLACE INTO %s (method, n, t, j, u, m, chains, seed, e, mag, c, chi) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, tableObservables)
	args := []any{r.Method, r.N, r.T, r.J, r.U, r.M, r.Chains, int64(r.Seed), r.Energy, r.Magnetization, r.HeatCapacity, r.Susceptibility}
	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return errors.Wrap(err, fmt.Sprintf("%s %#v", sqlStr, args))
	}
	return nil
}

// Get returns the row of k, and false if there is none.
func (s *Store) Get(ctx context.Context, k Key) (Row, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	sqlStr := fmt.Sprintf(`SELECT e, mag, c, chi FROM %s WHERE method=? AND n=? AND t=? AND j=? AND u=? AND m=? AND chains=? AND seed=?`, tableObservables)
	r := Row{Key: k}
	err := s.db.QueryRowContext(ctx, sqlStr, k.Method, k.N, k.T, k.J, k.U, k.M, k.Chains, int64(k.Seed)).Scan(&r.Energy, &r.Magnetization, &r.HeatCapacity, &r.Susceptibility)
	switch {
	case err == sql.ErrNoRows:
		return Row{}, false, nil
	case err != nil:
		return Row{}, false, errors.Wrap(err, fmt.Sprintf("%#v", k))
	default:
		return r, true, nil
	}
}

// All returns every row ordered by its key columns.
func (s *Store) All(ctx context.Context) ([]Row, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	sqlStr := fmt.Sprintf(`SELECT method, n, t, j, u, m, chains, seed, e, mag, c, chi FROM %s ORDER BY method, n, t, j, u, m, chains, seed`, tableObservables)
	rows, err := s.db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer rows.Close()

	all := make([]Row, 0)
	for rows.Next() {
		var r Row
		var seed int64
		if err := rows.Scan(&r.Method, &r.N, &r.T, &r.J, &r.U, &r.M, &r.Chains, &seed, &r.Energy, &r.Magnetization, &r.HeatCapacity, &r.Susceptibility); err != nil {
			return nil, errors.Wrap(err, "")
		}
		r.Seed = uint64(seed)
		all = append(all, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return all, nil
}

// Count returns the number of rows.
func (s *Store) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	sqlStr := fmt.Sprintf("SELECT count(1) FROM %s", tableObservables)
	var n int
	if err := s.db.QueryRowContext(ctx, sqlStr).Scan(&n); err != nil {
		return -1, errors.Wrap(err, "")
	}
	return n, nil
}

func newDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", dbPath))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	if err := prepareDB(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "")
	}

	return db, nil
}

func prepareDB(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	sqlStr := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		method TEXT, n INTEGER, t REAL, j REAL, u REAL, m INTEGER, chains INTEGER, seed INTEGER,
		e REAL, mag REAL, c REAL, chi REAL,
		PRIMARY KEY (method, n, t, j, u, m, chains, seed)) STRICT`, tableObservables)
	if _, err := db.ExecContext(ctx, sqlStr); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}
