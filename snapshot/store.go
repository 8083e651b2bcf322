// Package snapshot keeps saved controller register states in a SQLite
// database so a session can be resumed later.
package snapshot

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/sigurn/crc8"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/siolink/sio"
)

var (
	// ErrNotFound is returned when no snapshot has the requested ID.
	ErrNotFound = errors.New("snapshot: not found")

	// ErrChecksum is returned when a stored state does not match its
	// checksum.
	ErrChecksum = errors.New("snapshot: checksum mismatch")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("snapshot: store is closed")
)

var stateCRC = crc8.MakeTable(crc8.CRC8)

const schema = `CREATE TABLE IF NOT EXISTS snapshots (
	ID       TEXT PRIMARY KEY,
	Name     TEXT NOT NULL,
	Protocol TEXT NOT NULL,
	Cycle    INTEGER NOT NULL,
	Created  INTEGER NOT NULL,
	State    BLOB NOT NULL,
	Checksum INTEGER NOT NULL
);`

// Record is a saved state together with where it came from.
type Record struct {
	ID       string
	Name     string
	Protocol string
	Cycle    uint64
	Created  time.Time
	State    sio.State
}

// Store is a snapshot database.
type Store struct {
	lock   sync.Mutex
	db     *sql.DB
	closed bool
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("snapshot: init %s: %w", path, err)
	}

	s := &Store{db: db}
	atexit.Register(func() { s.Close() })

	return s, nil
}

// Save stores a state and returns its new ID.
func (s *Store) Save(r Record) (string, error) {
	blob, err := r.State.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("snapshot: %w", err)
	}

	if r.ID == "" {
		r.ID = xid.New().String()
	}

	if r.Created.IsZero() {
		r.Created = time.Now()
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return "", ErrClosed
	}

	_, err = s.db.Exec(
		`INSERT INTO snapshots VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.Protocol, int64(r.Cycle), r.Created.UnixNano(),
		blob, int64(crc8.Checksum(blob, stateCRC)),
	)
	if err != nil {
		return "", fmt.Errorf("snapshot: save %s: %w", r.Name, err)
	}

	return r.ID, nil
}

// Load returns the snapshot with the given ID.
func (s *Store) Load(id string) (Record, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return Record{}, ErrClosed
	}

	row := s.db.QueryRow(
		`SELECT ID, Name, Protocol, Cycle, Created, State, Checksum
		FROM snapshots WHERE ID = ?`, id)

	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return r, err
}

// Latest returns the most recent snapshot with the given name.
func (s *Store) Latest(name string) (Record, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return Record{}, ErrClosed
	}

	row := s.db.QueryRow(
		`SELECT ID, Name, Protocol, Cycle, Created, State, Checksum
		FROM snapshots WHERE Name = ? ORDER BY Created DESC, rowid DESC
		LIMIT 1`, name)

	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: name %s", ErrNotFound, name)
	}

	return r, err
}

// List returns all snapshots, newest first. States are not verified.
func (s *Store) List() ([]Record, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.Query(
		`SELECT ID, Name, Protocol, Cycle, Created, State, Checksum
		FROM snapshots ORDER BY Created DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("snapshot: list: %w", err)
	}
	defer rows.Close()

	var records []Record

	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil && !errors.Is(err, ErrChecksum) {
			return nil, err
		}

		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("snapshot: list: %w", err)
	}

	return records, nil
}

// Delete removes the snapshot with the given ID.
func (s *Store) Delete(id string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return ErrClosed
	}

	res, err := s.db.Exec(`DELETE FROM snapshots WHERE ID = ?`, id)
	if err != nil {
		return fmt.Errorf("snapshot: delete %s: %w", id, err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return nil
}

// Close closes the database. Calling it again is a no-op.
func (s *Store) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		r        Record
		cycle    int64
		created  int64
		blob     []byte
		checksum int64
	)

	err := row.Scan(&r.ID, &r.Name, &r.Protocol, &cycle, &created, &blob, &checksum)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}

		return Record{}, fmt.Errorf("snapshot: scan: %w", err)
	}

	r.Cycle = uint64(cycle)
	r.Created = time.Unix(0, created)

	if err := r.State.UnmarshalBinary(blob); err != nil {
		return r, fmt.Errorf("snapshot: %s: %w", r.ID, err)
	}

	if uint8(checksum) != crc8.Checksum(blob, stateCRC) {
		return r, fmt.Errorf("%w: %s", ErrChecksum, r.ID)
	}

	return r, nil
}
