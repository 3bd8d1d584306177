package pool

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"net"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists leases and per-client history to a SQLite database,
// grounded on the teacher's lease database (two tables instead of one:
// lease rows are keyed by IP and replaced when another client takes the
// address, while history keeps each client's last address).
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if necessary) the lease database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open lease database: %w", err)
	}
	if _, err := db.Exec(`create table if not exists leases (
		ip text primary key,
		client_id text not null,
		expire integer not null
	)`); err != nil {
		return nil, fmt.Errorf("leases table creation failed: %w", err)
	}
	if _, err := db.Exec(`create table if not exists history (
		client_id text primary key,
		ip text not null
	)`); err != nil {
		return nil, fmt.Errorf("history table creation failed: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LeaseByIP(ip net.IP) (Lease, bool, error) {
	row := s.db.QueryRow(`select ip, client_id, expire from leases where ip = ?`, ip.String())
	return scanLease(row)
}

func (s *SQLiteStore) LeaseByClient(clientID []byte) (Lease, bool, error) {
	row := s.db.QueryRow(`select ip, client_id, expire from leases where client_id = ?`, hex.EncodeToString(clientID))
	return scanLease(row)
}

func (s *SQLiteStore) HistoryFor(clientID []byte) (net.IP, bool, error) {
	var ipStr string
	err := s.db.QueryRow(`select ip from history where client_id = ?`, hex.EncodeToString(clientID)).Scan(&ipStr)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query lease history: %w", err)
	}
	ip := net.ParseIP(ipStr)
	if ip.To4() == nil {
		return nil, false, fmt.Errorf("malformed history address: %s", ipStr)
	}
	return ip, true, nil
}

func (s *SQLiteStore) Put(lease Lease) error {
	clientID := hex.EncodeToString(lease.ClientID)
	stmt, err := s.db.Prepare(`insert or replace into leases(ip, client_id, expire) values (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("statement preparation failed: %w", err)
	}
	defer stmt.Close()
	if _, err := stmt.Exec(lease.IP.String(), clientID, lease.Expire.Unix()); err != nil {
		return fmt.Errorf("lease insert/update failed: %w", err)
	}

	histStmt, err := s.db.Prepare(`insert or replace into history(client_id, ip) values (?, ?)`)
	if err != nil {
		return fmt.Errorf("statement preparation failed: %w", err)
	}
	defer histStmt.Close()
	if _, err := histStmt.Exec(clientID, lease.IP.String()); err != nil {
		return fmt.Errorf("history insert/update failed: %w", err)
	}
	return nil
}

func scanLease(row *sql.Row) (Lease, bool, error) {
	var ipStr, clientIDHex string
	var expire int64
	err := row.Scan(&ipStr, &clientIDHex, &expire)
	if err == sql.ErrNoRows {
		return Lease{}, false, nil
	}
	if err != nil {
		return Lease{}, false, fmt.Errorf("failed to scan lease row: %w", err)
	}
	ip := net.ParseIP(ipStr)
	if ip.To4() == nil {
		return Lease{}, false, fmt.Errorf("malformed lease address: %s", ipStr)
	}
	clientID, err := hex.DecodeString(clientIDHex)
	if err != nil {
		return Lease{}, false, fmt.Errorf("malformed client id: %s", clientIDHex)
	}
	return Lease{IP: ip, ClientID: clientID, Expire: time.Unix(expire, 0)}, true, nil
}
