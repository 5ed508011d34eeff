package shopdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	_ "modernc.org/sqlite"

	"chestshop.dev/internal/market"
)

// SQLiteStore persists shop records through a single writer goroutine. All
// writes are asynchronous: callers queue a request and get their done
// callback once the statement has committed (or failed). Reads go straight to
// the database, which sqlite serializes against the writer.
type SQLiteStore struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqUpsert reqKind = iota + 1
	reqDelete
)

type req struct {
	kind reqKind
	rec  market.ShopRecord
	done func(error)
}

func Open(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteStore{
		db: db,
		ch: make(chan req, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS shops (
			world TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			owner TEXT NOT NULL,
			price REAL NOT NULL,
			currency TEXT NOT NULL DEFAULT '',
			item_id TEXT NOT NULL,
			item_meta TEXT NOT NULL DEFAULT '',
			item_amount INTEGER NOT NULL DEFAULT 1,
			buying INTEGER NOT NULL DEFAULT 0,
			unlimited INTEGER NOT NULL DEFAULT 0,
			tax_account TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (world, x, y, z)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_shops_owner ON shops(owner);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close drains queued writes, then closes the database. Idempotent.
func (s *SQLiteStore) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// CreateShop queues an upsert of the record. done (may be nil) fires on the
// writer goroutine once the row is on disk, or with the write error.
func (s *SQLiteStore) CreateShop(rec market.ShopRecord, done func(error)) {
	s.enqueue(req{kind: reqUpsert, rec: rec, done: done})
}

// RemoveShop queues deletion of the row at the position.
func (s *SQLiteStore) RemoveShop(world string, x, y, z int, done func(error)) {
	s.enqueue(req{
		kind: reqDelete,
		rec:  market.ShopRecord{World: world, X: x, Y: y, Z: z},
		done: done,
	})
}

func (s *SQLiteStore) enqueue(r req) {
	if s == nil || s.closed.Load() {
		if r.done != nil {
			r.done(fmt.Errorf("store closed"))
		}
		return
	}
	s.ch <- r
}

// LoadAll reads every persisted shop record. Called once at startup before
// any writes are queued.
func (s *SQLiteStore) LoadAll() ([]market.ShopRecord, error) {
	rows, err := s.db.Query(`SELECT world,x,y,z,owner,price,currency,item_id,item_meta,item_amount,buying,unlimited,tax_account,name FROM shops`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.ShopRecord
	for rows.Next() {
		var rec market.ShopRecord
		var buying, unlimited int
		if err := rows.Scan(
			&rec.World, &rec.X, &rec.Y, &rec.Z,
			&rec.Owner, &rec.Price, &rec.Currency,
			&rec.ItemID, &rec.ItemMeta, &rec.ItemAmount,
			&buying, &unlimited, &rec.TaxAccount, &rec.Name,
		); err != nil {
			return nil, err
		}
		rec.Buying = buying != 0
		rec.Unlimited = unlimited != 0
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) loop() {
	upsert, _ := s.db.Prepare(`INSERT OR REPLACE INTO shops(world,x,y,z,owner,price,currency,item_id,item_meta,item_amount,buying,unlimited,tax_account,name) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	del, _ := s.db.Prepare(`DELETE FROM shops WHERE world=? AND x=? AND y=? AND z=?`)
	defer func() {
		if upsert != nil {
			_ = upsert.Close()
		}
		if del != nil {
			_ = del.Close()
		}
	}()

	for r := range s.ch {
		var err error
		switch r.kind {
		case reqUpsert:
			if upsert == nil {
				err = fmt.Errorf("upsert statement unavailable")
				break
			}
			rec := r.rec
			_, err = upsert.Exec(
				rec.World, rec.X, rec.Y, rec.Z,
				rec.Owner, rec.Price, rec.Currency,
				rec.ItemID, rec.ItemMeta, rec.ItemAmount,
				boolInt(rec.Buying), boolInt(rec.Unlimited),
				rec.TaxAccount, rec.Name,
			)
		case reqDelete:
			if del == nil {
				err = fmt.Errorf("delete statement unavailable")
				break
			}
			_, err = del.Exec(r.rec.World, r.rec.X, r.rec.Y, r.rec.Z)
		}
		if r.done != nil {
			r.done(err)
		}
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
