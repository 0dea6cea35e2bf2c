package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/kahefi/epcis-graph/rdf"
)

// sqliteBackend persists triples in a single SQLite file, one row per
// (graph, subject, predicate, object). It backs Store.Open for any path
// other than ":memory:".
type sqliteBackend struct {
	db       *sql.DB
	filePath string
}

func openSqliteBackend(path string) (*sqliteBackend, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000&_journal_mode=WAL&_synchronous=NORMAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	db.SetMaxOpenConns(1) // writes are serialized by Store's own lock anyway
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite store: %w", err)
	}
	b := &sqliteBackend{db: db, filePath: path}
	if err := b.initSchema(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *sqliteBackend) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS triples (
		graph_iri TEXT NOT NULL,
		subject   TEXT NOT NULL,
		predicate TEXT NOT NULL,
		object    TEXT NOT NULL,
		PRIMARY KEY (graph_iri, subject, predicate, object)
	);
	CREATE INDEX IF NOT EXISTS idx_triples_graph ON triples(graph_iri);
	CREATE INDEX IF NOT EXISTS idx_triples_spo ON triples(subject, predicate, object);
	`
	_, err := b.db.Exec(schema)
	return err
}

func (b *sqliteBackend) matches(graphIRI string, subj, pred, obj rdf.Term) ([]rdf.Quad, error) {
	query := "SELECT graph_iri, subject, predicate, object FROM triples WHERE 1=1"
	var args []any
	if graphIRI != "" {
		query += " AND graph_iri = ?"
		args = append(args, graphIRI)
	}
	if subj != "" {
		query += " AND subject = ?"
		args = append(args, string(subj))
	}
	if pred != "" {
		query += " AND predicate = ?"
		args = append(args, string(pred))
	}
	if obj != "" {
		query += " AND object = ?"
		args = append(args, string(obj))
	}
	rows, err := b.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sqlite store: %w", err)
	}
	defer rows.Close()

	var out []rdf.Quad
	for rows.Next() {
		var g, s, p, o string
		if err := rows.Scan(&g, &s, &p, &o); err != nil {
			return nil, fmt.Errorf("scan sqlite row: %w", err)
		}
		out = append(out, rdf.Quad{
			Triple: rdf.Triple{Subject: rdf.Term(s), Predicate: rdf.Term(p), Object: rdf.Term(o)},
			Graph:  rdf.NewIRITerm(g),
		})
	}
	return out, rows.Err()
}

func (b *sqliteBackend) addTriples(graphIRI string, triples []rdf.Triple) (added, already []rdf.Triple, err error) {
	tx, err := b.db.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("begin sqlite tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	checkStmt, err := tx.Prepare("SELECT 1 FROM triples WHERE graph_iri=? AND subject=? AND predicate=? AND object=?")
	if err != nil {
		return nil, nil, err
	}
	defer checkStmt.Close()
	insertStmt, err := tx.Prepare("INSERT INTO triples (graph_iri, subject, predicate, object) VALUES (?, ?, ?, ?)")
	if err != nil {
		return nil, nil, err
	}
	defer insertStmt.Close()

	for _, t := range triples {
		var dummy int
		scanErr := checkStmt.QueryRow(graphIRI, string(t.Subject), string(t.Predicate), string(t.Object)).Scan(&dummy)
		if scanErr == nil {
			already = append(already, t)
			continue
		}
		if scanErr != sql.ErrNoRows {
			return nil, nil, fmt.Errorf("check existing triple: %w", scanErr)
		}
		if _, err := insertStmt.Exec(graphIRI, string(t.Subject), string(t.Predicate), string(t.Object)); err != nil {
			return nil, nil, fmt.Errorf("insert triple: %w", err)
		}
		added = append(added, t)
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit sqlite tx: %w", err)
	}
	return added, already, nil
}

func (b *sqliteBackend) removeTriples(graphIRI string, triples []rdf.Triple) (removed, notPresent []rdf.Triple, err error) {
	tx, err := b.db.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("begin sqlite tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare("DELETE FROM triples WHERE graph_iri=? AND subject=? AND predicate=? AND object=?")
	if err != nil {
		return nil, nil, err
	}
	defer stmt.Close()

	for _, t := range triples {
		res, err := stmt.Exec(graphIRI, string(t.Subject), string(t.Predicate), string(t.Object))
		if err != nil {
			return nil, nil, fmt.Errorf("delete triple: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, nil, err
		}
		if n == 0 {
			notPresent = append(notPresent, t)
		} else {
			removed = append(removed, t)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit sqlite tx: %w", err)
	}
	return removed, notPresent, nil
}

func (b *sqliteBackend) clearGraph(graphIRI string) error {
	_, err := b.db.Exec("DELETE FROM triples WHERE graph_iri = ?", graphIRI)
	return err
}

func (b *sqliteBackend) graphs() ([]string, error) {
	rows, err := b.db.Query("SELECT DISTINCT graph_iri FROM triples")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var iri string
		if err := rows.Scan(&iri); err != nil {
			return nil, err
		}
		out = append(out, iri)
	}
	return out, rows.Err()
}

func (b *sqliteBackend) graphSize(graphIRI string) (int, error) {
	var n int
	err := b.db.QueryRow("SELECT COUNT(*) FROM triples WHERE graph_iri = ?", graphIRI).Scan(&n)
	return n, err
}

func (b *sqliteBackend) allTriples() ([]rdf.Quad, error) {
	return b.matches("", "", "", "")
}

func (b *sqliteBackend) close() error {
	return b.db.Close()
}

func (b *sqliteBackend) path() string {
	return b.filePath
}
