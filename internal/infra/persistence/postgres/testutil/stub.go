// Package testutil provides a fake database/sql driver that models the
// form_fields table for postgres store tests.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
)

const (
	upsertPrefix = "INSERT INTO FORM_FIELDS"
	selectPrefix = "SELECT FORM_ID, FIELD, PAYLOAD FROM FORM_FIELDS"
)

var driverSeq atomic.Int64

// Row is one stored document keyed by form and field.
type Row struct {
	FormID  string
	Field   string
	Payload []byte
}

// StubConn records executed statements and holds form_fields rows in insertion
// order. The Fail switches make the next matching call return an error.
type StubConn struct {
	Execs      []string
	Rows       []Row
	FailExec   bool
	FailBegin  bool
	FailCommit bool
}

// NewStubDB registers a uniquely named driver and opens a sql.DB on it.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{}
	name := fmt.Sprintf("eicr-stubpg-%d", driverSeq.Add(1))
	sql.Register(name, stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

// Lookup returns the payload stored for form and field.
func (c *StubConn) Lookup(formID, field string) ([]byte, bool) {
	for _, r := range c.Rows {
		if r.FormID == formID && r.Field == field {
			return r.Payload, true
		}
	}
	return nil, false
}

type stubDriver struct {
	conn *StubConn
}

func (d stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

// Prepare implements driver.Conn; every statement goes through the context
// variants instead.
func (c *StubConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("stub: prepare not supported")
}

// Close implements driver.Conn.
func (c *StubConn) Close() error { return nil }

// Begin implements driver.Conn.
func (c *StubConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

// Ping implements driver.Pinger. FailExec also fails pings so a store cannot
// open against a broken connection.
func (c *StubConn) Ping(context.Context) error {
	if c.FailExec {
		return errors.New("stub: ping failed")
	}
	return nil
}

// BeginTx implements driver.ConnBeginTx.
func (c *StubConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	if c.FailBegin {
		return nil, errors.New("stub: begin failed")
	}
	return stubTx{conn: c}, nil
}

// ExecContext implements driver.ExecerContext. The form_fields upsert replaces
// the row with the same (form_id, field); any other statement (DDL) is only
// recorded.
func (c *StubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.Execs = append(c.Execs, query)
	if c.FailExec {
		return nil, errors.New("stub: exec failed")
	}
	if !hasPrefix(query, upsertPrefix) {
		return driver.RowsAffected(0), nil
	}
	if len(args) != 3 {
		return nil, fmt.Errorf("stub: upsert wants 3 args, got %d", len(args))
	}
	row := Row{FormID: text(args[0].Value), Field: text(args[1].Value), Payload: bytesOf(args[2].Value)}
	for i := range c.Rows {
		if c.Rows[i].FormID == row.FormID && c.Rows[i].Field == row.Field {
			c.Rows[i] = row
			return driver.RowsAffected(1), nil
		}
	}
	c.Rows = append(c.Rows, row)
	return driver.RowsAffected(1), nil
}

// QueryContext implements driver.QueryerContext for the full-table select.
func (c *StubConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	if !hasPrefix(query, selectPrefix) {
		return nil, fmt.Errorf("stub: unsupported query %q", query)
	}
	return &stubRows{rows: append([]Row(nil), c.Rows...)}, nil
}

type stubTx struct {
	conn *StubConn
}

func (t stubTx) Commit() error {
	if t.conn.FailCommit {
		return errors.New("stub: commit failed")
	}
	return nil
}

func (t stubTx) Rollback() error { return nil }

type stubRows struct {
	rows []Row
	idx  int
}

func (r *stubRows) Columns() []string { return []string{"form_id", "field", "payload"} }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		return io.EOF
	}
	row := r.rows[r.idx]
	r.idx++
	dest[0], dest[1], dest[2] = row.FormID, row.Field, row.Payload
	return nil
}

// hasPrefix compares case-insensitively with whitespace collapsed, so
// "INSERT INTO form_fields(form_id" and "insert into form_fields (" both match.
func hasPrefix(query, prefix string) bool {
	q := strings.ToUpper(strings.Join(strings.Fields(strings.ReplaceAll(query, "(", " (")), " "))
	return strings.HasPrefix(q, prefix)
}

func text(v driver.Value) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

func bytesOf(v driver.Value) []byte {
	switch t := v.(type) {
	case []byte:
		return append([]byte(nil), t...)
	case string:
		return []byte(t)
	default:
		return nil
	}
}
