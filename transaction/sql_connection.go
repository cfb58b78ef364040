package transaction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

// ErrNoTransaction is returned by Commit when no transaction is open.
var ErrNoTransaction = errors.New("no transaction is open")

// SQLConnection is a Connection over database/sql. It pins a single pooled connection so that a
// transaction begun by the harness covers every statement the application runs, and it is also
// the statement executor that the application itself uses.
//
// The application can begin and commit its own transactions. Committing ends whatever
// transaction is open, including one begun by the harness; InTransaction reflects that.
type SQLConnection struct {
	db     *sql.DB
	conn   *sql.Conn
	tx     *sql.Tx
	ownsDB bool
	lock   sync.Mutex
}

// OpenSQL opens a database and returns a SQLConnection that owns it.
func OpenSQL(ctx context.Context, driverName, dsn string) (*SQLConnection, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	c, err := NewSQLConnection(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	c.ownsDB = true
	return c, nil
}

// NewSQLConnection pins a connection from db. Closing the SQLConnection does not close db.
func NewSQLConnection(ctx context.Context, db *sql.DB) (*SQLConnection, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &SQLConnection{db: db, conn: conn}, nil
}

func (c *SQLConnection) BeginTransaction(ctx context.Context) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.tx != nil {
		return ErrTransactionActive
	}
	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	c.tx = tx
	return nil
}

// Commit commits the open transaction.
func (c *SQLConnection) Commit() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.tx == nil {
		return ErrNoTransaction
	}
	tx := c.tx
	c.tx = nil
	return tx.Commit()
}

func (c *SQLConnection) Rollback(ctx context.Context) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.tx == nil {
		return ErrNoTransaction
	}
	tx := c.tx
	c.tx = nil
	return tx.Rollback()
}

func (c *SQLConnection) InTransaction() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.tx != nil
}

type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (c *SQLConnection) executor() executor {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.tx != nil {
		return c.tx
	}
	return c.conn
}

// ExecContext runs a statement inside the open transaction, if any.
func (c *SQLConnection) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.executor().ExecContext(ctx, query, args...)
}

// QueryContext runs a query inside the open transaction, if any. Callers must close the rows.
func (c *SQLConnection) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.executor().QueryContext(ctx, query, args...)
}

// QueryRowContext runs a single-row query inside the open transaction, if any.
func (c *SQLConnection) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return c.executor().QueryRowContext(ctx, query, args...)
}

// Close rolls back any open transaction and releases the pinned connection, and also closes the
// database if it was opened by OpenSQL.
func (c *SQLConnection) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	var errs []error
	if c.tx != nil {
		if err := c.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			errs = append(errs, err)
		}
		c.tx = nil
	}
	if err := c.conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		errs = append(errs, err)
	}
	if c.ownsDB {
		if err := c.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
