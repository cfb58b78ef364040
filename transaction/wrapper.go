package transaction

import (
	"context"
	"errors"

	"github.com/launchdarkly/app-test-harness/framework"
)

// ErrTransactionActive is returned by Wrapper.Begin if the previous test's transaction is still open.
var ErrTransactionActive = errors.New("a test transaction is already active")

// Connection is the database connection of an application under test, as seen by the harness.
type Connection interface {
	// BeginTransaction starts a transaction.
	BeginTransaction(ctx context.Context) error

	// Rollback rolls back the current transaction.
	Rollback(ctx context.Context) error

	// InTransaction reports whether a transaction is actually open on the connection. This can
	// become false during a test if the application commits or rolls back on its own.
	InTransaction() bool
}

// Isolator wraps each test in a transaction.
type Isolator interface {
	// Begin starts a test transaction on conn. A nil conn means isolation is unavailable, and
	// Begin does nothing.
	Begin(ctx context.Context, conn Connection) error

	// Rollback ends the test transaction, if there is one. It never fails; see Wrapper.Rollback.
	Rollback(ctx context.Context)

	// Active reports whether a test transaction handle is held.
	Active() bool
}

type handle struct {
	conn    Connection
	started bool
}

// Wrapper is the standard Isolator. It holds at most one transaction handle at a time.
type Wrapper struct {
	current *handle
	logger  framework.Logger
}

// NewWrapper creates a Wrapper. Rollback problems are reported to logger.
func NewWrapper(logger framework.Logger) *Wrapper {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Wrapper{logger: logger}
}

func (w *Wrapper) Begin(ctx context.Context, conn Connection) error {
	if conn == nil {
		return nil
	}
	if w.current != nil {
		return ErrTransactionActive
	}
	if err := conn.BeginTransaction(ctx); err != nil {
		return err
	}
	w.current = &handle{conn: conn, started: true}
	return nil
}

// Rollback is idempotent. If no handle is held, it does nothing. Otherwise it rolls back only if
// the connection still reports an open transaction, because the application under test may
// already have ended it, and then discards the handle whatever happened. A rollback error is
// logged rather than returned: by the time a test is over, there is nothing more to do about it.
func (w *Wrapper) Rollback(ctx context.Context) {
	h := w.current
	if h == nil {
		return
	}
	w.current = nil
	if !h.started || !h.conn.InTransaction() {
		w.logger.Printf("Test transaction was already closed by the application; nothing to roll back")
		return
	}
	if err := h.conn.Rollback(ctx); err != nil {
		w.logger.Printf("Rollback of test transaction failed: %s", err)
	}
}

func (w *Wrapper) Active() bool {
	return w.current != nil
}
