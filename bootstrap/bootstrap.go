// Package bootstrap provisions a database from a SQL script: schema first,
// then seed rows, one statement at a time on the connection it is given.
package bootstrap

import (
	"bytes"
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/jankuo/personmap/orm"
)

//go:embed sql/create_simple_db.sql
var simpleDB []byte

// ErrProvisioning matches every *ProvisioningError with errors.Is.
var ErrProvisioning = errors.New("bootstrap: provisioning failed")

// Execer is the part of orm.Querier the bootstrapper needs.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ProvisioningError reports the statement that stopped a script. Index is
// the 0-based position of the statement in the script; Constraint is set
// when the statement violated an integrity constraint.
type ProvisioningError struct {
	Index      int
	Statement  string
	Constraint bool
	Err        error
}

func (e *ProvisioningError) Error() string {
	kind := "failed"
	if e.Constraint {
		kind = "violated a constraint"
	}
	return fmt.Sprintf("bootstrap: statement %d %s: %v", e.Index+1, kind, e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

func (e *ProvisioningError) Is(target error) bool { return target == ErrProvisioning }

// SimpleDB returns the embedded script that creates the addresses and
// people tables and seeds the Flintstone and Rubble households.
func SimpleDB() io.Reader {
	return bytes.NewReader(simpleDB)
}

// Runner executes provisioning scripts.
type Runner struct {
	log zerolog.Logger
}

// New returns a Runner that logs to log.
func New(log zerolog.Logger) *Runner {
	return &Runner{log: log.With().Str("component", "bootstrap").Logger()}
}

// Run executes script with a Runner that does not log.
func Run(ctx context.Context, db Execer, script io.Reader) error {
	return New(zerolog.Nop()).Run(ctx, db, script)
}

// Run executes every statement of script in order. It stops at the first
// failing statement and returns a *ProvisioningError; nothing is retried.
func (r *Runner) Run(ctx context.Context, db Execer, script io.Reader) error {
	src, err := io.ReadAll(script)
	if err != nil {
		return fmt.Errorf("bootstrap: read script: %w", err)
	}

	start := time.Now()
	statements := Split(string(src))
	for i, stmt := range statements {
		r.log.Debug().Int("index", i).Str("statement", stmt).Msg("exec")
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			perr := &ProvisioningError{
				Index:      i,
				Statement:  stmt,
				Constraint: orm.IsConstraintViolation(err),
				Err:        err,
			}
			r.log.Error().Err(err).Int("index", i).Str("statement", stmt).Msg("provisioning failed")
			return perr
		}
	}

	r.log.Info().Int("statements", len(statements)).Dur("took", time.Since(start)).Msg("database provisioned")
	return nil
}

// RunFile executes the script stored at path.
func (r *Runner) RunFile(ctx context.Context, db Execer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("bootstrap: open script: %w", err)
	}
	defer func() { _ = f.Close() }()
	return r.Run(ctx, db, f)
}
