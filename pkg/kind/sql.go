package kind

import (
	"context"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// ModifySQLFn is a hook applied to every statement before it is executed,
// including the DDL the Store uses to create the bookkeeping table. It may
// return a single replacement statement or an ordered sequence of
// statements to substitute in its place.
type ModifySQLFn func(statement string) ([]string, error)

var (
	separatorRe = regexp.MustCompile(`(?m)^--;;.*\n`)
	commentRe   = regexp.MustCompile(`(?m)^--.*$`)
)

// SplitStatements splits raw SQL text into executable statement fragments
// on the literal separator line (default "--;;"), then strips line
// comments and fully-blank lines from each fragment. Empty fragments are
// dropped.
//
// A custom separator can be used in place of "--;;" via splitOn; pass ""
// to use the default.
func SplitStatements(sql, splitOn string) []string {
	sep := separatorRe
	if splitOn != "" && splitOn != "--;;" {
		sep = regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(splitOn) + `.*\n`)
	}

	var fragments []string
	for _, raw := range sep.Split(sql, -1) {
		stripped := commentRe.ReplaceAllString(raw, "")

		var lines []string
		for _, line := range strings.Split(stripped, "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			lines = append(lines, line)
		}

		fragment := strings.TrimSpace(strings.Join(lines, "\n"))
		if fragment != "" {
			fragments = append(fragments, fragment)
		}
	}

	return fragments
}

// Sql is the SQL migration kind: its payload is raw multi-statement text,
// split on CommandSeparator and executed fragment by fragment.
type Sql struct {
	// UpSQL is the raw up-migration text, or "" if this migration has no
	// up side effect.
	UpSQL string

	// DownSQL is the raw down-migration text, or "" if this migration has
	// no down side effect.
	DownSQL string

	// Separator overrides the statement separator (default "--;;").
	Separator string

	// ModifyFn, if set, is applied to every statement before execution.
	ModifyFn ModifySQLFn
}

// NewSql constructs a Sql kind from up and down script text. Either may be
// empty to indicate that side is absent.
func NewSql(upSQL, downSQL string) *Sql {
	return &Sql{UpSQL: upSQL, DownSQL: downSQL}
}

// Configurable is implemented by Kinds that accept a statement separator
// and a modify-sql-fn hook from configuration, after construction, rather
// than only at build time. Discovery uses it to thread wrench.yaml's
// command_separator and the Store's modify-sql-fn into every discovered
// descriptor.
type Configurable interface {
	SetSeparator(string)
	SetModifyFn(ModifySQLFn)
}

// SetSeparator overrides the statement separator (default "--;;").
func (s *Sql) SetSeparator(sep string) { s.Separator = sep }

// SetModifyFn installs the hook applied to every statement before it runs.
func (s *Sql) SetModifyFn(fn ModifySQLFn) { s.ModifyFn = fn }

func (s *Sql) Up(ctx context.Context, conn Conn) error {
	if s.UpSQL == "" {
		return ErrNoSideEffect
	}
	return s.exec(ctx, conn, s.UpSQL)
}

func (s *Sql) Down(ctx context.Context, conn Conn) error {
	if s.DownSQL == "" {
		return ErrNoSideEffect
	}
	return s.exec(ctx, conn, s.DownSQL)
}

func (s *Sql) exec(ctx context.Context, conn Conn, sql string) error {
	for i, stmt := range SplitStatements(sql, s.Separator) {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "cancelled before statement dispatch")
		}

		stmts := []string{stmt}
		if s.ModifyFn != nil {
			modified, err := s.ModifyFn(stmt)
			if err != nil {
				return errors.Wrapf(err, "modify-sql-fn failed on statement %d", i+1)
			}
			stmts = modified
		}

		for _, st := range stmts {
			if _, err := conn.ExecContext(ctx, st); err != nil {
				return errors.Wrapf(err, "statement %d failed: %s", i+1, st)
			}
		}
	}
	return nil
}
