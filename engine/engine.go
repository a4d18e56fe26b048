package engine

import (
	"errors"
	"fmt"

	"github.com/razeghi71/tabql/ast"
	"github.com/razeghi71/tabql/internal/logger"
	"github.com/razeghi71/tabql/parser"
	"github.com/razeghi71/tabql/plot"
	"github.com/razeghi71/tabql/table"
)

// Source loads a table from a path.
type Source interface {
	Load(path string) (*table.Table, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(path string) (*table.Table, error)

func (f SourceFunc) Load(path string) (*table.Table, error) { return f(path) }

// Session owns a table store and runs statements against it. A Session is
// not safe for concurrent use.
type Session struct {
	Store    *table.Store
	source   Source
	renderer plot.Renderer
	log      *logger.Logger
}

// NewSession creates a session with an empty store. renderer may be nil, in
// which case PLOT only validates its request; log may be nil.
func NewSession(source Source, renderer plot.Renderer, log *logger.Logger) *Session {
	if log == nil {
		log = logger.NewNop()
	}
	return &Session{
		Store:    table.NewStore(),
		source:   source,
		renderer: renderer,
		log:      log.Named("session"),
	}
}

// Execute runs one statement. LOAD returns the loaded table, SELECT its
// result, a clean command the table as stored afterwards, and PLOT the
// plotted table. A failed statement leaves the store untouched.
func (s *Session) Execute(stmt ast.Statement) (*table.Table, error) {
	kind := statementKind(stmt)
	result, err := s.execute(stmt)
	if err != nil {
		s.log.Warn("statement failed", "kind", kind, "error", err)
		return nil, err
	}
	s.log.Debug("statement executed", "kind", kind, "rows", result.NumRows(), "columns", len(result.Columns))
	return result, nil
}

func (s *Session) execute(stmt ast.Statement) (*table.Table, error) {
	switch st := stmt.(type) {
	case *ast.LoadStmt:
		return s.execLoad(st)
	case *ast.SelectStmt:
		result, err := execSelect(st, s.Store)
		if err != nil {
			return nil, err
		}
		if st.Into != "" {
			s.Store.Put(st.Into, result)
		}
		return result, nil
	case ast.CleanCommand:
		return execClean(st, s.Store)
	case *ast.PlotStmt:
		return s.execPlot(st)
	default:
		return nil, fmt.Errorf("%w: statement type %T", ErrInvalidArgument, stmt)
	}
}

func (s *Session) execLoad(st *ast.LoadStmt) (*table.Table, error) {
	if s.source == nil {
		return nil, fmt.Errorf("load %q: no table source configured", st.Path)
	}
	t, err := s.source.Load(st.Path)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", st.Path, err)
	}
	s.Store.Put(st.Table, t)
	return t, nil
}

func (s *Session) execPlot(st *ast.PlotStmt) (*table.Table, error) {
	t, ok := s.Store.Get(st.Table)
	if !ok {
		return nil, tableNotFound(st.Table)
	}
	if err := plot.Validate(t, st.Columns, st.Kind); err != nil {
		return nil, plotError(err)
	}
	if s.renderer != nil {
		if err := s.renderer.Render(t, st.Columns, st.Kind); err != nil {
			return nil, plotError(err)
		}
	}
	return t, nil
}

// plotError classifies a renderer error into the engine's error classes.
func plotError(err error) error {
	switch {
	case errors.Is(err, plot.ErrNoColumn):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, plot.ErrColumnKind):
		return fmt.Errorf("%w: %w", ErrType, err)
	case errors.Is(err, plot.ErrColumnCount):
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return err
}

// ReportFunc is called by ExecuteScript after each successful statement.
type ReportFunc func(stmt ast.Statement, result *table.Table) error

// ExecuteScript parses input as a sequence of statements and runs them in
// order, stopping at the first failure. Effects of the statements before
// the failure are kept. The results of the successful statements are
// returned either way. When report is non-nil it sees every result as it is
// produced, and an error from it stops the script as well. Errors from a
// script of more than one statement name the failing statement.
func (s *Session) ExecuteScript(input string, report ReportFunc) ([]*table.Table, error) {
	stmts, err := parser.ParseScript(input)
	if err != nil {
		return nil, err
	}
	results := make([]*table.Table, 0, len(stmts))
	for i, stmt := range stmts {
		t, err := s.Execute(stmt)
		if err == nil {
			results = append(results, t)
			if report != nil {
				err = report(stmt, t)
			}
		}
		if err != nil {
			if len(stmts) == 1 {
				return results, err
			}
			return results, fmt.Errorf("statement %d (%s): %w", i+1, statementKind(stmt), err)
		}
	}
	return results, nil
}

func statementKind(stmt ast.Statement) string {
	switch stmt.(type) {
	case *ast.LoadStmt:
		return "load"
	case *ast.SelectStmt:
		return "select"
	case *ast.FillNaStmt:
		return "fill_na"
	case *ast.DropNaStmt:
		return "drop_na"
	case *ast.RemoveStringsStmt:
		return "remove_strings"
	case *ast.RemoveNumbersStmt:
		return "remove_numbers"
	case *ast.DropStmt:
		return "drop"
	case *ast.ReplaceCellStmt:
		return "replace"
	case *ast.FilterOutliersStmt:
		return "filter_outliers"
	case *ast.NormalizeStmt:
		return "normalize"
	case *ast.PlotStmt:
		return "plot"
	}
	return fmt.Sprintf("%T", stmt)
}
