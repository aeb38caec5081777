// Package sqlmongo is the top-level entry point of the translation
// engine: it parses a SQL SELECT/DELETE statement (engine/sqlfrontend),
// lowers it to a MongoDB QueryPlan (engine/lowering), and can render that
// plan as mongo shell syntax (engine/render). Translate and TranslateAST
// mint a query ID (google/uuid) that tags the *ParseError returned on
// failure; Translate also attaches it to its log lines (internal/obs).
package sqlmongo

import (
	"strings"

	"github.com/google/uuid"

	"github.com/sqlmongo-engine/sqlmongo/engine/ast"
	"github.com/sqlmongo-engine/sqlmongo/engine/joinpipeline"
	"github.com/sqlmongo-engine/sqlmongo/engine/lowering"
	"github.com/sqlmongo-engine/sqlmongo/engine/models"
	"github.com/sqlmongo-engine/sqlmongo/engine/render"
	"github.com/sqlmongo-engine/sqlmongo/engine/sqlfrontend"
	"github.com/sqlmongo-engine/sqlmongo/internal/obs"
)

var log = obs.Component("sqlmongo")

// Translate parses raw SQL text and lowers it to a QueryPlan in one call.
func Translate(sql string, types models.FieldTypeMap, join joinpipeline.Collaborator) (*models.QueryPlan, error) {
	queryID := uuid.NewString()
	entry := log.With().Str("query_id", queryID).Logger()

	stmt, err := sqlfrontend.Parse(sql)
	if err != nil {
		entry.Error().Err(err).Msg("failed to parse sql")
		return nil, wrapError(err, queryID)
	}

	plan, err := TranslateAST(stmt, types, join)
	if err != nil {
		pe := wrapError(err, queryID)
		entry.Error().Err(pe).Msg("failed to lower statement")
		return nil, pe
	}

	entry.Info().Str("collection", plan.Collection).Str("op", string(plan.Op)).Msg("translated query")
	return plan, nil
}

// TranslateAST lowers an already-parsed statement, skipping the SQL text
// frontend entirely — the path engine/sqlfrontend's callers and tests
// that build ast.Statement directly both use.
func TranslateAST(stmt *ast.Statement, types models.FieldTypeMap, join joinpipeline.Collaborator) (*models.QueryPlan, error) {
	plan, err := lowering.Lower(stmt, types, join)
	if err != nil {
		return nil, wrapError(err, uuid.NewString())
	}
	return plan, nil
}

// Shell renders plan as mongo shell syntax, delegating to engine/render.
func Shell(plan *models.QueryPlan, opts models.RenderOptions) (string, error) {
	return render.Shell(plan, opts)
}

// wrapError classifies a plain error returned by engine/sqlfrontend or
// engine/lowering into a *ParseError, matching it against the literal
// message text each lowering stage produces. Errors that are already a
// *ParseError (none currently originate one directly, but a future
// lowering stage might) pass through with QueryID attached.
func wrapError(err error, queryID string) *ParseError {
	if pe, ok := err.(*ParseError); ok {
		pe.QueryID = queryID
		return pe
	}

	msg := err.Error()
	kind := classify(msg)
	return &ParseError{Kind: kind, Message: msg, QueryID: queryID, Cause: err}
}

func classify(msg string) Kind {
	switch {
	case strings.Contains(msg, "double equals"):
		return KindUnsupportedSQL
	case strings.Contains(msg, "Only select statements are supported"):
		return KindUnsupportedStatement
	case strings.Contains(msg, "Join type not suported"):
		return KindUnsupportedJoin
	case strings.Contains(msg, "distinct"):
		return KindUnsupportedDistinct
	case strings.Contains(msg, "subselect expression"):
		return KindUnsupportedSelectExpression
	case strings.Contains(msg, "project expression") || strings.Contains(msg, "select clause") || strings.Contains(msg, "group by clause"):
		return KindUnsupportedProjection
	case strings.Contains(msg, "function can only have one parameter"):
		return KindUnsupportedFunctionArity
	case strings.Contains(msg, "could not understand function"):
		return KindUnknownFunction
	case strings.Contains(msg, "too large"):
		return KindValueOutOfRange
	case strings.Contains(msg, "date"):
		return KindBadDate
	case strings.Contains(msg, "NOT LIKE"):
		return KindUnsupportedLike
	case strings.Contains(msg, "regex") || strings.Contains(msg, "LIKE"):
		return KindBadRegex
	case strings.Contains(msg, "parse complete sql string"):
		return KindUnsupportedSQL
	default:
		return KindUnsupportedSQL
	}
}
