package lowering

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/sqlmongo-engine/sqlmongo/engine/ast"
	"github.com/sqlmongo-engine/sqlmongo/engine/coerce"
	"github.com/sqlmongo-engine/sqlmongo/engine/joinpipeline"
	"github.com/sqlmongo-engine/sqlmongo/engine/models"
	"github.com/sqlmongo-engine/sqlmongo/engine/validator"
)

// Lower runs the full lowering pipeline over a parsed statement and
// produces a QueryPlan. join is the optional JoinPipeline collaborator
// (nil when the statement has no joins, or when the caller has none to
// offer — the core leaves QueryPlan.JoinPipeline empty in that case).
// Dealias runs first, then the Validator, then the Where/Select/Group/Sort
// lowerers, then the shape selector picks the output Op. Pipeline stage
// order is assembled later, by render.AssemblePipeline.
func Lower(stmt *ast.Statement, types models.FieldTypeMap, join joinpipeline.Collaborator) (*models.QueryPlan, error) {
	Dealias(stmt)

	if err := validator.Validate(stmt); err != nil {
		return nil, err
	}

	plan := models.NewQueryPlan(stmt.FromTable)

	filter, err := Where(stmt.Where, types)
	if err != nil {
		return nil, err
	}
	plan.Filter = filter

	if len(stmt.Joins) > 0 && join != nil {
		stages, err := join.BuildJoinStages(stmt.Joins)
		if err != nil {
			return nil, err
		}
		plan.JoinPipeline = stages
	}

	if stmt.Kind == "Delete" {
		plan.Op = models.OpDelete
		return plan, nil
	}

	if err := applyOffsetLimit(plan, stmt); err != nil {
		return nil, err
	}
	plan.Distinct = stmt.Distinct
	plan.CountAll = stmt.IsCountAll()

	switch {
	case stmt.Distinct:
		plan.Projection = distinctProjection(stmt.Items, stmt.FromAlias)
		plan.Op = models.OpDistinct

	case plan.CountAll:
		plan.Op = models.OpCount

	case len(stmt.GroupBys) > 0:
		group, err := Group(stmt.Items, stmt.GroupBys, stmt.FromAlias, types)
		if err != nil {
			return nil, err
		}
		plan.GroupBys = stmt.GroupBys
		plan.Projection = group.Stage
		plan.AliasProjection = group.AliasProjection
		if err := applySort(plan, stmt, group); err != nil {
			return nil, err
		}
		plan.Op = models.OpAggregate

	default:
		projection, hasAlias, err := Select(stmt.Items, stmt.FromAlias, types)
		if err != nil {
			return nil, err
		}
		plan.Projection = projection
		if err := applySort(plan, stmt, nil); err != nil {
			return nil, err
		}
		plan.Op = Shape(stmt, hasAlias)
	}

	return plan, nil
}

func applySort(plan *models.QueryPlan, stmt *ast.Statement, group *GroupResult) error {
	sort, err := Sort(stmt.OrderBys, stmt.FromAlias, group)
	if err != nil {
		return err
	}
	plan.Sort = sort
	return nil
}

func applyOffsetLimit(plan *models.QueryPlan, stmt *ast.Statement) error {
	off, lim, err := OffsetLimit(stmt.Offset, stmt.Limit, coerce.IntOverflowCheck)
	if err != nil {
		return err
	}
	plan.Offset = off
	plan.Limit = lim
	return nil
}

// distinctProjection builds the single-entry projection DISTINCT requires
// (Invariant 1) — the Validator has already enforced exactly one non-*
// column by the time this runs.
func distinctProjection(items []ast.SelectItem, fromAlias string) bson.D {
	for _, item := range items {
		if item.All || item.Expr.Type != "Column" {
			continue
		}
		path := strings.Join(stripTableAlias(item.Expr.Parts, fromAlias), ".")
		return bson.D{{Key: path, Value: 1}}
	}
	return bson.D{}
}
