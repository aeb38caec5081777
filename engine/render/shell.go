// Package render implements a thin, mechanical shell-syntax formatter: it
// turns a structured QueryPlan into MongoDB shell text
// (`db.coll.find({...})`). It never makes a lowering decision — every
// branch here is a direct transcription of the Op the shape selector
// already chose.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/sqlmongo-engine/sqlmongo/engine/models"
)

// Shell renders plan as MongoDB shell syntax, honoring the explicit
// RenderOptions parameter rather than any process-wide state.
func Shell(plan *models.QueryPlan, opts models.RenderOptions) (string, error) {
	var b strings.Builder
	filter, err := pretty(plan.Filter, 0, opts.StrictNumberLong)
	if err != nil {
		return "", err
	}

	switch plan.Op {
	case models.OpFind:
		fmt.Fprintf(&b, "db.%s.find(%s", plan.Collection, filter)
		if len(plan.Projection) > 0 {
			proj, err := pretty(plan.Projection, 0, opts.StrictNumberLong)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&b, ", %s", proj)
		}
		b.WriteString(")")
		if len(plan.Sort) > 0 {
			sort, err := pretty(plan.Sort, 0, opts.StrictNumberLong)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&b, ".sort(%s)", sort)
		}
		if plan.Offset >= 0 {
			fmt.Fprintf(&b, ".skip(%s)", renderInt(plan.Offset, opts.StrictNumberLong))
		}
		if plan.Limit >= 0 {
			fmt.Fprintf(&b, ".limit(%s)", renderInt(plan.Limit, opts.StrictNumberLong))
		}

	case models.OpCount:
		fmt.Fprintf(&b, "db.%s.count(%s)", plan.Collection, filter)

	case models.OpDistinct:
		field := ""
		if len(plan.Projection) > 0 {
			field = plan.Projection[0].Key
		}
		fmt.Fprintf(&b, "db.%s.distinct(%q, %s)", plan.Collection, field, filter)

	case models.OpAggregate:
		stages := AssemblePipeline(plan)
		stagesJSON, err := pretty(bson.A(stages), 0, opts.StrictNumberLong)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "db.%s.aggregate(%s", plan.Collection, stagesJSON)
		if optionsDoc := aggregateOptions(opts); len(optionsDoc) > 0 {
			optJSON, err := pretty(optionsDoc, 0, opts.StrictNumberLong)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&b, ", %s", optJSON)
		}
		b.WriteString(")")

	case models.OpDelete:
		fmt.Fprintf(&b, "db.%s.deleteMany(%s)", plan.Collection, filter)

	default:
		return "", fmt.Errorf("unsupported query plan op: %s", plan.Op)
	}

	return b.String(), nil
}

// AssemblePipeline orders the aggregation stages: $match -> joins
// -> $group -> $sort -> $skip -> $limit -> $project (alias projection). A
// no-group aggregation (aliases present but no GROUP BY) emits a single
// final $project built from the projection document directly.
func AssemblePipeline(plan *models.QueryPlan) []interface{} {
	var stages []interface{}
	if len(plan.Filter) > 0 {
		stages = append(stages, bson.D{{Key: "$match", Value: plan.Filter}})
	}
	for _, stage := range plan.JoinPipeline {
		stages = append(stages, stage)
	}
	if len(plan.GroupBys) > 0 {
		stages = append(stages, bson.D{{Key: "$group", Value: plan.Projection}})
	}
	if len(plan.Sort) > 0 {
		stages = append(stages, bson.D{{Key: "$sort", Value: plan.Sort}})
	}
	if plan.Offset >= 0 {
		stages = append(stages, bson.D{{Key: "$skip", Value: plan.Offset}})
	}
	if plan.Limit >= 0 {
		stages = append(stages, bson.D{{Key: "$limit", Value: plan.Limit}})
	}
	if len(plan.GroupBys) > 0 {
		if len(plan.AliasProjection) > 0 {
			stages = append(stages, bson.D{{Key: "$project", Value: plan.AliasProjection}})
		}
	} else if len(plan.Projection) > 0 {
		stages = append(stages, bson.D{{Key: "$project", Value: plan.Projection}})
	}
	return stages
}

func aggregateOptions(opts models.RenderOptions) bson.D {
	var doc bson.D
	if opts.AggregationAllowDiskUse {
		doc = append(doc, bson.E{Key: "allowDiskUse", Value: true})
	}
	if opts.AggregationBatchSize != nil {
		doc = append(doc, bson.E{Key: "cursor", Value: bson.D{{Key: "batchSize", Value: *opts.AggregationBatchSize}}})
	}
	return doc
}

func renderInt(n int64, strictNumberLong bool) string {
	if strictNumberLong {
		return fmt.Sprintf(`{"$numberLong": %q}`, strconv.FormatInt(n, 10))
	}
	return strconv.FormatInt(n, 10)
}
