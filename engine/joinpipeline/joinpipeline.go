// Package joinpipeline specifies the interface between the lowering core
// and the external JOIN collaborator. JOIN support is recognized by the
// core (it influences the shape selector's decision and reserves
// QueryPlan.JoinPipeline) but building the actual $lookup/$unwind stages
// is someone else's job; this package only describes the contract.
package joinpipeline

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/sqlmongo-engine/sqlmongo/engine/ast"
)

// Collaborator turns the Joins of a parsed statement into an ordered list
// of pipeline stages to splice in between $match and $group.
type Collaborator interface {
	BuildJoinStages(joins []ast.Join) ([]bson.D, error)
}
