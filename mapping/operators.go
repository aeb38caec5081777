// Package mapping holds the static operator table the where lowerer
// consults to turn a SQL comparison operator into its MongoDB query
// operator. There is only ever one lowering target, so the table carries
// a single entry per operator rather than one per dialect.
package mapping

// MongoOperators maps a SQL comparison operator to the MongoDB query
// operator it lowers to.
var MongoOperators = map[string]string{
	"=":  "$eq",
	"!=": "$ne",
	">":  "$gt",
	">=": "$gte",
	"<":  "$lt",
	"<=": "$lte",
}

// MongoOperator looks up op's MongoDB equivalent.
func MongoOperator(op string) (string, bool) {
	v, ok := MongoOperators[op]
	return v, ok
}
