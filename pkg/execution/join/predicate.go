package join

import (
	"fmt"
	"storedb/pkg/execution"
	"storedb/pkg/tuple"
)

// JoinPredicate compares one field of a left-side tuple against one field of
// a right-side tuple, the equivalent of execution.Predicate for a join's
// two-tuple condition rather than a tuple-against-constant one.
type JoinPredicate struct {
	leftField  int
	op         execution.PredicateOp
	rightField int
}

// NewJoinPredicate builds a join condition of the form left[leftField] op right[rightField].
func NewJoinPredicate(leftField int, op execution.PredicateOp, rightField int) *JoinPredicate {
	return &JoinPredicate{
		leftField:  leftField,
		op:         op,
		rightField: rightField,
	}
}

// Filter reports whether the left and right tuples satisfy the join condition.
func (jp *JoinPredicate) Filter(left, right *tuple.Tuple) (bool, error) {
	leftVal, err := left.GetField(jp.leftField)
	if err != nil {
		return false, err
	}
	rightVal, err := right.GetField(jp.rightField)
	if err != nil {
		return false, err
	}
	if leftVal == nil || rightVal == nil {
		return false, nil
	}

	typePred, err := execution.GetPredicateFromOp(jp.op)
	if err != nil {
		return false, err
	}
	return leftVal.Compare(*typePred, rightVal)
}

func (jp *JoinPredicate) String() string {
	return fmt.Sprintf("left[%d] %s right[%d]", jp.leftField, jp.op.String(), jp.rightField)
}

// JoinStatistics carries the cardinality and memory estimates a join
// implementation uses to pick a strategy and report a cost.
type JoinStatistics struct {
	LeftSize   int
	RightSize  int
	MemorySize int
}
