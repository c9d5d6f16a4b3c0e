package join

import (
	"fmt"
	"storedb/pkg/execution"
	"storedb/pkg/tuple"
)

// NestedLoopJoin joins its two children with a plain nested-loop: the right
// (inner) child is advanced one tuple at a time, and the left (outer) child
// only advances once the inner side is exhausted and rewound. This is a
// literal Cartesian product with a predicate filter, not a block-buffered
// join — every (left, right) pair is visited once, in right-side-fastest
// order.
type NestedLoopJoin struct {
	base       *execution.BaseIterator
	leftChild  execution.DbIterator
	rightChild execution.DbIterator
	predicate  *JoinPredicate
	tupleDesc  *tuple.TupleDescription
	stats      *JoinStatistics
	leftTuple  *tuple.Tuple
}

// NewNestedLoopJoin creates a join of left and right filtered by pred.
func NewNestedLoopJoin(left, right execution.DbIterator, pred *JoinPredicate, stats *JoinStatistics) (*NestedLoopJoin, error) {
	if left == nil || right == nil {
		return nil, fmt.Errorf("join children cannot be nil")
	}
	if pred == nil {
		return nil, fmt.Errorf("join predicate cannot be nil")
	}

	leftDesc := left.GetTupleDesc()
	rightDesc := right.GetTupleDesc()
	if leftDesc == nil || rightDesc == nil {
		return nil, fmt.Errorf("join children must have a tuple description")
	}

	nl := &NestedLoopJoin{
		leftChild:  left,
		rightChild: right,
		predicate:  pred,
		tupleDesc:  tuple.Combine(leftDesc, rightDesc),
		stats:      stats,
	}
	nl.base = execution.NewBaseIterator(nl.readNext)
	return nl, nil
}

// GetTupleDesc returns the concatenation of the left and right child schemas.
func (nl *NestedLoopJoin) GetTupleDesc() *tuple.TupleDescription {
	return nl.tupleDesc
}

// Open opens both children; the first outer tuple is read on the first
// HasNext or Next call.
func (nl *NestedLoopJoin) Open() error {
	if err := nl.leftChild.Open(); err != nil {
		return fmt.Errorf("failed to open left child: %w", err)
	}
	if err := nl.rightChild.Open(); err != nil {
		return fmt.Errorf("failed to open right child: %w", err)
	}
	nl.leftTuple = nil
	nl.base.MarkOpened()
	return nil
}

// Close closes both children.
func (nl *NestedLoopJoin) Close() error {
	nl.leftChild.Close()
	nl.rightChild.Close()
	nl.leftTuple = nil
	return nl.base.Close()
}

// Rewind restarts both children from their first tuple.
func (nl *NestedLoopJoin) Rewind() error {
	if err := nl.leftChild.Rewind(); err != nil {
		return err
	}
	if err := nl.rightChild.Rewind(); err != nil {
		return err
	}
	nl.leftTuple = nil
	nl.base.ClearCache()
	return nil
}

func (nl *NestedLoopJoin) HasNext() (bool, error) { return nl.base.HasNext() }
func (nl *NestedLoopJoin) Next() (*tuple.Tuple, error) { return nl.base.Next() }

// readNext advances the inner side one tuple at a time, stepping the outer
// side and rewinding the inner side whenever it runs dry.
func (nl *NestedLoopJoin) readNext() (*tuple.Tuple, error) {
	for {
		if nl.leftTuple == nil {
			hasNext, err := nl.leftChild.HasNext()
			if err != nil {
				return nil, err
			}
			if !hasNext {
				return nil, nil
			}
			nl.leftTuple, err = nl.leftChild.Next()
			if err != nil {
				return nil, err
			}
			if err := nl.rightChild.Rewind(); err != nil {
				return nil, err
			}
		}

		hasNext, err := nl.rightChild.HasNext()
		if err != nil {
			return nil, err
		}
		if !hasNext {
			nl.leftTuple = nil
			continue
		}

		rightTuple, err := nl.rightChild.Next()
		if err != nil {
			return nil, err
		}
		if rightTuple == nil {
			nl.leftTuple = nil
			continue
		}

		matches, err := nl.predicate.Filter(nl.leftTuple, rightTuple)
		if err != nil {
			return nil, err
		}
		if !matches {
			continue
		}

		return tuple.CombineTuples(nl.leftTuple, rightTuple)
	}
}

// EstimateCost returns the estimated tuple-comparison cost |R| * |S| for a
// plain nested loop over LeftSize and RightSize rows.
func (nl *NestedLoopJoin) EstimateCost() float64 {
	if nl.stats == nil {
		return 1_000_000
	}
	return float64(nl.stats.LeftSize) * float64(nl.stats.RightSize)
}
