package fee

import (
	"context"
	"fmt"
	"math/big"

	"swaproute/chain"
)

// Segment is the slice of an atomic operation the composer needs: fee
// estimation, backward quoting, and the chaining flag that suppresses
// double-charging when a predecessor already covers downstream cost.
type Segment interface {
	// EstimateFee prices the segment. Estimation failures abort the whole
	// composition; a partial fee is never returned.
	EstimateFee(ctx context.Context) (*OperationFee, error)

	// RequiredAmountIn back-propagates an output requirement to the input
	// side of the segment via buy-direction quotes.
	RequiredAmountIn(ctx context.Context, amountOut *big.Int) (*big.Int, error)

	// IgnoresFeeRequirement reports whether the segment's computed fee
	// requirement should be skipped when chaining after its predecessor.
	IgnoresFeeRequirement() bool
}

// Compose estimates every segment's fee and aggregates the route fee. All
// estimates must succeed; any missing dependency fails the composition.
func Compose(ctx context.Context, segments []Segment, feeAsset chain.AssetID) (*RouteFee, error) {
	operations := make([]OperationFee, 0, len(segments))
	for i, segment := range segments {
		operationFee, err := segment.EstimateFee(ctx)
		if err != nil {
			return nil, fmt.Errorf("estimating fee for segment %d: %w", i, err)
		}
		operations = append(operations, *operationFee)
	}

	intermediate, err := intermediateFeesInAssetIn(ctx, segments, operations)
	if err != nil {
		return nil, err
	}

	return &RouteFee{
		Operations:            operations,
		IntermediateInAssetIn: intermediate,
		FeeAsset:              feeAsset,
	}, nil
}

// intermediateFeesInAssetIn walks the segments backward, converting each
// non-first segment's initiator-paid fee into the route's input asset by
// chaining buy-direction quotes through the preceding segments.
func intermediateFeesInAssetIn(
	ctx context.Context,
	segments []Segment,
	operations []OperationFee,
) (*big.Int, error) {
	requirement := new(big.Int)
	for i := len(segments) - 1; i > 0; i-- {
		if segments[i].IgnoresFeeRequirement() {
			continue
		}
		segmentFee, err := operations[i].TotalEnsuringSubmissionAsset(MatchInitiator())
		if err != nil {
			return nil, err
		}
		requirement.Add(requirement, segmentFee)

		if requirement.Sign() == 0 {
			continue
		}
		converted, err := segments[i-1].RequiredAmountIn(ctx, requirement)
		if err != nil {
			return nil, fmt.Errorf("converting intermediate fee through segment %d: %w", i-1, err)
		}
		requirement = converted
	}
	return requirement, nil
}
