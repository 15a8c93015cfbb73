package compliance

// =============================================================================
// GRANDFATHERING - Original vs current bucket
// =============================================================================

// Resolve applies the grandfathering ("140%") rule. A household whose
// income has grown since move-in keeps its original, more restrictive
// bucket. A unit that was originally Market gets no protection: the
// current bucket stands.
func Resolve(actual, original Bucket) Bucket {
	if original == BucketMarket {
		return actual
	}
	if original.MoreRestrictiveThan(actual) {
		return original
	}
	return actual
}
