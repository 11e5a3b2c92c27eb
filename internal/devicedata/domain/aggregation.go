package devicedata

// AggregationType selects the reduction applied to each bucket.
type AggregationType string

const (
	AggregationAvg   AggregationType = "avg"
	AggregationMin   AggregationType = "min"
	AggregationMax   AggregationType = "max"
	AggregationSum   AggregationType = "sum"
	AggregationCount AggregationType = "count"
)

// ParseAggregationType validates an aggregation type string.
func ParseAggregationType(value string) (AggregationType, bool) {
	switch AggregationType(value) {
	case AggregationAvg, AggregationMin, AggregationMax, AggregationSum, AggregationCount:
		return AggregationType(value), true
	default:
		return "", false
	}
}
