package metadata

// --- SQL Keys ---
// These keys are used for the 'key' column in the 'metadata' table.
const (
	// LastPointsRecalcAtKey stores the RFC3339 time of the last successful
	// full user-points recalculation. It bounds the staleness window between
	// an activity's approval and the next recalculation pass.
	LastPointsRecalcAtKey = "last_points_recalc_at"

	// LastProvinceRecalcAtKey stores the RFC3339 time of the last successful
	// province stats recalculation.
	LastProvinceRecalcAtKey = "last_province_recalc_at"

	// LastProjectedActivityIDKey stores the ID of the last approved activity
	// applied to the Redis projections by the activity processor.
	LastProjectedActivityIDKey = "last_projected_activity_id"
)

// --- Redis Keys ---
const (
	// RedisLastProjectedActivityIDKey is the live checkpoint of the activity
	// processor, mirrored into SQL on snapshot.
	RedisLastProjectedActivityIDKey = "meta:last_projected_activity_id"

	// RedisTotalActivitiesKey is a live counter of approved activities.
	RedisTotalActivitiesKey = "meta:total_activities"
)
