package schema

// Table names used in validation messages and as storage table names.
const (
	UsersTable    = "users"
	UserWeekTable = "user_week"
)

// Column names for the user-level table.
const (
	UserID              = "user_id"
	FeedQuality         = "feed_quality"
	TxnComplexity       = "txn_complexity"
	BaselineEngagement  = "baseline_engagement"
	FeedQualityZ        = "feed_quality_z"
	TxnComplexityZ      = "txn_complexity_z"
	BaselineEngagementZ = "baseline_engagement_z"
	Wk4Retention        = "wk4_retention"
	ConfMean            = "conf_mean"
	EditMean            = "edit_mean"
)

// Column names for the user-week table. UserID is shared with the user table.
const (
	Week       = "week"
	NTxn       = "n_txn"
	Confidence = "confidence"
	EditRate   = "edit_rate"
)

// UserColumns lists the columns every validated user table must carry.
var UserColumns = []string{
	UserID,
	FeedQuality,
	TxnComplexity,
	BaselineEngagement,
	FeedQualityZ,
	TxnComplexityZ,
	BaselineEngagementZ,
	Wk4Retention,
}

// UserWeekColumns lists the columns every validated user-week table must carry.
var UserWeekColumns = []string{
	UserID,
	Week,
	Confidence,
	EditRate,
	NTxn,
}
