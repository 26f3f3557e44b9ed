package loader

import "retention-dgp/internal/schema"

// RunsTable holds one metadata row per loaded dataset.
const RunsTable = "dataset_runs"

// RunID is the column every stored row carries to tell datasets apart.
const RunID = "run_id"

// Tables lists every table the loader writes, in drop-safe order.
var Tables = []string{schema.UserWeekTable, schema.UsersTable, RunsTable}

var runColumns = []string{RunID, "created_at", "seed", "n_users", "n_weeks", "t0_week", "retention_week", "params"}

var userColumns = []string{
	RunID,
	schema.UserID,
	schema.FeedQuality,
	schema.TxnComplexity,
	schema.BaselineEngagement,
	schema.FeedQualityZ,
	schema.TxnComplexityZ,
	schema.BaselineEngagementZ,
	schema.Wk4Retention,
	schema.ConfMean,
	schema.EditMean,
}

var userWeekColumns = []string{
	RunID,
	schema.UserID,
	schema.Week,
	schema.NTxn,
	schema.Confidence,
	schema.EditRate,
}

// The DDL sticks to types Postgres, MySQL and SQLite all accept.

func GetRunsSchema() string {
	return `
		CREATE TABLE IF NOT EXISTS dataset_runs (
			run_id VARCHAR(36) PRIMARY KEY,
			created_at TIMESTAMP NOT NULL,
			seed BIGINT NOT NULL,
			n_users INT NOT NULL,
			n_weeks INT NOT NULL,
			t0_week INT NOT NULL,
			retention_week INT NOT NULL,
			params TEXT NOT NULL
		);
	`
}

func GetUsersSchema() string {
	return `
		CREATE TABLE IF NOT EXISTS users (
			run_id VARCHAR(36) NOT NULL,
			user_id BIGINT NOT NULL,
			feed_quality DOUBLE PRECISION NOT NULL,
			txn_complexity DOUBLE PRECISION NOT NULL,
			baseline_engagement DOUBLE PRECISION NOT NULL,
			feed_quality_z DOUBLE PRECISION NOT NULL,
			txn_complexity_z DOUBLE PRECISION NOT NULL,
			baseline_engagement_z DOUBLE PRECISION NOT NULL,
			wk4_retention SMALLINT NOT NULL,
			conf_mean DOUBLE PRECISION NOT NULL,
			edit_mean DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (run_id, user_id)
		);
	`
}

func GetUserWeekSchema() string {
	return `
		CREATE TABLE IF NOT EXISTS user_week (
			run_id VARCHAR(36) NOT NULL,
			user_id BIGINT NOT NULL,
			week INT NOT NULL,
			n_txn BIGINT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			edit_rate DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (run_id, user_id, week)
		);
	`
}

/*
MongoDB document structure:

dataset_runs: {
  run_id: <string>,
  created_at: <date>,
  seed: <number>,
  n_users: <number>,
  n_weeks: <number>,
  t0_week: <number>,
  retention_week: <number>,
  params: <string, JSON>
}

users: {
  run_id: <string>,
  user_id: <number>,
  feed_quality: <number>,
  ... one field per user column ...
  wk4_retention: <number, 0 or 1>,
  conf_mean: <number>,
  edit_mean: <number>
}

user_week: {
  run_id: <string>,
  user_id: <number>,
  week: <number>,
  n_txn: <number>,
  confidence: <number>,
  edit_rate: <number>
}

*/
