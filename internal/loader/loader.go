package loader

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/jackc/pgx/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"retention-dgp/internal/database"
	"retention-dgp/internal/dgp"
	"retention-dgp/internal/schema"
)

const DefaultBatchSize = 1000

var ErrUnlabeled = errors.New("user table has no retention labels")

// Result reports how a load went. Latencies are per batch transaction.
type Result struct {
	RunID          string
	Driver         string
	Rows           int64
	Batches        int64
	Throughput     float64
	AverageLatency time.Duration
	P95Latency     time.Duration
	P99Latency     time.Duration
	TotalTime      time.Duration
	DataIntegrity  bool
}

type Loader struct {
	BatchSize int
	Logger    *zap.Logger
}

func (l *Loader) logger() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}

func (l *Loader) batchSize() int {
	if l.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return l.BatchSize
}

// Setup creates the tables on SQL backends. Mongo creates collections on first insert.
func (l *Loader) Setup(ctx context.Context, db database.DatabaseDriver) error {
	l.logger().Debug("creating dataset tables", zap.String("driver", db.Name()))
	txFunc := func(tx interface{}) error {
		for _, ddl := range []string{GetRunsSchema(), GetUsersSchema(), GetUserWeekSchema()} {
			switch tx := tx.(type) {
			case pgx.Tx:
				if _, err := tx.Exec(ctx, ddl); err != nil {
					return err
				}
			case *sql.Tx:
				if _, err := tx.ExecContext(ctx, ddl); err != nil {
					return err
				}
			case mongo.SessionContext:
				return nil
			default:
				return fmt.Errorf("unsupported transaction type: %T", tx)
			}
		}
		return nil
	}
	return db.ExecuteTx(ctx, txFunc)
}

// Teardown drops every dataset table.
func (l *Loader) Teardown(ctx context.Context, db database.DatabaseDriver) error {
	return db.Reset(ctx, Tables...)
}

// Load writes ds under runID: one metadata row, then the user and user-week
// tables in batches, one transaction per batch. If a batch fails, the rows
// already committed for runID are deleted again. It finishes by counting the
// stored rows back.
func (l *Loader) Load(ctx context.Context, db database.DatabaseDriver, ds *dgp.Dataset, runID string) (*Result, error) {
	if ds == nil || ds.Users == nil || ds.UserWeeks == nil {
		return nil, errors.New("load: dataset is incomplete")
	}
	if err := schema.RequireColumns(ds.Users, []string{schema.Wk4Retention, schema.ConfMean, schema.EditMean}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnlabeled, err)
	}
	log := l.logger().With(zap.String("driver", db.Name()), zap.String("run_id", runID))

	if err := l.Setup(ctx, db); err != nil {
		return nil, fmt.Errorf("setup %s: %w", db.Name(), err)
	}

	runRow, err := runRecord(ds, runID)
	if err != nil {
		return nil, err
	}

	// Max latency of 10 minutes in microseconds, 3 significant figures.
	histogram := hdrhistogram.New(1, 600_000_000, 3)
	result := &Result{RunID: runID, Driver: db.Name()}
	start := time.Now()

	write := func(table string, cols []string, rows [][]interface{}) error {
		size := l.batchSize()
		for lo := 0; lo < len(rows); lo += size {
			hi := min(lo+size, len(rows))
			opStart := time.Now()
			err := db.ExecuteTx(ctx, func(tx interface{}) error {
				return insertBatch(ctx, tx, table, cols, rows[lo:hi])
			})
			if err != nil {
				return fmt.Errorf("insert %s rows %d-%d: %w", table, lo, hi, err)
			}
			recordLatency(histogram, time.Since(opStart), log)
			result.Batches++
			result.Rows += int64(hi - lo)
		}
		log.Debug("table written", zap.String("table", table), zap.Int("rows", len(rows)))
		return nil
	}

	if err := write(RunsTable, runColumns, [][]interface{}{runRow}); err != nil {
		return nil, err
	}
	if err := write(schema.UsersTable, userColumns, userRows(ds.Users, runID)); err != nil {
		return nil, l.abort(ctx, db, runID, err)
	}
	if err := write(schema.UserWeekTable, userWeekColumns, userWeekRows(ds.UserWeeks, runID)); err != nil {
		return nil, l.abort(ctx, db, runID, err)
	}

	result.TotalTime = time.Since(start)
	if secs := result.TotalTime.Seconds(); secs > 0 {
		result.Throughput = float64(result.Rows) / secs
	}
	result.AverageLatency = time.Duration(histogram.Mean()) * time.Microsecond
	result.P95Latency = time.Duration(histogram.ValueAtQuantile(95)) * time.Microsecond
	result.P99Latency = time.Duration(histogram.ValueAtQuantile(99)) * time.Microsecond

	users, weeks, err := l.Count(ctx, db, runID)
	if err != nil {
		return nil, fmt.Errorf("verify %s: %w", db.Name(), err)
	}
	result.DataIntegrity = users == int64(ds.Users.Len()) && weeks == int64(ds.UserWeeks.Len())

	log.Info("dataset loaded",
		zap.Int64("rows", result.Rows),
		zap.Int64("batches", result.Batches),
		zap.Duration("total_time", result.TotalTime),
		zap.Duration("p95_batch_latency", result.P95Latency),
		zap.Bool("data_integrity", result.DataIntegrity),
	)
	return result, nil
}

// abort removes whatever part of runID was committed before cause, so a
// failed load leaves no rows behind.
func (l *Loader) abort(ctx context.Context, db database.DatabaseDriver, runID string, cause error) error {
	err := db.ExecuteTx(ctx, func(tx interface{}) error {
		for _, table := range Tables {
			if err := deleteRun(ctx, tx, table, runID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		l.logger().Warn("failed to remove partial run",
			zap.String("driver", db.Name()), zap.String("run_id", runID), zap.Error(err))
		return errors.Join(cause, fmt.Errorf("remove partial run %s: %w", runID, err))
	}
	return cause
}

// recordLatency stores d in microseconds, clamping anything above the
// histogram's ceiling so slow batches still count toward the tail.
func recordLatency(histogram *hdrhistogram.Histogram, d time.Duration, log *zap.Logger) {
	v := d.Microseconds()
	if ceiling := histogram.HighestTrackableValue(); v > ceiling {
		log.Debug("batch latency above histogram ceiling",
			zap.Duration("latency", d), zap.Int64("ceiling_us", ceiling))
		v = ceiling
	}
	if err := histogram.RecordValue(max(v, 1)); err != nil {
		log.Debug("batch latency not recorded", zap.Duration("latency", d), zap.Error(err))
	}
}

// Count returns how many user and user-week rows are stored for runID.
func (l *Loader) Count(ctx context.Context, db database.DatabaseDriver, runID string) (users, weeks int64, err error) {
	err = db.ExecuteTx(ctx, func(tx interface{}) error {
		var err error
		if users, err = countRows(ctx, tx, schema.UsersTable, runID); err != nil {
			return err
		}
		weeks, err = countRows(ctx, tx, schema.UserWeekTable, runID)
		return err
	})
	return users, weeks, err
}

func countRows(ctx context.Context, tx interface{}, table, runID string) (int64, error) {
	var n int64
	switch tx := tx.(type) {
	case pgx.Tx:
		err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM "+table+" WHERE run_id = $1", runID).Scan(&n)
		return n, err
	case *sql.Tx:
		err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+" WHERE run_id = ?", runID).Scan(&n)
		return n, err
	case mongo.SessionContext:
		return tx.Client().Database(database.MongoDatabase).Collection(table).CountDocuments(tx, bson.M{RunID: runID})
	default:
		return 0, fmt.Errorf("unsupported transaction type: %T", tx)
	}
}

func deleteRun(ctx context.Context, tx interface{}, table, runID string) error {
	switch tx := tx.(type) {
	case pgx.Tx:
		_, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE run_id = $1", runID)
		return err
	case *sql.Tx:
		_, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id = ?", runID)
		return err
	case mongo.SessionContext:
		_, err := tx.Client().Database(database.MongoDatabase).Collection(table).DeleteMany(tx, bson.M{RunID: runID})
		return err
	default:
		return fmt.Errorf("unsupported transaction type: %T", tx)
	}
}

func insertBatch(ctx context.Context, tx interface{}, table string, cols []string, rows [][]interface{}) error {
	switch tx := tx.(type) {
	case pgx.Tx:
		_, err := tx.CopyFrom(ctx, pgx.Identifier{table}, cols, pgx.CopyFromRows(rows))
		return err
	case *sql.Tx:
		placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ") + ")"
		valueStrings := make([]string, 0, len(rows))
		valueArgs := make([]interface{}, 0, len(rows)*len(cols))
		for _, row := range rows {
			valueStrings = append(valueStrings, placeholder)
			valueArgs = append(valueArgs, row...)
		}
		stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, strings.Join(cols, ", "), strings.Join(valueStrings, ","))
		_, err := tx.ExecContext(ctx, stmt, valueArgs...)
		return err
	case mongo.SessionContext:
		docs := make([]interface{}, len(rows))
		for i, row := range rows {
			doc := make(bson.D, len(cols))
			for j, col := range cols {
				doc[j] = bson.E{Key: col, Value: row[j]}
			}
			docs[i] = doc
		}
		_, err := tx.Client().Database(database.MongoDatabase).Collection(table).InsertMany(tx, docs)
		return err
	default:
		return fmt.Errorf("unsupported transaction type: %T", tx)
	}
}

func runRecord(ds *dgp.Dataset, runID string) ([]interface{}, error) {
	params, err := json.Marshal(ds.Options.Params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	o := ds.Options
	return []interface{}{
		runID,
		time.Now().UTC(),
		o.Seed,
		int64(o.NUsers),
		int64(o.NWeeks),
		int64(o.T0Week),
		int64(o.RetentionWeek),
		string(params),
	}, nil
}

func userRows(u *dgp.Users, runID string) [][]interface{} {
	rows := make([][]interface{}, u.Len())
	for i := range rows {
		rows[i] = []interface{}{
			runID,
			u.UserID[i],
			u.FeedQuality[i],
			u.TxnComplexity[i],
			u.BaselineEngagement[i],
			u.FeedQualityZ[i],
			u.TxnComplexityZ[i],
			u.BaselineEngagementZ[i],
			u.Wk4Retention[i],
			u.ConfMean[i],
			u.EditMean[i],
		}
	}
	return rows
}

func userWeekRows(w *dgp.UserWeeks, runID string) [][]interface{} {
	rows := make([][]interface{}, w.Len())
	for i := range rows {
		rows[i] = []interface{}{
			runID,
			w.UserID[i],
			w.Week[i],
			w.NTxn[i],
			w.Confidence[i],
			w.EditRate[i],
		}
	}
	return rows
}
