package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/compress"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"
	"golang.org/x/sync/errgroup"

	"retention-dgp/internal/dgp"
	"retention-dgp/internal/schema"
)

// Pool is the allocator used for every Arrow buffer built here.
var Pool = memory.NewGoAllocator()

// UsersSchema is the Arrow layout of a labeled user table.
var UsersSchema = arrow.NewSchema([]arrow.Field{
	{Name: schema.UserID, Type: arrow.PrimitiveTypes.Int64},
	{Name: schema.FeedQuality, Type: arrow.PrimitiveTypes.Float64},
	{Name: schema.TxnComplexity, Type: arrow.PrimitiveTypes.Float64},
	{Name: schema.BaselineEngagement, Type: arrow.PrimitiveTypes.Float64},
	{Name: schema.FeedQualityZ, Type: arrow.PrimitiveTypes.Float64},
	{Name: schema.TxnComplexityZ, Type: arrow.PrimitiveTypes.Float64},
	{Name: schema.BaselineEngagementZ, Type: arrow.PrimitiveTypes.Float64},
	{Name: schema.Wk4Retention, Type: arrow.PrimitiveTypes.Int64},
	{Name: schema.ConfMean, Type: arrow.PrimitiveTypes.Float64},
	{Name: schema.EditMean, Type: arrow.PrimitiveTypes.Float64},
}, nil)

// UserWeekSchema is the Arrow layout of the user-week table.
var UserWeekSchema = arrow.NewSchema([]arrow.Field{
	{Name: schema.UserID, Type: arrow.PrimitiveTypes.Int64},
	{Name: schema.Week, Type: arrow.PrimitiveTypes.Int64},
	{Name: schema.NTxn, Type: arrow.PrimitiveTypes.Int64},
	{Name: schema.Confidence, Type: arrow.PrimitiveTypes.Float64},
	{Name: schema.EditRate, Type: arrow.PrimitiveTypes.Float64},
}, nil)

// UsersRecord builds an Arrow record from a labeled user table. The caller releases it.
func UsersRecord(mem memory.Allocator, u *dgp.Users) (arrow.Record, error) {
	if err := schema.RequireColumns(u, []string{schema.Wk4Retention, schema.ConfMean, schema.EditMean}); err != nil {
		return nil, err
	}
	b := array.NewRecordBuilder(mem, UsersSchema)
	defer b.Release()

	b.Field(0).(*array.Int64Builder).AppendValues(u.UserID, nil)
	b.Field(1).(*array.Float64Builder).AppendValues(u.FeedQuality, nil)
	b.Field(2).(*array.Float64Builder).AppendValues(u.TxnComplexity, nil)
	b.Field(3).(*array.Float64Builder).AppendValues(u.BaselineEngagement, nil)
	b.Field(4).(*array.Float64Builder).AppendValues(u.FeedQualityZ, nil)
	b.Field(5).(*array.Float64Builder).AppendValues(u.TxnComplexityZ, nil)
	b.Field(6).(*array.Float64Builder).AppendValues(u.BaselineEngagementZ, nil)
	b.Field(7).(*array.Int64Builder).AppendValues(u.Wk4Retention, nil)
	b.Field(8).(*array.Float64Builder).AppendValues(u.ConfMean, nil)
	b.Field(9).(*array.Float64Builder).AppendValues(u.EditMean, nil)

	return b.NewRecord(), nil
}

// UserWeekRecord builds an Arrow record from the user-week table. The caller releases it.
func UserWeekRecord(mem memory.Allocator, w *dgp.UserWeeks) arrow.Record {
	b := array.NewRecordBuilder(mem, UserWeekSchema)
	defer b.Release()

	b.Field(0).(*array.Int64Builder).AppendValues(w.UserID, nil)
	b.Field(1).(*array.Int64Builder).AppendValues(w.Week, nil)
	b.Field(2).(*array.Int64Builder).AppendValues(w.NTxn, nil)
	b.Field(3).(*array.Float64Builder).AppendValues(w.Confidence, nil)
	b.Field(4).(*array.Float64Builder).AppendValues(w.EditRate, nil)

	return b.NewRecord()
}

// File names written by WriteParquet.
const (
	UsersFile    = "users.parquet"
	UserWeekFile = "user_week.parquet"
)

// WriteParquet writes both tables of ds into dir as Snappy-compressed
// Parquet files and returns their paths, users first.
func WriteParquet(ctx context.Context, dir string, ds *dgp.Dataset) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	usersPath := filepath.Join(dir, UsersFile)
	weeksPath := filepath.Join(dir, UserWeekFile)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rec, err := UsersRecord(Pool, ds.Users)
		if err != nil {
			return err
		}
		defer rec.Release()
		return writeRecord(ctx, usersPath, rec)
	})
	g.Go(func() error {
		rec := UserWeekRecord(Pool, ds.UserWeeks)
		defer rec.Release()
		return writeRecord(ctx, weeksPath, rec)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return []string{usersPath, weeksPath}, nil
}

func writeRecord(ctx context.Context, path string, rec arrow.Record) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		// closing the parquet writer may already have closed f
		if cerr := f.Close(); cerr != nil && !errors.Is(cerr, os.ErrClosed) && err == nil {
			err = cerr
		}
	}()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	fw, err := pqarrow.NewFileWriter(rec.Schema(), f, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return fmt.Errorf("open parquet writer %s: %w", path, err)
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return fw.Close()
}
