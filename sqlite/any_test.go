package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/LovecraftianHorror/sqlx"
)

func openBackend(t *testing.T) sqlx.ConnectionBackend {
	t.Helper()

	opts := DefaultConnectOptions()
	opts.InMemory = true

	conn, err := Open(context.Background(), opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	backend := NewBackend(conn)
	t.Cleanup(func() { backend.Close(context.Background()) })
	return backend
}

func drain(t *testing.T, stream *sqlx.RowStream) {
	t.Helper()
	for stream.Next() {
	}
	if err := stream.Err(); err != nil {
		t.Fatalf("stream failed: %v", err)
	}
}

func TestToAnyTypeInfo(t *testing.T) {
	supported := map[DataType]sqlx.Kind{
		DataTypeNull:  sqlx.KindNull,
		DataTypeInt:   sqlx.KindInteger,
		DataTypeInt64: sqlx.KindBigInt,
		DataTypeFloat: sqlx.KindDouble,
		DataTypeText:  sqlx.KindText,
		DataTypeBlob:  sqlx.KindBlob,
	}
	for dt, want := range supported {
		got, err := toAnyTypeInfo(TypeInfo{DataType: dt})
		if err != nil {
			t.Fatalf("toAnyTypeInfo(%s): %v", dt, err)
		}
		if got.Kind != want {
			t.Fatalf("toAnyTypeInfo(%s) = %s, want %s", dt, got.Kind, want)
		}
	}

	for _, dt := range []DataType{DataTypeNumeric, DataTypeBool, DataTypeDate, DataTypeTime, DataTypeDatetime} {
		_, err := toAnyTypeInfo(TypeInfo{DataType: dt})
		var unsupported sqlx.UnsupportedTypeError
		if !errors.As(err, &unsupported) {
			t.Fatalf("toAnyTypeInfo(%s) err = %v, want UnsupportedTypeError", dt, err)
		}
		if unsupported.Backend != "sqlite" {
			t.Fatalf("Backend = %q", unsupported.Backend)
		}
	}
}

func TestToAnyColumnWrapsDecodeError(t *testing.T) {
	_, err := toAnyColumn(Column{Name: "flag", Type: TypeInfo{DataType: DataTypeBool}})

	var decode sqlx.ColumnDecodeError
	if !errors.As(err, &decode) {
		t.Fatalf("err = %v, want ColumnDecodeError", err)
	}
	if decode.Column != "flag" {
		t.Fatalf("Column = %q, want flag", decode.Column)
	}
	var unsupported sqlx.UnsupportedTypeError
	if !errors.As(err, &unsupported) {
		t.Fatal("expected the UnsupportedTypeError cause to be reachable")
	}
}

func TestMapArguments(t *testing.T) {
	args := sqlx.NewArguments(
		sqlx.Null(),
		sqlx.SmallInt(-3),
		sqlx.Integer(42),
		sqlx.BigInt(1<<40),
		sqlx.Real(1.5),
		sqlx.Double(2.5),
		sqlx.Text("a"),
		sqlx.Blob([]byte{0x00, 0x01}),
	)

	mapped, err := mapArguments(args)
	if err != nil {
		t.Fatalf("mapArguments: %v", err)
	}

	want := []any{nil, int64(-3), int64(42), int64(1 << 40), float64(1.5), float64(2.5), "a", []byte{0x00, 0x01}}
	if diff := cmp.Diff(want, mapped.driverValues()); diff != "" {
		t.Fatal(diff)
	}
}

func TestMapArgumentsNil(t *testing.T) {
	mapped, err := mapArguments(nil)
	if err != nil {
		t.Fatalf("mapArguments(nil): %v", err)
	}
	if mapped != nil {
		t.Fatal("nil arguments must map to nil")
	}
}

func TestMapArgumentsRejectsUnknownKind(t *testing.T) {
	// The zero Value carries a kind this backend has never heard of.
	var zero sqlx.Value
	_, err := mapArguments(sqlx.NewArguments(zero))

	var unsupported sqlx.UnsupportedArgumentError
	if !errors.As(err, &unsupported) {
		t.Fatalf("err = %v, want UnsupportedArgumentError", err)
	}
	if unsupported.Backend != "sqlite" || unsupported.Kind != sqlx.KindUnknown {
		t.Fatalf("got %+v", unsupported)
	}
}

func TestToAnyValueIntegerRange(t *testing.T) {
	intRow := func(v int64) Row {
		return Row{
			columns: []Column{{Ordinal: 0, Name: "n", Type: TypeInfo{DataType: DataTypeInt}}},
			names:   map[string]int{"n": 0},
			values:  []any{v},
			types:   []TypeInfo{{DataType: DataTypeInt}},
		}
	}

	got, err := toAnyValue(intRow(1<<31-1), 0)
	if err != nil {
		t.Fatalf("toAnyValue: %v", err)
	}
	if got.Kind() != sqlx.KindInteger || got.Int64() != 1<<31-1 {
		t.Fatalf("got %s", got)
	}

	// A cell reported as INTEGER never truncates; out-of-range values are a
	// decode failure.
	for _, v := range []int64{1 << 31, -1<<31 - 1} {
		_, err := toAnyValue(intRow(v), 0)
		var decode sqlx.ColumnDecodeError
		if !errors.As(err, &decode) {
			t.Fatalf("toAnyValue(%d) err = %v, want ColumnDecodeError", v, err)
		}
		if decode.Column != "n" {
			t.Fatalf("Column = %q", decode.Column)
		}
	}
}

func TestMapResultDropsRowID(t *testing.T) {
	res := mapResult(QueryResult{rowsAffected: 3, lastInsertRowID: 99})

	if res.RowsAffected != 3 {
		t.Fatalf("RowsAffected = %d, want 3", res.RowsAffected)
	}
	if !res.LastInsertID.IsNull() {
		t.Fatal("the rowid must be dropped, not carried over")
	}
}

func TestRoundTrip(t *testing.T) {
	backend := openBackend(t)
	ctx := context.Background()

	drain(t, backend.FetchMany(ctx, "CREATE TABLE t (n INTEGER, s TEXT)", nil))
	drain(t, backend.FetchMany(ctx, "INSERT INTO t VALUES (?, ?)",
		sqlx.NewArguments(sqlx.Integer(42), sqlx.Text("a"))))

	stream := backend.FetchMany(ctx, "SELECT n, s FROM t", nil)
	defer stream.Close()

	if !stream.Next() {
		t.Fatalf("no row: %v", stream.Err())
	}
	row, ok := stream.Row()
	if !ok {
		t.Fatal("first item is not a row")
	}

	if got := row.Value(0); got.Kind() != sqlx.KindBigInt || got.Int64() != 42 {
		t.Fatalf("n = %s", got)
	}
	if got := row.Value(1); got.Kind() != sqlx.KindText || got.Text() != "a" {
		t.Fatalf("s = %s", got)
	}
	if col := row.Column(1); col.Name != "s" || col.Type.Kind != sqlx.KindText {
		t.Fatalf("column 1 = %+v", col)
	}
	if got, ok := row.Get("n"); !ok || got.Int64() != 42 {
		t.Fatalf("Get(n) = %v, %v", got, ok)
	}

	// One more item: the terminating summary.
	if !stream.Next() {
		t.Fatalf("missing summary: %v", stream.Err())
	}
	if _, ok := stream.Result(); !ok {
		t.Fatal("last item is not a summary")
	}
	if stream.Next() {
		t.Fatal("stream must end after the summary")
	}
	if err := stream.Err(); err != nil {
		t.Fatalf("stream failed: %v", err)
	}
}

func TestValueRoundTripTextAndBlob(t *testing.T) {
	backend := openBackend(t)
	ctx := context.Background()

	drain(t, backend.FetchMany(ctx, "CREATE TABLE v (s TEXT, b BLOB, f REAL, x INTEGER)", nil))

	text := "späßchen\x00with NUL"
	blob := []byte{0x00, 0xde, 0xad, 0xbe, 0xef}
	drain(t, backend.FetchMany(ctx, "INSERT INTO v VALUES (?, ?, ?, ?)",
		sqlx.NewArguments(sqlx.Text(text), sqlx.Blob(blob), sqlx.Double(1.25), sqlx.Null())))

	row, err := backend.FetchOptional(ctx, "SELECT s, b, f, x FROM v", nil)
	if err != nil {
		t.Fatalf("FetchOptional: %v", err)
	}
	if row == nil {
		t.Fatal("expected a row")
	}

	if got := row.Value(0).Text(); got != text {
		t.Fatalf("text round trip: %q != %q", got, text)
	}
	if diff := cmp.Diff(blob, row.Value(1).Blob()); diff != "" {
		t.Fatal(diff)
	}
	if got := row.Value(2); got.Kind() != sqlx.KindDouble || got.Float64() != 1.25 {
		t.Fatalf("f = %s", got)
	}
	if !row.Value(3).IsNull() {
		t.Fatalf("x = %s, want NULL", row.Value(3))
	}
}

func TestFetchOptional(t *testing.T) {
	backend := openBackend(t)
	ctx := context.Background()

	drain(t, backend.FetchMany(ctx, "CREATE TABLE t (n INTEGER)", nil))

	// No rows at all.
	row, err := backend.FetchOptional(ctx, "SELECT n FROM t", nil)
	if err != nil {
		t.Fatalf("FetchOptional: %v", err)
	}
	if row != nil {
		t.Fatalf("row = %v, want nil", row)
	}

	drain(t, backend.FetchMany(ctx, "INSERT INTO t VALUES (1), (2), (3)", nil))

	// Several rows: only the first is returned, and abandoning the rest
	// leaves the connection usable.
	row, err = backend.FetchOptional(ctx, "SELECT n FROM t ORDER BY n", nil)
	if err != nil {
		t.Fatalf("FetchOptional: %v", err)
	}
	if row == nil || row.Value(0).Int64() != 1 {
		t.Fatalf("row = %v, want n=1", row)
	}

	res, err := backend.FetchOptional(ctx, "SELECT count(*) FROM t", nil)
	if err != nil {
		t.Fatalf("statement after an abandoned stream: %v", err)
	}
	if res.Value(0).Int64() != 3 {
		t.Fatalf("count = %d, want 3", res.Value(0).Int64())
	}
}

func TestMultiStatementBatch(t *testing.T) {
	backend := openBackend(t)
	ctx := context.Background()

	stream := backend.FetchMany(ctx,
		"CREATE TABLE t (n INTEGER); INSERT INTO t VALUES (?); INSERT INTO t VALUES (?); SELECT n FROM t ORDER BY n",
		sqlx.NewArguments(sqlx.Integer(1), sqlx.Integer(2)))
	defer stream.Close()

	var got []string
	for stream.Next() {
		if row, ok := stream.Row(); ok {
			got = append(got, "row:"+row.Value(0).String())
			continue
		}
		res, _ := stream.Result()
		if res.RowsAffected > 0 {
			got = append(got, "changed")
		} else {
			got = append(got, "done")
		}
	}
	if err := stream.Err(); err != nil {
		t.Fatalf("stream failed: %v", err)
	}

	want := []string{"done", "changed", "changed", "row:BIGINT(1)", "row:BIGINT(2)", "done"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatal(diff)
	}
}

func TestPrepareAndDescribe(t *testing.T) {
	backend := openBackend(t)
	ctx := context.Background()

	drain(t, backend.FetchMany(ctx, "CREATE TABLE t (n INTEGER, s TEXT)", nil))

	stmt, err := backend.Prepare(ctx, "SELECT n, s FROM t WHERE n > ?", nil)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if stmt.ParamCount != 1 {
		t.Fatalf("ParamCount = %d, want 1", stmt.ParamCount)
	}
	if len(stmt.Columns) != 2 || stmt.Columns[0].Name != "n" || stmt.Columns[1].Name != "s" {
		t.Fatalf("Columns = %+v", stmt.Columns)
	}
	if stmt.Columns[0].Type.Kind != sqlx.KindBigInt || stmt.Columns[1].Type.Kind != sqlx.KindText {
		t.Fatalf("column kinds = %s, %s", stmt.Columns[0].Type, stmt.Columns[1].Type)
	}
	if stmt.ColumnNames["s"] != 1 {
		t.Fatalf("ColumnNames = %v", stmt.ColumnNames)
	}

	desc, err := backend.Describe(ctx, "INSERT INTO t VALUES (?, ?)")
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if len(desc.Parameters) != 2 {
		t.Fatalf("Parameters = %v", desc.Parameters)
	}
	for _, p := range desc.Parameters {
		if p.Kind != sqlx.KindUnknown {
			t.Fatalf("parameter kind = %s, want unknown", p.Kind)
		}
	}
	if len(desc.Columns) != 0 {
		t.Fatalf("Columns = %+v, want none", desc.Columns)
	}
}

func TestDescribeRejectsUnsupportedColumn(t *testing.T) {
	backend := openBackend(t)
	ctx := context.Background()

	drain(t, backend.FetchMany(ctx, "CREATE TABLE b (flag BOOLEAN)", nil))

	_, err := backend.Describe(ctx, "SELECT flag FROM b")
	var decode sqlx.ColumnDecodeError
	if !errors.As(err, &decode) {
		t.Fatalf("err = %v, want ColumnDecodeError", err)
	}
	if decode.Column != "flag" {
		t.Fatalf("Column = %q", decode.Column)
	}
}

func TestStreamSharesColumnTable(t *testing.T) {
	backend := openBackend(t)
	ctx := context.Background()

	drain(t, backend.FetchMany(ctx, "CREATE TABLE t (n INTEGER)", nil))
	drain(t, backend.FetchMany(ctx, "INSERT INTO t VALUES (1), (2)", nil))

	stream := backend.FetchMany(ctx, "SELECT n FROM t", nil)
	defer stream.Close()

	var rows []sqlx.Row
	for stream.Next() {
		if row, ok := stream.Row(); ok {
			rows = append(rows, row)
		}
	}
	if err := stream.Err(); err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if &rows[0].Columns()[0] != &rows[1].Columns()[0] {
		t.Fatal("rows of one result set must share the erased column table")
	}
}

func TestWorkerCrashSurfaces(t *testing.T) {
	backend := openBackend(t)
	ctx := context.Background()

	drain(t, backend.FetchMany(ctx, "CREATE TABLE t (n INTEGER)", nil))

	// Tear the worker down, then issue a statement. Depending on timing the
	// submission itself is refused or the command is queued and never
	// served; either way the stream must end in an error, never in a clean
	// end of sequence.
	if err := backend.CloseHard(ctx); err != nil {
		t.Fatalf("CloseHard: %v", err)
	}

	stream := backend.FetchMany(ctx, "SELECT n FROM t", nil)
	defer stream.Close()

	for stream.Next() {
	}
	err := stream.Err()
	if !errors.Is(err, sqlx.ErrWorkerCrashed) && !errors.Is(err, ErrConnClosed) {
		t.Fatalf("Err() = %v, want a worker failure", err)
	}
}

func TestDriverRegistration(t *testing.T) {
	conn, err := sqlx.Connect(context.Background(), "sqlite::memory:")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer conn.Close(context.Background())

	if conn.BackendName() != "sqlite" {
		t.Fatalf("BackendName = %q", conn.BackendName())
	}

	row, err := conn.FetchOne(context.Background(), "SELECT ?1 + 1", 41)
	if err != nil {
		t.Fatalf("FetchOne: %v", err)
	}
	if row.Value(0).Int64() != 42 {
		t.Fatalf("result = %s", row.Value(0))
	}
}
