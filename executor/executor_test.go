package executor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thisisjab/herdcomp/entity"
	"github.com/thisisjab/herdcomp/fault"
	"github.com/thisisjab/herdcomp/querier/ast"
)

// fakeBackend answers from canned data and records what it was asked.
type fakeBackend struct {
	page       entity.ListPage
	count      int64
	groups     []entity.GroupCount
	aggregates []entity.AggregateRow
	events     []entity.EventRecord
	procedures map[string][]map[string]any
	err        error
	panicOn    string

	calls     []string
	list      entity.ListQuery
	countQ    entity.CountQuery
	aggregate entity.AggregateQuery
	params    map[string]any
}

func (b *fakeBackend) record(name string) error {
	b.calls = append(b.calls, name)
	if b.panicOn == name {
		panic("boom")
	}
	return b.err
}

func (b *fakeBackend) ListAnimals(_ context.Context, q entity.ListQuery) (entity.ListPage, error) {
	b.list = q
	return b.page, b.record("ListAnimals")
}

func (b *fakeBackend) CountAnimals(_ context.Context, q entity.CountQuery) (int64, error) {
	b.countQ = q
	return b.count, b.record("CountAnimals")
}

func (b *fakeBackend) CountByGroup(_ context.Context, q entity.CountQuery) ([]entity.GroupCount, error) {
	b.countQ = q
	return b.groups, b.record("CountByGroup")
}

func (b *fakeBackend) Aggregate(_ context.Context, q entity.AggregateQuery) ([]entity.AggregateRow, error) {
	b.aggregate = q
	return b.aggregates, b.record("Aggregate")
}

func (b *fakeBackend) ListEvents(_ context.Context, _ entity.EventQuery) ([]entity.EventRecord, error) {
	return b.events, b.record("ListEvents")
}

func (b *fakeBackend) CallProcedure(_ context.Context, name string, params map[string]any) ([]map[string]any, error) {
	b.params = params
	return b.procedures[name], b.record(name)
}

var session = Session{TenantID: "tenant-1", UserID: "user-1"}

func newTestExecutor(b Backend) *Executor {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := func() time.Time { return time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC) }
	return New(b, logger, WithClock(clock))
}

func ptr(f float64) *float64 { return &f }

func TestExecuteRequiresSession(t *testing.T) {
	tests := map[string]Session{
		"Authentication required":       {},
		"No tenant associated with user": {UserID: "user-1"},
	}

	for message, s := range tests {
		b := &fakeBackend{}
		res := newTestExecutor(b).ExecuteLine(context.Background(), s, "COUNT")

		assert.False(t, res.Success)
		assert.Equal(t, fault.AuthCode, res.ErrorKind)
		assert.Equal(t, message, res.Error)
		assert.Empty(t, b.calls)
	}
}

func TestExecuteParseError(t *testing.T) {
	res := newTestExecutor(&fakeBackend{}).ExecuteLine(context.Background(), session, "FROBNICATE ALL")

	assert.False(t, res.Success)
	assert.Equal(t, TypeError, res.Type)
	assert.Equal(t, fault.ParseCode, res.ErrorKind)
}

func TestExecuteNilCommand(t *testing.T) {
	res := newTestExecutor(&fakeBackend{}).Execute(context.Background(), session, nil)

	assert.False(t, res.Success)
	assert.Equal(t, fault.ParseCode, res.ErrorKind)
}

func TestExecuteUnknownCommand(t *testing.T) {
	res := newTestExecutor(&fakeBackend{}).Execute(context.Background(), session, &ast.Command{Command: "ALTER"})

	assert.False(t, res.Success)
	assert.Equal(t, fault.NotImplementedCode, res.ErrorKind)
	assert.Equal(t, "Command ALTER not yet implemented", res.Error)
}

func TestExecuteRecoversPanics(t *testing.T) {
	b := &fakeBackend{panicOn: "CountAnimals"}
	res := newTestExecutor(b).ExecuteLine(context.Background(), session, "COUNT")

	assert.False(t, res.Success)
	assert.Equal(t, fault.UnknownCode, res.ErrorKind)
	assert.Contains(t, res.Error, "boom")
}

func TestExecuteBackendError(t *testing.T) {
	b := &fakeBackend{err: errors.New("connection refused")}
	res := newTestExecutor(b).ExecuteLine(context.Background(), session, "LIST ID")

	assert.False(t, res.Success)
	assert.Equal(t, fault.BackendCode, res.ErrorKind)
	assert.Equal(t, "connection refused", res.Error)
}

func TestListFormatsRows(t *testing.T) {
	b := &fakeBackend{page: entity.ListPage{
		Total: 1,
		Rows: []map[string]any{{
			"ear_tag":             "1001",
			"dim":                 45.6,
			"reproductive_status": "preg",
			"last_milk_kg":        "38.25",
			"last_calving_date":   "2025-05-15T00:00:00Z",
		}},
	}}

	res := newTestExecutor(b).ExecuteLine(context.Background(), session, "LIST ID DIM RC MILK FDAT FOR DIM>30")
	require.True(t, res.Success, res.Error)

	assert.Equal(t, TypeList, res.Type)
	assert.Equal(t, []string{"ID", "DIM", "RC", "MILK", "FDAT"}, res.Columns)
	require.Len(t, res.Data, 1)
	assert.Equal(t, Row{"ID": "1001", "DIM": int64(46), "RC": 5, "MILK": 38.3, "FDAT": "2025-05-15"}, res.Data[0])
	require.NotNil(t, res.Count)
	assert.Equal(t, int64(1), *res.Count)

	assert.Equal(t, "tenant-1", b.list.TenantID)
	assert.Equal(t, 1000, b.list.Limit)
	assert.Equal(t, []entity.Filter{{Column: "dim", Operator: ast.OpGreater, Value: float64(30)}}, b.list.Filters)
}

func TestListDefaultsAndIdColumn(t *testing.T) {
	b := &fakeBackend{}
	res := newTestExecutor(b).ExecuteLine(context.Background(), session, "LIST")
	require.True(t, res.Success, res.Error)

	assert.Equal(t, []string{"ID", "PEN", "LACT", "DIM", "RC", "MILK"}, res.Columns)

	res = newTestExecutor(b).ExecuteLine(context.Background(), session, "LIST DIM")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, []string{"ear_tag", "dim"}, b.list.Columns)
}

func TestRCTranslatedToStatus(t *testing.T) {
	b := &fakeBackend{count: 12}
	res := newTestExecutor(b).ExecuteLine(context.Background(), session, "COUNT FOR RC=5")
	require.True(t, res.Success, res.Error)

	assert.Equal(t, []entity.Filter{{Column: "reproductive_status", Operator: ast.OpEqual, Value: "preg"}}, b.countQ.Filters)
	assert.Equal(t, TypeCount, res.Type)
	assert.Equal(t, int64(12), *res.Count)
	assert.Equal(t, []Row{{"label": "Count", "value": int64(12)}}, res.Data)
}

func TestDroppedConditionIsDiagnosed(t *testing.T) {
	b := &fakeBackend{count: 3}
	res := newTestExecutor(b).ExecuteLine(context.Background(), session, "COUNT FOR FAKEFIELD=1 DIM>10")
	require.True(t, res.Success, res.Error)

	assert.Equal(t, []entity.Filter{{Column: "dim", Operator: ast.OpGreater, Value: float64(10)}}, b.countQ.Filters)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, UnmappedField, res.Diagnostics[0].Kind)
	assert.Equal(t, "FAKEFIELD", res.Diagnostics[0].Field)
	assert.Equal(t, "partial", res.Outcome())
}

func TestFractionalRCIsIgnored(t *testing.T) {
	b := &fakeBackend{count: 7}
	res := newTestExecutor(b).ExecuteLine(context.Background(), session, "COUNT FOR RC=5.5 DIM>10")
	require.True(t, res.Success, res.Error)

	assert.Equal(t, []entity.Filter{{Column: "dim", Operator: ast.OpGreater, Value: float64(10)}}, b.countQ.Filters)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, IgnoredCondition, res.Diagnostics[0].Kind)
	assert.Equal(t, "RC", res.Diagnostics[0].Field)
}

func TestInvalidOperatorIsDiagnosed(t *testing.T) {
	b := &fakeBackend{}
	res := newTestExecutor(b).ExecuteLine(context.Background(), session, "COUNT FOR PEN>3")
	require.True(t, res.Success, res.Error)

	assert.Empty(t, b.countQ.Filters)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, InvalidOperator, res.Diagnostics[0].Kind)
}

func TestGroupedCount(t *testing.T) {
	b := &fakeBackend{groups: []entity.GroupCount{
		{Group: "preg", Count: 5},
		{Group: "open", Count: 3},
		{Group: nil, Count: 2},
	}}

	res := newTestExecutor(b).ExecuteLine(context.Background(), session, "COUNT BY RC")
	require.True(t, res.Success, res.Error)

	assert.Equal(t, "reproductive_status", b.countQ.GroupColumn)
	assert.Equal(t, []string{"RC", "COUNT"}, res.Columns)
	assert.Equal(t, []Row{
		{"RC": "5 - Preg", "COUNT": int64(5)},
		{"RC": "3 - Open", "COUNT": int64(3)},
		{"RC": "(empty)", "COUNT": int64(2)},
		{"RC": "TOTAL", "COUNT": int64(10)},
	}, res.Data)
	assert.Equal(t, int64(10), *res.Count)
}

func TestGroupedCountUnknownField(t *testing.T) {
	b := &fakeBackend{}
	res := newTestExecutor(b).ExecuteLine(context.Background(), session, "COUNT BY FAKEFIELD")

	assert.False(t, res.Success)
	assert.Equal(t, fault.ValidationCode, res.ErrorKind)
	assert.Equal(t, "Unknown field: FAKEFIELD", res.Error)
	assert.Empty(t, b.calls)
}

func TestSum(t *testing.T) {
	b := &fakeBackend{aggregates: []entity.AggregateRow{{
		Avg:   map[string]*float64{"last_milk_kg": ptr(35.456)},
		Count: map[string]int64{"last_milk_kg": 40},
	}}}

	res := newTestExecutor(b).ExecuteLine(context.Background(), session, "SUM MILK")
	require.True(t, res.Success, res.Error)

	assert.True(t, b.aggregate.IncludeAvg)
	assert.False(t, b.aggregate.IncludeSum)
	assert.Equal(t, []string{"FIELD", "AVG", "COUNT"}, res.Columns)
	assert.Equal(t, []Row{{"FIELD": "MILK", "AVG": 35.46, "COUNT": int64(40)}}, res.Data)
}

func TestGroupedSumTotals(t *testing.T) {
	b := &fakeBackend{aggregates: []entity.AggregateRow{
		{
			Group: "1",
			Avg:   map[string]*float64{"last_milk_kg": ptr(30)},
			Sum:   map[string]*float64{"last_milk_kg": ptr(300)},
			Count: map[string]int64{"last_milk_kg": 10},
		},
		{
			Group: "2",
			Avg:   map[string]*float64{"last_milk_kg": ptr(40)},
			Sum:   map[string]*float64{"last_milk_kg": ptr(1200)},
			Count: map[string]int64{"last_milk_kg": 30},
		},
	}}

	res := newTestExecutor(b).ExecuteLine(context.Background(), session, `SUM MILK \A \T BY PEN`)
	require.True(t, res.Success, res.Error)

	assert.Equal(t, []string{"PEN", "MILK_AVG", "MILK_SUM", "COUNT"}, res.Columns)
	require.Len(t, res.Data, 3)
	assert.Equal(t, Row{"PEN": "TOTAL", "MILK_AVG": 37.5, "MILK_SUM": 1500.0, "COUNT": int64(40)}, res.Data[2])
}

func TestSumValidation(t *testing.T) {
	tests := map[string]string{
		"SUM FAKEFIELD":    "No valid fields specified for aggregation",
		"SUM MILK BY NOPE": "Unknown field: NOPE",
	}

	for input, message := range tests {
		res := newTestExecutor(&fakeBackend{}).ExecuteLine(context.Background(), session, input)

		assert.False(t, res.Success, input)
		assert.Equal(t, fault.ValidationCode, res.ErrorKind, input)
		assert.Equal(t, message, res.Error, input)
	}
}

func TestBredsum(t *testing.T) {
	b := &fakeBackend{procedures: map[string][]map[string]any{
		"calculate_bredsum_by_service": {
			{"service_number": 1, "total_breedings": 10, "pregnancies": 4, "conception_rate": 40.0},
			{"service_number": 2, "total_breedings": 10, "pregnancies": 3, "conception_rate": 30.0},
		},
	}}

	res := newTestExecutor(b).ExecuteLine(context.Background(), session, `BREDSUM \B`)
	require.True(t, res.Success, res.Error)

	assert.Equal(t, []string{"Service #", "Breedings", "Preg", "CR%"}, res.Columns)
	assert.Equal(t, Row{"Service #": 1, "Breedings": 10, "Preg": 4, "CR%": 40.0}, res.Data[0])
	assert.Equal(t, 35.0, res.Aggregates["overallConceptionRate"])
	assert.Equal(t, "2024-06-30", b.params["p_start_date"])
	assert.Equal(t, "2025-06-30", b.params["p_end_date"])
}

func TestBredsumProstaglandinNotImplemented(t *testing.T) {
	b := &fakeBackend{}
	res := newTestExecutor(b).ExecuteLine(context.Background(), session, `BREDSUM \PG`)

	assert.False(t, res.Success)
	assert.Equal(t, fault.NotImplementedCode, res.ErrorKind)
	assert.Empty(t, b.calls)
}

func TestAttachedSwitches(t *testing.T) {
	b := &fakeBackend{procedures: map[string][]map[string]any{
		"calculate_iofc_by_pen": {},
		"update_cow_valuations": {{"update_cow_valuations": 3}},
	}}
	e := newTestExecutor(b)

	res := e.ExecuteLine(context.Background(), session, `ECON\PEN`)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, []string{"calculate_iofc_by_pen"}, b.calls)

	res = e.ExecuteLine(context.Background(), session, `COWVAL\UPDATE`)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "Successfully updated valuations for 3 cows", res.Text)

	res = e.ExecuteLine(context.Background(), session, `EVENTS\SI`)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "ListEvents", b.calls[len(b.calls)-1])

	b.calls = nil
	res = e.ExecuteLine(context.Background(), session, `BREDSUM\PG`)
	assert.False(t, res.Success)
	assert.Equal(t, fault.NotImplementedCode, res.ErrorKind)
	assert.Empty(t, b.calls)
}

func TestEconFormatsMoney(t *testing.T) {
	b := &fakeBackend{procedures: map[string][]map[string]any{
		"calculate_economics": {
			{"metric": "Total Milk Revenue", "value": "12345.678", "per_cow": 123.45, "period_days": 30},
			{"metric": "IOFC (Income Over Feed Cost)", "value": -50, "per_cow": nil, "period_days": 30},
		},
	}}

	res := newTestExecutor(b).ExecuteLine(context.Background(), session, "ECON")
	require.True(t, res.Success, res.Error)

	assert.Equal(t, []Row{
		{"Metric": "Total Milk Revenue", "Total": "$12,345.68", "Per Cow": "$123.45", "Period": "30 days"},
		{"Metric": "IOFC (Income Over Feed Cost)", "Total": "-$50.00", "Per Cow": "-", "Period": "30 days"},
	}, res.Data)
	assert.Contains(t, res.Aggregates["summary"], "Total Revenue: $12,345.68")
}

func TestEconEmptyIsText(t *testing.T) {
	res := newTestExecutor(&fakeBackend{}).ExecuteLine(context.Background(), session, `ECON \C`)
	require.True(t, res.Success, res.Error)

	assert.Equal(t, TypeText, res.Type)
	assert.Equal(t, "No cost entries found for the selected period", res.Text)
}

func TestEconRejectsMalformedRows(t *testing.T) {
	b := &fakeBackend{procedures: map[string][]map[string]any{
		"calculate_economics": {{"value": 10}},
	}}

	res := newTestExecutor(b).ExecuteLine(context.Background(), session, "ECON")

	assert.False(t, res.Success)
	assert.Equal(t, fault.BackendCode, res.ErrorKind)
}

func TestEvents(t *testing.T) {
	b := &fakeBackend{events: []entity.EventRecord{
		{Date: "2025-06-01", Type: "breeding", EarTag: "1001", Name: "Daisy", Details: map[string]any{"bull_name": "Atlas", "technician_name": "Sam"}},
		{Date: "2025-05-30", Type: "custom", Details: map[string]any{"b": 2, "a": 1, "c": 3}},
	}}

	res := newTestExecutor(b).ExecuteLine(context.Background(), session, "EVENTS FOR RC=5")
	require.True(t, res.Success, res.Error)

	assert.Equal(t, []Row{
		{"Date": "2025-06-01", "ID": "1001", "Event": "BRED", "Details": "Bull: Atlas, Tech: Sam", "Name": "Daisy"},
		{"Date": "2025-05-30", "ID": "N/A", "Event": "CUSTOM", "Details": "a: 1, b: 2", "Name": ""},
	}, res.Data)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, IgnoredCondition, res.Diagnostics[0].Kind)
}

func TestEventsSpecificItems(t *testing.T) {
	b := &fakeBackend{events: []entity.EventRecord{
		{Date: "2025-06-01", Type: "health_check", EarTag: "1001", Details: map[string]any{"bcs": 3.5}},
	}}

	res := newTestExecutor(b).ExecuteLine(context.Background(), session, `EVENTS \SI BCS NOTE`)
	require.True(t, res.Success, res.Error)

	assert.Equal(t, []string{"Date", "ID", "Event", "BCS", "NOTE"}, res.Columns)
	assert.Equal(t, Row{"Date": "2025-06-01", "ID": "1001", "Event": "HEALTH", "BCS": "3.5", "NOTE": ""}, res.Data[0])
}

func TestPlotByDIMGroupsSeries(t *testing.T) {
	b := &fakeBackend{procedures: map[string][]map[string]any{
		"plot_by_dim": {
			{"ear_tag": "1001", "lactation_number": 2, "dim_at_test": 60, "value": 40.0},
			{"ear_tag": "1001", "lactation_number": 2, "dim_at_test": 30, "value": 38.0},
			{"ear_tag": "1002", "lactation_number": 1, "dim_at_test": 10, "value": 25.0},
		},
	}}

	res := newTestExecutor(b).ExecuteLine(context.Background(), session, "PLOT MILK BY DIM")
	require.True(t, res.Success, res.Error)

	assert.Equal(t, "MILK", b.params["p_field"])
	s, ok := res.Aggregates["series"].([]series)
	require.True(t, ok)
	require.Len(t, s, 2)
	assert.Equal(t, "1001 (L2)", s[0].Name)

	points := s[0].Data.([]curvePoint)
	assert.Equal(t, 30.0, points[0].DIM)
	assert.Equal(t, 60.0, points[1].DIM)
}

func TestPlotUnknownFieldFallsBack(t *testing.T) {
	b := &fakeBackend{}
	res := newTestExecutor(b).ExecuteLine(context.Background(), session, "PLOT FAKE BY LACT")
	require.True(t, res.Success, res.Error)

	assert.Equal(t, []string{"plot_by_lactation"}, b.calls)
	assert.Equal(t, "305ME", b.params["p_field"])
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, UnmappedField, res.Diagnostics[0].Kind)
}

func TestCowvalVariants(t *testing.T) {
	b := &fakeBackend{procedures: map[string][]map[string]any{
		"update_cow_valuations": {{"update_cow_valuations": 42}},
		"get_cowval_report": {
			{"ear_tag": "1001", "lactation_number": 3, "total_value": 2500.4, "relative_value": 104.25},
		},
	}}

	e := newTestExecutor(b)

	res := e.ExecuteLine(context.Background(), session, `COWVAL \U`)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "Successfully updated valuations for 42 cows", res.Text)

	res = e.ExecuteLine(context.Background(), session, `COWVAL \TOP`)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 20, b.params["p_limit"])
	assert.Equal(t, true, b.params["p_sort_desc"])
	assert.Equal(t, Row{"Rank": 1, "ID": "1001", "Pen": "-", "Lact": int64(3), "Total Value": "$2,500", "Relative %": "104.2%"}, res.Data[0])

	res = e.ExecuteLine(context.Background(), session, "COWVAL BY DIM")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "dim", b.params["p_sort_by"])
	assert.Equal(t, 100, b.params["p_limit"])

	res = e.ExecuteLine(context.Background(), session, `COWVAL \S`)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, TypeText, res.Type)
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		value    float64
		decimals int
		expected string
	}{
		{1234.56, 2, "$1,234.56"},
		{1234.56, 0, "$1,235"},
		{0, 2, "$0.00"},
		{-987654.321, 2, "-$987,654.32"},
		{0.004, 2, "$0.00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, formatMoney(tt.value, tt.decimals))
	}
}

type fakeRecorder struct {
	outcomes    []string
	diagnostics []string
}

func (r *fakeRecorder) ObserveExecution(_, outcome string, _ time.Duration) {
	r.outcomes = append(r.outcomes, outcome)
}

func (r *fakeRecorder) AddDiagnostic(_, kind string) {
	r.diagnostics = append(r.diagnostics, kind)
}

func TestRecorderObservesOutcomes(t *testing.T) {
	rec := &fakeRecorder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := New(&fakeBackend{}, logger, WithRecorder(rec))

	e.ExecuteLine(context.Background(), session, "COUNT")
	e.ExecuteLine(context.Background(), session, "COUNT FOR FAKE=1")
	e.ExecuteLine(context.Background(), session, `BREDSUM \PG`)

	assert.Equal(t, []string{"success", "partial", "not_implemented"}, rec.outcomes)
	assert.Equal(t, []string{"unmapped_field"}, rec.diagnostics)
}
