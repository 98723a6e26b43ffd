package paginate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphbind/graphbind/internal/cursor"
	"github.com/graphbind/graphbind/model"
)

// fakeSource serves windows from an in-memory slice and records how it was
// queried.
type fakeSource struct {
	records []model.Record

	fetchCalls []fetchCall
	countCalls int
	countErr   error
}

type fetchCall struct {
	limit, offset int
}

func (f *fakeSource) Fetch(ctx context.Context, limit, offset int) ([]model.Record, error) {
	f.fetchCalls = append(f.fetchCalls, fetchCall{limit: limit, offset: offset})

	if offset >= len(f.records) {
		return nil, nil
	}
	window := f.records[offset:]
	if limit > 0 && limit < len(window) {
		window = window[:limit]
	}
	return window, nil
}

func (f *fakeSource) Count(ctx context.Context) (int, error) {
	f.countCalls++
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(f.records), nil
}

func sourceOf(n int) *fakeSource {
	records := make([]model.Record, n)
	for i := range records {
		records[i] = model.Record{"id": i + 1}
	}
	return &fakeSource{records: records}
}

func TestExecuteNoneReturnsRawList(t *testing.T) {
	src := sourceOf(3)

	result, err := Execute(context.Background(), ModeNone, src, CountBounds{}, "Post", nil)
	require.NoError(t, err)

	records, ok := result.([]model.Record)
	require.True(t, ok, "expected []model.Record, got %T", result)
	assert.Len(t, records, 3)

	// No windowing and no count query.
	require.Len(t, src.fetchCalls, 1)
	assert.Equal(t, fetchCall{limit: 0, offset: 0}, src.fetchCalls[0])
	assert.Zero(t, src.countCalls)
}

func TestExecutePaginatorProbesOneExtraRow(t *testing.T) {
	src := sourceOf(10)
	bounds := CountBounds{Default: 5}

	result, err := Execute(context.Background(), ModePaginator, src, bounds, "Post", map[string]interface{}{"first": 3})
	require.NoError(t, err)

	require.Len(t, src.fetchCalls, 1)
	assert.Equal(t, fetchCall{limit: 4, offset: 0}, src.fetchCalls[0])

	shaped := result.(map[string]interface{})
	data := shaped["data"].([]model.Record)
	assert.Len(t, data, 3)

	info := shaped["paginatorInfo"].(map[string]interface{})
	assert.Equal(t, 3, info["count"])
	assert.Equal(t, 1, info["currentPage"])
	assert.Equal(t, 3, info["perPage"])
	assert.Equal(t, true, info["hasMorePages"])
	assert.Equal(t, 1, info["firstItem"])
	assert.Equal(t, 3, info["lastItem"])

	// The probe answers hasMorePages without a count query.
	assert.Zero(t, src.countCalls)
}

func TestExecutePaginatorPageOffset(t *testing.T) {
	src := sourceOf(10)

	result, err := Execute(context.Background(), ModePaginator, src, CountBounds{Default: 4}, "Post",
		map[string]interface{}{"page": 3})
	require.NoError(t, err)

	require.Len(t, src.fetchCalls, 1)
	assert.Equal(t, fetchCall{limit: 5, offset: 8}, src.fetchCalls[0])

	info := result.(map[string]interface{})["paginatorInfo"].(map[string]interface{})
	assert.Equal(t, 2, info["count"])
	assert.Equal(t, 3, info["currentPage"])
	assert.Equal(t, false, info["hasMorePages"])
	assert.Equal(t, 9, info["firstItem"])
	assert.Equal(t, 10, info["lastItem"])
}

func TestExecutePaginatorEmptyWindow(t *testing.T) {
	src := sourceOf(0)

	result, err := Execute(context.Background(), ModePaginator, src, CountBounds{Default: 5}, "Post", nil)
	require.NoError(t, err)

	info := result.(map[string]interface{})["paginatorInfo"].(map[string]interface{})
	assert.Equal(t, 0, info["count"])
	assert.Nil(t, info["firstItem"])
	assert.Nil(t, info["lastItem"])
	assert.Equal(t, false, info["hasMorePages"])
}

func TestExecutePaginatorValidation(t *testing.T) {
	tests := []struct {
		name   string
		bounds CountBounds
		args   map[string]interface{}
		want   string
	}{
		{
			name:   "missing count without default",
			bounds: CountBounds{},
			args:   nil,
			want:   "a count argument is required",
		},
		{
			name:   "non-positive count",
			bounds: CountBounds{Default: 5},
			args:   map[string]interface{}{"first": 0},
			want:   "count must be a positive integer",
		},
		{
			name:   "count above hard ceiling",
			bounds: CountBounds{Default: 5, Ceiling: 100},
			args:   map[string]interface{}{"first": 101},
			want:   "exceeds the maximum",
		},
		{
			name:   "non-positive page",
			bounds: CountBounds{Default: 5},
			args:   map[string]interface{}{"page": 0},
			want:   "page must be a positive integer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := sourceOf(10)
			_, err := Execute(context.Background(), ModePaginator, src, tt.bounds, "Post", tt.args)
			require.Error(t, err)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Contains(t, err.Error(), tt.want)
			assert.Empty(t, src.fetchCalls, "validation failures must not reach the store")
		})
	}
}

func TestExecutePaginatorClampsToMax(t *testing.T) {
	src := sourceOf(100)

	_, err := Execute(context.Background(), ModePaginator, src, CountBounds{Default: 10, Max: 25}, "Post",
		map[string]interface{}{"first": 80})
	require.NoError(t, err)

	require.Len(t, src.fetchCalls, 1)
	assert.Equal(t, 26, src.fetchCalls[0].limit)
}

func TestExecuteSimpleOmitsCountMetadata(t *testing.T) {
	src := sourceOf(10)

	result, err := Execute(context.Background(), ModeSimple, src, CountBounds{Default: 4}, "Post", nil)
	require.NoError(t, err)

	info := result.(map[string]interface{})["paginatorInfo"].(map[string]interface{})
	assert.Equal(t, true, info["hasMorePages"])
	// Simple pagination never carries the lazy page, so total can never run.
	assert.Nil(t, info[pageKey])
	assert.Zero(t, src.countCalls)
}

func TestExecuteConnectionShapesEdges(t *testing.T) {
	src := sourceOf(5)

	result, err := Execute(context.Background(), ModeConnection, src, CountBounds{Default: 2}, "Post", nil)
	require.NoError(t, err)

	shaped := result.(map[string]interface{})
	edges := shaped["edges"].([]map[string]interface{})
	require.Len(t, edges, 2)

	for i, edge := range edges {
		typeName, offset, err := cursor.Decode(edge["cursor"].(string))
		require.NoError(t, err)
		assert.Equal(t, "Post", typeName)
		assert.Equal(t, i, offset)
	}

	pageInfo := shaped["pageInfo"].(map[string]interface{})
	assert.Equal(t, true, pageInfo["hasNextPage"])
	assert.Equal(t, false, pageInfo["hasPreviousPage"])
	assert.Equal(t, edges[0]["cursor"], pageInfo["startCursor"])
	assert.Equal(t, edges[1]["cursor"], pageInfo["endCursor"])
	assert.Equal(t, 2, pageInfo["count"])
	assert.Equal(t, 1, pageInfo["currentPage"])
}

func TestExecuteConnectionAfterCursor(t *testing.T) {
	src := sourceOf(5)

	result, err := Execute(context.Background(), ModeConnection, src, CountBounds{Default: 2}, "Post",
		map[string]interface{}{"after": cursor.Encode("Post", 1)})
	require.NoError(t, err)

	require.Len(t, src.fetchCalls, 1)
	assert.Equal(t, fetchCall{limit: 3, offset: 2}, src.fetchCalls[0])

	pageInfo := result.(map[string]interface{})["pageInfo"].(map[string]interface{})
	assert.Equal(t, true, pageInfo["hasNextPage"])
	assert.Equal(t, true, pageInfo["hasPreviousPage"])
}

func TestExecuteConnectionRejectsBadCursors(t *testing.T) {
	tests := []struct {
		name  string
		after string
		want  string
	}{
		{name: "garbage", after: "not-base64!!", want: "invalid cursor"},
		{name: "foreign type", after: cursor.Encode("User", 3), want: "cursor type mismatch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := sourceOf(5)
			_, err := Execute(context.Background(), ModeConnection, src, CountBounds{Default: 2}, "Post",
				map[string]interface{}{"after": tt.after})
			require.Error(t, err)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestExecuteConnectionEmptyResult(t *testing.T) {
	src := sourceOf(0)

	result, err := Execute(context.Background(), ModeConnection, src, CountBounds{Default: 2}, "Post", nil)
	require.NoError(t, err)

	shaped := result.(map[string]interface{})
	assert.Len(t, shaped["edges"], 0)

	pageInfo := shaped["pageInfo"].(map[string]interface{})
	assert.Equal(t, false, pageInfo["hasNextPage"])
	assert.Nil(t, pageInfo["startCursor"])
	assert.Nil(t, pageInfo["endCursor"])
}

func TestExecuteFetchErrorPropagates(t *testing.T) {
	src := &failingSource{err: errors.New("connection reset")}

	_, err := Execute(context.Background(), ModePaginator, src, CountBounds{Default: 2}, "Post", nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection reset")
}

type failingSource struct {
	err error
}

func (f *failingSource) Fetch(ctx context.Context, limit, offset int) ([]model.Record, error) {
	return nil, f.err
}

func (f *failingSource) Count(ctx context.Context) (int, error) {
	return 0, f.err
}
