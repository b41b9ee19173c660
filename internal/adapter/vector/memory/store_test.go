package memory

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-career-guide/internal/domain"
)

func chunk(id string, v ...float32) domain.Chunk {
	return domain.Chunk{ID: id, Text: "text " + id, Embedding: v}
}

func TestStore_SearchOrdersByCosine(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []domain.Chunk{
		chunk("east", 1, 0),
		chunk("north", 0, 1),
		chunk("northeast", 1, 1),
		chunk("west", -1, 0),
	}))

	got, err := s.Search(ctx, []float32{1, 0.1}, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "east", got[0].ID)
	assert.Equal(t, "northeast", got[1].ID)
	assert.Equal(t, "north", got[2].ID)
	assert.InDelta(t, 0.995, got[0].Score, 0.001)
}

func TestStore_UpsertReplacesAndCounts(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []domain.Chunk{chunk("a", 1, 0), chunk("b", 0, 1)}))
	require.NoError(t, s.Upsert(ctx, []domain.Chunk{{ID: "a", Text: "replaced", Embedding: []float32{0, 1}}}))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := s.Search(ctx, []float32{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID, "ties keep insertion order")
	assert.Equal(t, "replaced", got[0].Text)
}

func TestStore_RejectsIncompleteChunks(t *testing.T) {
	t.Parallel()

	s := New()
	err := s.Upsert(context.Background(), []domain.Chunk{{ID: "x"}})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	err = s.Upsert(context.Background(), []domain.Chunk{{Embedding: []float32{1}}})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestStore_SearchBounds(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		require.NoError(t, s.Upsert(ctx, []domain.Chunk{chunk(fmt.Sprint(i), rng.Float32()-0.5, rng.Float32()-0.5, rng.Float32()-0.5)}))
	}
	for _, k := range []int{0, 1, 4, 50, 80} {
		got, err := s.Search(ctx, []float32{0.2, -0.1, 0.7}, k)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(got), k)
		for i := 1; i < len(got); i++ {
			assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
		}
	}

	empty, err := New().Search(ctx, []float32{1}, 4)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, cosineSimilarity([]float32{2, 0}, []float32{5, 0}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-3, 0}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 2}))
	assert.Equal(t, 0.0, cosineSimilarity(nil, nil))
}
