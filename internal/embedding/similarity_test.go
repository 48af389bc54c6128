package embedding

import (
	"testing"
)

func TestCosineSimilarity_Identical(t *testing.T) {
	t.Parallel()

	sim, err := CosineSimilarity([]float32{1, 0}, []float32{1, 0})
	if err != nil {
		t.Fatalf("CosineSimilarity error: %v", err)
	}
	if sim != 1.0 {
		t.Errorf("expected similarity 1.0, got %f", sim)
	}
}

func TestCosineSimilarity_Orthogonal(t *testing.T) {
	t.Parallel()

	sim, err := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	if err != nil {
		t.Fatalf("CosineSimilarity error: %v", err)
	}
	if sim != 0.0 {
		t.Errorf("expected similarity 0.0, got %f", sim)
	}
}

func TestCosineSimilarity_ZeroNormGuard(t *testing.T) {
	t.Parallel()

	sim, err := CosineSimilarity([]float32{0, 0}, []float32{1, 1})
	if err != nil {
		t.Fatalf("CosineSimilarity error: %v", err)
	}
	if sim != 0.0 {
		t.Errorf("expected zero-norm vector to yield 0.0, got %f", sim)
	}
}

func TestCosineSimilarity_DimensionMismatch(t *testing.T) {
	t.Parallel()

	if _, err := CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}); err == nil {
		t.Error("expected error for mismatched dimensions")
	}
}

func TestCosineSimilarity_Opposite(t *testing.T) {
	t.Parallel()

	sim, err := CosineSimilarity([]float32{1, 0}, []float32{-1, 0})
	if err != nil {
		t.Fatalf("CosineSimilarity error: %v", err)
	}
	if sim != -1.0 {
		t.Errorf("expected similarity -1.0, got %f", sim)
	}
}

func TestFindTopK_Ordering(t *testing.T) {
	t.Parallel()

	query := []float32{1, 0}
	corpus := [][]float32{
		{0, 1},          // orthogonal
		{1, 0},          // identical
		{0.7071, 0.7071}, // 45 degrees
	}

	results, err := FindTopK(query, corpus, 2)
	if err != nil {
		t.Fatalf("FindTopK error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Index != 1 {
		t.Errorf("expected best match at index 1, got %d", results[0].Index)
	}
	if results[1].Index != 2 {
		t.Errorf("expected second match at index 2, got %d", results[1].Index)
	}
	if results[0].Similarity < results[1].Similarity {
		t.Error("results not sorted by descending similarity")
	}
}

func TestFindTopK_SkipsMismatchedDimensions(t *testing.T) {
	t.Parallel()

	query := []float32{1, 0}
	corpus := [][]float32{
		{1, 0, 0}, // wrong dimension, skipped
		{1, 0},
	}

	results, err := FindTopK(query, corpus, 5)
	if err != nil {
		t.Fatalf("FindTopK error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Index != 1 {
		t.Errorf("expected index 1, got %d", results[0].Index)
	}
}
