package embed

import (
	"context"
	"math"
	"testing"
)

func magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func TestLocalEmbedder_ProducesUnitVectors(t *testing.T) {
	e := NewLocalEmbedder(64)
	vec, err := e.Embed(context.Background(), "o gato caçou o rato", ModeDocument)
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 64 {
		t.Fatalf("expected dim 64, got %d", len(vec))
	}
	if mag := magnitude(vec); math.Abs(mag-1.0) > 1e-6 {
		t.Errorf("expected unit vector, got magnitude %v", mag)
	}
}

func TestLocalEmbedder_IsDeterministic(t *testing.T) {
	e := NewLocalEmbedder(64)
	a, _ := e.Embed(context.Background(), "felino doméstico", ModeDocument)
	b, _ := e.Embed(context.Background(), "felino doméstico", ModeQuery)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("expected identical vectors for identical text regardless of mode, diverged at %d", i)
		}
	}
}

func TestLocalEmbedder_RejectsEmptyText(t *testing.T) {
	e := NewLocalEmbedder(32)
	if _, err := e.Embed(context.Background(), "   ", ModeDocument); err != ErrEmptyText {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
}

func TestLocalEmbedder_SharedVocabularyIsCloser(t *testing.T) {
	e := NewLocalEmbedder(256)
	gato, _ := e.Embed(context.Background(), "gato felino doméstico pequeno", ModeDocument)
	gatinho, _ := e.Embed(context.Background(), "gato felino doméstico filhote", ModeDocument)
	foguete, _ := e.Embed(context.Background(), "foguete combustível orbital lançamento", ModeDocument)

	simNear := dot(gato, gatinho)
	simFar := dot(gato, foguete)
	if simNear <= simFar {
		t.Errorf("expected shared-vocabulary texts to be more similar: near=%v far=%v", simNear, simFar)
	}
}
