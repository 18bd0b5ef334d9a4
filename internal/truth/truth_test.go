package truth

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestNew_NegativeEvidenceRejected(t *testing.T) {
	if _, err := New(-1, 0); err == nil {
		t.Fatal("expected error for negative w+")
	}
	if _, err := New(0, -1); err == nil {
		t.Fatal("expected error for negative w-")
	}
}

func TestFrequency_ZeroEvidenceIsHalf(t *testing.T) {
	v := Value{}
	if !almostEqual(v.Frequency(), 0.5) {
		t.Errorf("expected frequency 0.5, got %v", v.Frequency())
	}
}

func TestConfidence_StrictlyBelowOne(t *testing.T) {
	v, err := New(1000, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if v.Confidence() >= 1.0 {
		t.Errorf("confidence must be < 1, got %v", v.Confidence())
	}
}

func TestRevise_Commutative(t *testing.T) {
	a, _ := New(3, 1)
	b, _ := New(2, 4)
	ab := Revise(a, b)
	ba := Revise(b, a)
	if !almostEqual(ab.Frequency(), ba.Frequency()) || !almostEqual(ab.Confidence(), ba.Confidence()) {
		t.Errorf("revise not commutative: %+v vs %+v", ab, ba)
	}
}

func TestRevise_Associative(t *testing.T) {
	a, _ := New(3, 1)
	b, _ := New(2, 4)
	c, _ := New(1, 1)

	left := Revise(Revise(a, b), c)
	right := Revise(a, Revise(b, c))

	if !almostEqual(left.Frequency(), right.Frequency()) || !almostEqual(left.Confidence(), right.Confidence()) {
		t.Errorf("revise not associative: %+v vs %+v", left, right)
	}
}

func TestDeduce_MatchesSpecScenario(t *testing.T) {
	// gato --Inheritance--> felino : freq 0.9, conf 0.8
	a, err := FromFrequencyConfidence(0.9, 0.8, EvidentialHorizon)
	if err != nil {
		t.Fatal(err)
	}
	// felino --Inheritance--> animal : freq 0.95, conf 0.85
	b, err := FromFrequencyConfidence(0.95, 0.85, EvidentialHorizon)
	if err != nil {
		t.Fatal(err)
	}

	d := Deduce(a, b)
	wantF := 0.9 * 0.95
	wantC := 0.9 * 0.95 * 0.8 * 0.85

	if !almostEqual(d.Frequency(), wantF) {
		t.Errorf("frequency = %v, want %v", d.Frequency(), wantF)
	}
	if !almostEqual(d.Confidence(), wantC) {
		t.Errorf("confidence = %v, want %v", d.Confidence(), wantC)
	}
}

func TestDeduce_ConfidenceNeverReachesOne(t *testing.T) {
	a, _ := FromFrequencyConfidence(1.0, 0.999, EvidentialHorizon)
	b, _ := FromFrequencyConfidence(1.0, 0.999, EvidentialHorizon)
	d := Deduce(a, b)
	if d.Confidence() >= 1.0 {
		t.Errorf("deduced confidence must stay < 1, got %v", d.Confidence())
	}
}

func TestInduce_FrequencyFollowsB(t *testing.T) {
	a, _ := FromFrequencyConfidence(0.8, 0.7, EvidentialHorizon)
	b, _ := FromFrequencyConfidence(0.4, 0.6, EvidentialHorizon)
	ind := Induce(a, b)
	if !almostEqual(ind.Frequency(), 0.4) {
		t.Errorf("induce frequency = %v, want 0.4", ind.Frequency())
	}
}

func TestAbduce_FrequencyFollowsA(t *testing.T) {
	a, _ := FromFrequencyConfidence(0.7, 0.6, EvidentialHorizon)
	b, _ := FromFrequencyConfidence(0.3, 0.5, EvidentialHorizon)
	abd := Abduce(a, b)
	if !almostEqual(abd.Frequency(), 0.7) {
		t.Errorf("abduce frequency = %v, want 0.7", abd.Frequency())
	}
}

func TestFromFrequencyConfidence_RejectsOutOfRange(t *testing.T) {
	if _, err := FromFrequencyConfidence(1.5, 0.5, EvidentialHorizon); err == nil {
		t.Fatal("expected error for frequency > 1")
	}
	if _, err := FromFrequencyConfidence(0.5, 1.0, EvidentialHorizon); err == nil {
		t.Fatal("expected error for confidence >= 1")
	}
}

func TestInitial_IsFullPositiveEvidence(t *testing.T) {
	v := Initial(EvidentialHorizon)
	if !almostEqual(v.Frequency(), 1.0) {
		t.Errorf("expected frequency 1.0, got %v", v.Frequency())
	}
	if v.Confidence() <= 0 {
		t.Errorf("expected positive confidence, got %v", v.Confidence())
	}
}

func TestExpectation_RangeAndMidpoint(t *testing.T) {
	v := Value{}
	if !almostEqual(v.Expectation(), 0.5) {
		t.Errorf("zero-evidence expectation should be 0.5, got %v", v.Expectation())
	}

	strong, _ := FromFrequencyConfidence(1.0, 0.9, EvidentialHorizon)
	if strong.Expectation() <= 0.5 {
		t.Errorf("strong positive evidence should push expectation above 0.5, got %v", strong.Expectation())
	}
}
