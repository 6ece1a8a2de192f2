package textutil_test

import (
	"testing"

	"cinematch/internal/textutil"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "accents and punctuation", in: "Cortiñas, Nora!", want: "cortinas nora"},
		{name: "collapses runs", in: "  El   secreto -- de sus ojos ", want: "el secreto de sus ojos"},
		{name: "mixed case diacritics", in: "MANKEWENÜY", want: "mankewenuy"},
		{name: "digits kept", in: "Rambo III: 1988", want: "rambo iii 1988"},
		{name: "empty", in: "", want: ""},
		{name: "only symbols", in: "¡¿...?!", want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := textutil.Normalize(tc.in)
			if got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
			if again := textutil.Normalize(got); again != got {
				t.Fatalf("Normalize is not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"Perceptio", "Perception", 90},
		{"La Ciénaga", "la cienaga", 100},
		{"", "anything", 0},
		{"abc", "", 0},
		{"abcd", "wxyz", 0},
		{"Norita", "Norita, Nora Cortiñas", 30},
	}
	for _, tc := range tests {
		if got := textutil.Similarity(tc.a, tc.b); got != tc.want {
			t.Errorf("Similarity(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
		if got, rev := textutil.Similarity(tc.a, tc.b), textutil.Similarity(tc.b, tc.a); got != rev {
			t.Errorf("Similarity not symmetric for %q/%q: %d vs %d", tc.a, tc.b, got, rev)
		}
	}
}

func TestSimilaritySelfIsHundred(t *testing.T) {
	for _, s := range []string{"Zama", "Relatos salvajes", "x"} {
		if got := textutil.Similarity(s, s); got != 100 {
			t.Fatalf("Similarity(%q, %q) = %d, want 100", s, s, got)
		}
	}
}

func TestCompareTitles(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{name: "comma subtitle", a: "Mankewenüy", b: "Mankewenüy, amiga del cóndor", want: 100},
		{name: "subtitle on the left", a: "El nombrador, una película sobre Daniel Toro", b: "El nombrador", want: 100},
		{name: "colon subtitle", a: "Zona de riesgo: la película", b: "Zona de riesgo", want: 100},
		{name: "dot subtitle", a: "El secreto. La historia", b: "El secreto", want: 100},
		{name: "abbreviation without separator", a: "Dr. Who", b: "Dr Who", want: 100},
		{name: "plain similarity", a: "Perceptio", b: "Perception", want: 90},
		{name: "different base", a: "Norita", b: "Nora, la película", want: textutil.Similarity("Norita", "Nora, la película")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := textutil.CompareTitles(tc.a, tc.b); got != tc.want {
				t.Fatalf("CompareTitles(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestComparePersonNames(t *testing.T) {
	tests := []struct {
		name       string
		a, b       string
		match      bool
		confidence textutil.Confidence
	}{
		{name: "identical", a: "Lucrecia Martel", b: "Lucrecia Martel", match: true, confidence: textutil.ConfidenceHigh},
		{name: "accents", a: "Nicolás Giarrusso", b: "Nicolas Giarrusso", match: true, confidence: textutil.ConfidenceHigh},
		{name: "middle name added", a: "Gustavo Giannini", b: "Gustavo Alex Giannini", match: true, confidence: textutil.ConfidenceHigh},
		{name: "nickname contained", a: "Polo Obligado", b: "Leopoldo Obligado", match: true, confidence: textutil.ConfidenceHigh},
		{name: "surname contained", a: "Elizabeth Ekian", b: "Elizabeth Ekmekdjian", match: true, confidence: textutil.ConfidenceHigh},
		{name: "leading given name", a: "Javier Diment", b: "Valentin Javier Diment", match: true, confidence: textutil.ConfidenceHigh},
		{name: "second surname", a: "Luis Galmes", b: "Luis Omar Galmes Klein", match: true, confidence: textutil.ConfidenceHigh},
		{name: "different people", a: "Nicolás Giarrusso", b: "Ryan Smith", match: false, confidence: textutil.ConfidenceLow},
		{name: "initial only", a: "J.", b: "John Smith", match: false, confidence: textutil.ConfidenceLow},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := textutil.ComparePersonNames(tc.a, tc.b)
			if got.Match != tc.match {
				t.Fatalf("ComparePersonNames(%q, %q).Match = %v (%s), want %v", tc.a, tc.b, got.Match, got.Reason, tc.match)
			}
			if got.Confidence != tc.confidence {
				t.Fatalf("confidence = %s, want %s (%s)", got.Confidence, tc.confidence, got.Reason)
			}
			if got.Reason == "" {
				t.Fatal("expected a reason")
			}
		})
	}
}

func TestComparePersonNamesPartialNeedsReview(t *testing.T) {
	got := textutil.ComparePersonNames("Pablo Trapero", "Paulo Traperos")
	if got.Match {
		t.Fatalf("expected no match, got %s", got.Reason)
	}
	if got.Reason != "partial similarity 86%, needs review" {
		t.Fatalf("unexpected reason %q", got.Reason)
	}
}
