package report

import (
	"reflect"
	"testing"
)

func TestParseTwoSections(t *testing.T) {
	r := Parse("[TAJUK] Hello [ABSTRAK] World")

	if r.Tajuk != "Hello" {
		t.Errorf("Tajuk = %q, want %q", r.Tajuk, "Hello")
	}
	if r.Abstrak != "World" {
		t.Errorf("Abstrak = %q, want %q", r.Abstrak, "World")
	}
	if r.Pengenalan != Sentinel {
		t.Errorf("Pengenalan = %q, want sentinel", r.Pengenalan)
	}
	if len(r.Missing) != 6 {
		t.Errorf("len(Missing) = %d, want 6", len(r.Missing))
	}
}

func TestParseEmptyDraft(t *testing.T) {
	r := Parse("")

	for _, sec := range r.Sections() {
		if sec.Body != Sentinel {
			t.Errorf("section %s = %q, want sentinel", sec.Label, sec.Body)
		}
	}
	if got := len(r.Missing); got != len(Labels) {
		t.Errorf("len(Missing) = %d, want %d", got, len(Labels))
	}
	if r.Complete() {
		t.Error("Complete() = true for empty draft")
	}
}

func TestParseCaseInsensitive(t *testing.T) {
	r := Parse("[tajuk] Title here\n[Abstrak] Summary here")

	if r.Tajuk != "Title here" {
		t.Errorf("Tajuk = %q", r.Tajuk)
	}
	if r.Abstrak != "Summary here" {
		t.Errorf("Abstrak = %q", r.Abstrak)
	}
}

func TestParseReordered(t *testing.T) {
	draft := "[RUJUKAN] Smith (2020)\n[TAJUK] Late title"
	r := Parse(draft)

	if r.Rujukan != "Smith (2020)" {
		t.Errorf("Rujukan = %q", r.Rujukan)
	}
	if r.Tajuk != "Late title" {
		t.Errorf("Tajuk = %q", r.Tajuk)
	}
}

func TestParseFirstOccurrenceWins(t *testing.T) {
	draft := "[TAJUK] First title [TAJUK] Second title"
	r := Parse(draft)

	if r.Tajuk != "First title" {
		t.Errorf("Tajuk = %q, want first occurrence", r.Tajuk)
	}
}

func TestParseAllSections(t *testing.T) {
	draft := `[TAJUK] A Systematic Review
[ABSTRAK] This review examines the field.
[PENGENALAN] Background and motivation.
[METODOLOGI] PRISMA-guided screening.
[DAPATAN] Twelve studies were included.
[PERBINCANGAN] Findings converge on three themes.
[KESIMPULAN] More work is needed.
[RUJUKAN] Smith, J. (2020). Example. Journal of Examples.`

	r := Parse(draft)

	if !r.Complete() {
		t.Fatalf("Complete() = false, missing %v", r.Missing)
	}
	if r.Metodologi != "PRISMA-guided screening." {
		t.Errorf("Metodologi = %q", r.Metodologi)
	}
	if r.Rujukan != "Smith, J. (2020). Example. Journal of Examples." {
		t.Errorf("Rujukan = %q", r.Rujukan)
	}
}

func TestParseWhitespaceInDelimiter(t *testing.T) {
	r := Parse("[ TAJUK ] Padded label")
	if r.Tajuk != "Padded label" {
		t.Errorf("Tajuk = %q", r.Tajuk)
	}
}

func TestParseEmptyBodyIsMissing(t *testing.T) {
	r := Parse("[TAJUK]   \n[ABSTRAK] Body")
	if r.Tajuk != Sentinel {
		t.Errorf("Tajuk = %q, want sentinel for empty body", r.Tajuk)
	}
	if r.Abstrak != "Body" {
		t.Errorf("Abstrak = %q", r.Abstrak)
	}
}

func TestParseIdempotent(t *testing.T) {
	draft := "[TAJUK] Hello [ABSTRAK] World"
	first := Parse(draft)
	second := Parse(draft)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Parse not idempotent: %+v vs %+v", first, second)
	}
}

func TestSectionsOrder(t *testing.T) {
	r := Parse("[ABSTRAK] Out of order [TAJUK] Title")
	sections := r.Sections()

	if len(sections) != len(Labels) {
		t.Fatalf("len(Sections) = %d, want %d", len(sections), len(Labels))
	}
	for i, sec := range sections {
		if sec.Label != Labels[i] {
			t.Errorf("section %d label = %s, want %s", i, sec.Label, Labels[i])
		}
	}
}
