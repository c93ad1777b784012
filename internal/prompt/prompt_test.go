package prompt

import (
	"fmt"
	"strings"
	"testing"
)

func TestStructureFor(t *testing.T) {
	tests := []struct {
		target     int
		words      int
		paragraphs int
		sections   int
	}{
		{1000, 154, 3, 2},
		{2000, 308, 4, 3},
		{3000, 462, 6, 4},
	}

	for _, tt := range tests {
		s := StructureFor(tt.target)
		if s.Words != tt.words {
			t.Errorf("StructureFor(%d).Words = %d, want %d", tt.target, s.Words, tt.words)
		}
		if s.Paragraphs != tt.paragraphs {
			t.Errorf("StructureFor(%d).Paragraphs = %d, want %d", tt.target, s.Paragraphs, tt.paragraphs)
		}
		if s.Sections != tt.sections {
			t.Errorf("StructureFor(%d).Sections = %d, want %d", tt.target, s.Sections, tt.sections)
		}
	}
}

func TestLengthBand(t *testing.T) {
	min, max := LengthBand(2000)
	if min != 1700 || max != 2200 {
		t.Errorf("LengthBand(2000) = [%d, %d], want [1700, 2200]", min, max)
	}

	min, max = LengthBand(1000)
	if min != 850 || max != 1100 {
		t.Errorf("LengthBand(1000) = [%d, %d], want [850, 1100]", min, max)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	p := Params{Topic: "Zalety pracy zdalnej", TargetLength: 2000, Keywords: []string{"praca zdalna", "home office"}}

	a := Build(p)
	b := Build(p)
	if a != b {
		t.Error("Build is not deterministic for identical inputs")
	}
}

func TestBuild_ContainsLengthBand(t *testing.T) {
	out := Build(Params{Topic: "Test", TargetLength: 2000})

	if !strings.Contains(out, "MINIMUM: 1700 znaków") {
		t.Error("Expected minimum of 1700 chars in instruction")
	}
	if !strings.Contains(out, "MAKSIMUM: 2200 znaków") {
		t.Error("Expected maximum of 2200 chars in instruction")
	}
}

func TestBuild_SeoBlockOnlyWithKeywords(t *testing.T) {
	without := Build(Params{Topic: "Test", TargetLength: 1000})
	if strings.Contains(without, "OPTYMALIZACJA SEO") {
		t.Error("SEO block present without keywords")
	}

	with := Build(Params{Topic: "Test", TargetLength: 1000, Keywords: []string{"pozycjonowanie", "seo audyt"}})
	if !strings.Contains(with, "OPTYMALIZACJA SEO") {
		t.Error("SEO block missing with keywords")
	}
	if !strings.Contains(with, `"pozycjonowanie"`) {
		t.Error("Primary keyword missing from SEO block")
	}
	if !strings.Contains(with, `"seo audyt"`) {
		t.Error("Secondary keyword missing from SEO block")
	}
}

func TestBuild_ExamplePerTier(t *testing.T) {
	tests := []struct {
		target int
		marker string
	}{
		{1000, "WZORZEC DŁUGOŚCI (~1000 znaków)"},
		{2000, "WZORZEC DŁUGOŚCI (~2000 znaków)"},
		{3000, "WZORZEC DŁUGOŚCI (~3000 znaków)"},
	}

	for _, tt := range tests {
		out := Build(Params{Topic: "Test", TargetLength: tt.target})
		if !strings.Contains(out, tt.marker) {
			t.Errorf("Build(target=%d) missing example marker %q", tt.target, tt.marker)
		}
	}
}

func TestBuild_ForbidsMarkdown(t *testing.T) {
	out := Build(Params{Topic: "Test", TargetLength: 1000})
	if !strings.Contains(out, "bez Markdown") {
		t.Error("Instruction does not forbid Markdown")
	}
	if !strings.Contains(out, "Rozpocznij od: <h1>") {
		t.Error("Instruction does not pin the opening tag")
	}
}

func TestLengthAllowed(t *testing.T) {
	for _, l := range AllowedLengths {
		if !LengthAllowed(l) {
			t.Errorf("LengthAllowed(%d) = false, want true", l)
		}
	}
	for _, l := range []int{0, 500, 1500, 4000} {
		if LengthAllowed(l) {
			t.Errorf("LengthAllowed(%d) = true, want false", l)
		}
	}
}

func TestBuild_StructureCounts(t *testing.T) {
	out := Build(Params{Topic: "Test", TargetLength: 3000})
	if !strings.Contains(out, fmt.Sprintf("<h2>: %d sekcji", 4)) {
		t.Error("Expected 4 sections for target 3000")
	}
}
