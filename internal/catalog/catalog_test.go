package catalog

import (
	"errors"
	"testing"
	"testing/fstest"
)

func TestSequenceID(t *testing.T) {
	c := Default()
	tests := []struct {
		sel     Selection
		want    string
		wantErr error
	}{
		{Selection{TruthVsLies, Standard}, "fakenews_truth_vs_lies_standard", nil},
		{Selection{ViralSpread, HighGuidance}, "fakenews_viral_spread_high_guidance", nil},
		{Selection{"nope", Standard}, "", ErrUnknownTheme},
		{Selection{Deepfake, "nope"}, "", ErrUnknownMode},
	}
	for _, tt := range tests {
		got, err := c.SequenceID(tt.sel)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("SequenceID(%v) error = %v, want %v", tt.sel, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("SequenceID(%v) = %q, want %q", tt.sel, got, tt.want)
		}
	}
}

func TestSequenceIDsCoverGrid(t *testing.T) {
	c := Default()
	ids := c.SequenceIDs()
	if len(ids) != 6*4+4 {
		t.Fatalf("expected 28 ids, got %d", len(ids))
	}
	if ids[len(ids)-1] != "04_paradox" {
		t.Fatalf("experiments should come last, got %q", ids[len(ids)-1])
	}
}

func TestParadoxPrompt(t *testing.T) {
	c := Default()
	p, err := c.Prompt(Selection{Deepfake, Paradox})
	if err != nil {
		t.Fatal(err)
	}
	want := "real photograph that is completely fake, authentic deception, genuine artificiality, simultaneously existing and non-existing, visible invisibility"
	if p != want {
		t.Fatalf("unexpected prompt %q", p)
	}
}

func TestCycling(t *testing.T) {
	c := Default()
	sel := c.First()
	if sel != (Selection{TruthVsLies, Standard}) {
		t.Fatalf("unexpected first selection %v", sel)
	}
	if got := c.NextTheme(sel, -1).Theme; got != ViralSpread {
		t.Fatalf("expected wrap to viral_spread, got %s", got)
	}
	if got := c.NextMode(sel, 5).Mode; got != LowSteps {
		t.Fatalf("expected low_steps, got %s", got)
	}
}

func TestLoadOverride(t *testing.T) {
	fsys := fstest.MapFS{
		FileName: &fstest.MapFile{Data: []byte(`
prefix: demo
themes:
  - id: lighthouse
    name: Lighthouse
    prompt: a lighthouse in fog
    seed: 7
`)},
	}
	c, err := Load(fsys)
	if err != nil {
		t.Fatal(err)
	}
	id, err := c.SequenceID(Selection{"lighthouse", Paradox})
	if err != nil {
		t.Fatal(err)
	}
	if id != "demo_lighthouse_paradox" {
		t.Fatalf("unexpected id %q", id)
	}
	if len(c.Modes) != 4 {
		t.Fatal("modes should keep their defaults")
	}
}

func TestLoadMissingAndInvalid(t *testing.T) {
	c, err := Load(fstest.MapFS{})
	if err != nil || len(c.Themes) != 6 {
		t.Fatalf("missing file should yield defaults, got %v", err)
	}

	bad := fstest.MapFS{FileName: &fstest.MapFile{Data: []byte("modes:\n  - id: a\n  - id: a\n")}}
	if _, err := Load(bad); err == nil {
		t.Fatal("duplicate mode ids must be rejected")
	}
	garbled := fstest.MapFS{FileName: &fstest.MapFile{Data: []byte("themes: [")}}
	if _, err := Load(garbled); err == nil {
		t.Fatal("invalid yaml must be rejected")
	}
}
