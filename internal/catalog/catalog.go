// Package catalog maps a theme and generation mode to the sequence id the
// generator wrote for that combination.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"
)

// FileName is the optional override read from the assets root.
const FileName = "catalog.yaml"

var (
	ErrUnknownTheme = errors.New("unknown theme")
	ErrUnknownMode  = errors.New("unknown mode")
)

// ThemeID and ModeID name catalog entries.
type (
	ThemeID string
	ModeID  string
)

const (
	TruthVsLies  ThemeID = "truth_vs_lies"
	EchoChamber  ThemeID = "echo_chamber"
	Propaganda   ThemeID = "propaganda"
	Deepfake     ThemeID = "deepfake"
	InfoOverload ThemeID = "info_overload"
	ViralSpread  ThemeID = "viral_spread"
)

const (
	Standard     ModeID = "standard"
	LowSteps     ModeID = "low_steps"
	HighGuidance ModeID = "high_guidance"
	Paradox      ModeID = "paradox"
)

// Theme is one prompt subject.
type Theme struct {
	ID     ThemeID `yaml:"id" json:"id"`
	Name   string  `yaml:"name" json:"name"`
	Prompt string  `yaml:"prompt" json:"prompt"`
	Seed   int64   `yaml:"seed" json:"seed"`
}

// Mode is one set of generation parameters.
type Mode struct {
	ID           ModeID  `yaml:"id" json:"id"`
	Steps        int     `yaml:"steps" json:"steps"`
	Guidance     float64 `yaml:"guidance" json:"guidance"`
	Description  string  `yaml:"description" json:"description"`
	PromptSuffix string  `yaml:"prompt_suffix,omitempty" json:"prompt_suffix,omitempty"`
}

// Selection picks one cell of the theme x mode grid.
type Selection struct {
	Theme ThemeID
	Mode  ModeID
}

// Catalog lists the known themes, modes and standalone experiment sequences.
type Catalog struct {
	Prefix      string   `yaml:"prefix" json:"prefix"`
	Themes      []Theme  `yaml:"themes" json:"themes"`
	Modes       []Mode   `yaml:"modes" json:"modes"`
	Experiments []string `yaml:"experiments" json:"experiments"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return &Catalog{
		Prefix: "fakenews",
		Themes: []Theme{
			{TruthVsLies, "Truth vs Lies", "newspaper headlines morphing into smoke, truth and lies intertwined, digital glitch aesthetic", 123},
			{EchoChamber, "Echo Chamber", "infinite mirrors reflecting distorted news, echo chamber, fragmented reality, social media bubbles", 456},
			{Propaganda, "Propaganda Machine", "propaganda posters, megaphones, manipulated crowds, red and black colors, authoritarian aesthetic", 789},
			{Deepfake, "Deepfake", "real photograph that is completely fake, authentic deception, genuine artificiality", 101112},
			{InfoOverload, "Information Overload", "thousands of screens showing conflicting information, overwhelming data streams, drowning in headlines", 131415},
			{ViralSpread, "Viral Spread", "misinformation spreading like a virus through networks, glowing pathways, infection map, exponential growth", 161718},
		},
		Modes: []Mode{
			{ID: Standard, Steps: 50, Guidance: 7.5, Description: "Normal generation"},
			{ID: LowSteps, Steps: 15, Guidance: 7.5, Description: "Arrested development (dreamlike)"},
			{ID: HighGuidance, Steps: 50, Guidance: 15.0, Description: "Over-interpretation (oversaturated)"},
			{ID: Paradox, Steps: 50, Guidance: 7.5, Description: "Paradoxical interpretation",
				PromptSuffix: ", simultaneously existing and non-existing, visible invisibility"},
		},
		Experiments: []string{"01_standard", "02_low_steps", "03_high_guidance", "04_paradox"},
	}
}

// Load reads FileName from fsys over the built-in catalog. Sections missing
// from the file keep their defaults; a missing file is not an error.
func Load(fsys fs.FS) (*Catalog, error) {
	c := Default()
	data, err := fs.ReadFile(fsys, FileName)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", FileName, err)
	}

	var file Catalog
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", FileName, err)
	}
	if file.Prefix != "" {
		c.Prefix = file.Prefix
	}
	if len(file.Themes) > 0 {
		c.Themes = file.Themes
	}
	if len(file.Modes) > 0 {
		c.Modes = file.Modes
	}
	if file.Experiments != nil {
		c.Experiments = file.Experiments
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("parse %s: %w", FileName, err)
	}
	return c, nil
}

func (c *Catalog) validate() error {
	seen := make(map[string]bool)
	for _, t := range c.Themes {
		if t.ID == "" || seen["t:"+string(t.ID)] {
			return fmt.Errorf("theme id %q empty or duplicated", t.ID)
		}
		seen["t:"+string(t.ID)] = true
	}
	for _, m := range c.Modes {
		if m.ID == "" || seen["m:"+string(m.ID)] {
			return fmt.Errorf("mode id %q empty or duplicated", m.ID)
		}
		seen["m:"+string(m.ID)] = true
	}
	return nil
}

// Theme looks up a theme by id.
func (c *Catalog) Theme(id ThemeID) (Theme, error) {
	for _, t := range c.Themes {
		if t.ID == id {
			return t, nil
		}
	}
	return Theme{}, fmt.Errorf("%w: %s", ErrUnknownTheme, id)
}

// Mode looks up a mode by id.
func (c *Catalog) Mode(id ModeID) (Mode, error) {
	for _, m := range c.Modes {
		if m.ID == id {
			return m, nil
		}
	}
	return Mode{}, fmt.Errorf("%w: %s", ErrUnknownMode, id)
}

// SequenceID resolves a selection to its sequence id.
func (c *Catalog) SequenceID(sel Selection) (string, error) {
	if _, err := c.Theme(sel.Theme); err != nil {
		return "", err
	}
	if _, err := c.Mode(sel.Mode); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%s_%s", c.Prefix, sel.Theme, sel.Mode), nil
}

// Prompt returns the prompt the generator used for a selection.
func (c *Catalog) Prompt(sel Selection) (string, error) {
	t, err := c.Theme(sel.Theme)
	if err != nil {
		return "", err
	}
	m, err := c.Mode(sel.Mode)
	if err != nil {
		return "", err
	}
	return t.Prompt + m.PromptSuffix, nil
}

// SequenceIDs lists every theme x mode id followed by the experiments.
func (c *Catalog) SequenceIDs() []string {
	out := make([]string, 0, len(c.Themes)*len(c.Modes)+len(c.Experiments))
	for _, t := range c.Themes {
		for _, m := range c.Modes {
			out = append(out, fmt.Sprintf("%s_%s_%s", c.Prefix, t.ID, m.ID))
		}
	}
	return append(out, c.Experiments...)
}

// First returns the first theme x mode cell.
func (c *Catalog) First() Selection {
	var sel Selection
	if len(c.Themes) > 0 {
		sel.Theme = c.Themes[0].ID
	}
	if len(c.Modes) > 0 {
		sel.Mode = c.Modes[0].ID
	}
	return sel
}

// NextTheme cycles the selection's theme by delta, wrapping.
func (c *Catalog) NextTheme(sel Selection, delta int) Selection {
	if len(c.Themes) == 0 {
		return sel
	}
	i := 0
	for k, t := range c.Themes {
		if t.ID == sel.Theme {
			i = k
			break
		}
	}
	n := len(c.Themes)
	sel.Theme = c.Themes[((i+delta)%n+n)%n].ID
	return sel
}

// NextMode cycles the selection's mode by delta, wrapping.
func (c *Catalog) NextMode(sel Selection, delta int) Selection {
	if len(c.Modes) == 0 {
		return sel
	}
	i := 0
	for k, m := range c.Modes {
		if m.ID == sel.Mode {
			i = k
			break
		}
	}
	n := len(c.Modes)
	sel.Mode = c.Modes[((i+delta)%n+n)%n].ID
	return sel
}

// Label is a short display name such as "Deepfake / low_steps".
func (c *Catalog) Label(sel Selection) string {
	name := string(sel.Theme)
	if t, err := c.Theme(sel.Theme); err == nil && t.Name != "" {
		name = t.Name
	}
	return name + " / " + string(sel.Mode)
}
