// Package fonts maps font signatures (font name and size) of the source
// document to semantic roles of text runs.
package fonts

import (
	"fmt"
	"math"
	"slices"
	"strconv"

	"pdfrst/rst"
)

// Signature is the classification key of a glyph.
type Signature struct {
	Font string
	Size float64
}

func (s Signature) String() string {
	return s.Font + "(" + strconv.FormatFloat(s.Size, 'f', -1, 64) + ")"
}

// Round brings glyph size to the precision table rules are written with.
func Round(size float64) float64 {
	return math.Round(size*10) / 10
}

// Rule assigns style to any of the listed fonts. When Sizes are present rule
// only matches glyphs whose rounded size is one of them.
type Rule struct {
	Fonts []string  `yaml:"fonts" validate:"min=1,dive,required"`
	Sizes []float64 `yaml:"sizes,omitempty" validate:"dive,gt=0"`
	Style rst.Style `yaml:"style" validate:"required"`
}

func (r *Rule) matches(font string, size float64) bool {
	if !slices.Contains(r.Fonts, font) {
		return false
	}
	return len(r.Sizes) == 0 || slices.Contains(r.Sizes, size)
}

// Table is an ordered list of rules, first matching rule wins.
type Table struct {
	rules []Rule
}

// NewTable checks rules and builds classification table. Empty rule list
// results in the built-in table.
func NewTable(rules []Rule) (*Table, error) {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	t := &Table{rules: make([]Rule, 0, len(rules))}
	for i, r := range rules {
		if len(r.Fonts) == 0 {
			return nil, fmt.Errorf("font rule %d has no fonts", i)
		}
		if _, err := rst.ParseStyle(string(r.Style)); err != nil {
			return nil, fmt.Errorf("font rule %d: %w", i, err)
		}
		r.Sizes = slices.Clone(r.Sizes)
		for j := range r.Sizes {
			r.Sizes[j] = Round(r.Sizes[j])
		}
		t.rules = append(t.rules, r)
	}
	return t, nil
}

// Rules returns a copy of the table rules.
func (t *Table) Rules() []Rule {
	return slices.Clone(t.rules)
}

// Lookup classifies glyph. False is returned for unknown signatures.
func (t *Table) Lookup(font string, size float64) (rst.Style, bool) {
	size = Round(size)
	for i := range t.rules {
		if t.rules[i].matches(font, size) {
			return t.rules[i].Style, true
		}
	}
	return rst.StyleNone, false
}

// Shadow describes a rule which is (at least for one font) never reached
// because an earlier rule with a different style matches first.
type Shadow struct {
	Rule      int
	By        int
	Signature Signature // Size is 0 when any size is shadowed
}

func (s Shadow) String() string {
	return fmt.Sprintf("rule %d is shadowed by rule %d for %s", s.Rule, s.By, s.Signature)
}

// Validate lists rules made unreachable by earlier rules.
func (t *Table) Validate() []Shadow {
	var res []Shadow
	for j := range t.rules {
		later := &t.rules[j]
		for _, font := range later.Fonts {
			if len(later.Sizes) == 0 {
				// only rule for any size may hide "any size" rule completely
				for i := range j {
					earlier := &t.rules[i]
					if slices.Contains(earlier.Fonts, font) && len(earlier.Sizes) == 0 {
						if earlier.Style != later.Style {
							res = append(res, Shadow{Rule: j, By: i, Signature: Signature{Font: font}})
						}
						break
					}
				}
				continue
			}
			for _, size := range later.Sizes {
				for i := range j {
					if !t.rules[i].matches(font, size) {
						continue
					}
					if t.rules[i].Style != later.Style {
						res = append(res, Shadow{Rule: j, By: i, Signature: Signature{Font: font, Size: size}})
					}
					break
				}
			}
		}
	}
	return res
}
