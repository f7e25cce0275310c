package layout

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// Layout dump format. JSON is a subset of YAML so both are accepted.
//
//	pages:
//	  - id: 1
//	    items:
//	      - box:
//	          x0: 48
//	          y0: 500
//	          lines:
//	            - x0: 48
//	              runs:
//	                - {font: RAZMOK+BerkeleyStd-Medium, size: 10.5, text: "Hello world"}
//	      - image: {name: Im1, data: !!binary iVBORw0...}
//
// Line "runs" are expanded into glyphs one per rune and line is terminated
// with new line. Line "chars" are taken as is, entry with "anno" key is
// virtual text.
type (
	dumpDoc struct {
		Pages []dumpPage `yaml:"pages"`
	}

	dumpPage struct {
		ID    int `yaml:"id"`
		BBox  `yaml:",inline"`
		Items []dumpItem `yaml:"items"`
	}

	dumpItem struct {
		Box   *dumpBox   `yaml:"box"`
		Line  *dumpLine  `yaml:"line"`
		Image *dumpImage `yaml:"image"`
		Group *dumpGroup `yaml:"group"`
	}

	dumpGroup struct {
		BBox  `yaml:",inline"`
		Items []dumpItem `yaml:"items"`
	}

	dumpBox struct {
		BBox  `yaml:",inline"`
		Lines []dumpLine `yaml:"lines"`
	}

	dumpLine struct {
		BBox  `yaml:",inline"`
		Chars []dumpChar `yaml:"chars"`
		Runs  []dumpChar `yaml:"runs"`
	}

	dumpChar struct {
		Font string  `yaml:"font"`
		Size float64 `yaml:"size"`
		Text string  `yaml:"text"`
		Anno *string `yaml:"anno"`
	}

	dumpImage struct {
		Name string `yaml:"name"`
		BBox `yaml:",inline"`
		Data dumpData `yaml:"data"`
	}
)

// dumpData is base64 encoded binary, either tagged "!!binary" in YAML or
// plain string in JSON.
type dumpData []byte

func (d *dumpData) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: image data must be a scalar", node.Line)
	}
	switch node.Tag {
	case "!!binary", "!!str":
	case "!!null":
		*d = nil
		return nil
	default:
		return fmt.Errorf("line %d: unexpected image data type %s", node.Line, node.Tag)
	}
	// block scalars may be folded over several lines
	data, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(node.Value), ""))
	if err != nil {
		return fmt.Errorf("line %d: bad image data: %w", node.Line, err)
	}
	*d = data
	return nil
}

// LoadYAML reads layout dump.
func LoadYAML(r io.Reader) ([]*Page, error) {
	var doc dumpDoc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode layout: %w", err)
	}

	pages := make([]*Page, 0, len(doc.Pages))
	for i, dp := range doc.Pages {
		id := dp.ID
		if id == 0 {
			id = i + 1
		}
		items, err := convertItems(dp.Items)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", id, err)
		}
		pages = append(pages, &Page{ID: id, BBox: dp.BBox, Items: items})
	}
	return pages, nil
}

// LoadFile reads layout dump from the file.
func LoadFile(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pages, err := LoadYAML(f)
	if err != nil {
		return nil, fmt.Errorf("unable to load '%s': %w", path, err)
	}
	return NewSource(pages), nil
}

func convertItems(items []dumpItem) ([]Node, error) {
	nodes := make([]Node, 0, len(items))
	boxes := 0
	for i, it := range items {
		switch {
		case it.Box != nil:
			box := &Box{Index: boxes, BBox: it.Box.BBox}
			boxes++
			for _, dl := range it.Box.Lines {
				box.Lines = append(box.Lines, convertLine(dl))
			}
			nodes = append(nodes, box)
		case it.Line != nil:
			nodes = append(nodes, convertLine(*it.Line))
		case it.Image != nil:
			nodes = append(nodes, &Image{Name: it.Image.Name, BBox: it.Image.BBox, Data: []byte(it.Image.Data)})
		case it.Group != nil:
			children, err := convertItems(it.Group.Items)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, &Container{BBox: it.Group.BBox, Items: children})
		default:
			return nil, fmt.Errorf("item %d is empty", i)
		}
	}
	return nodes, nil
}

func convertLine(dl dumpLine) *Line {
	line := &Line{BBox: dl.BBox}
	for _, dc := range dl.Chars {
		if dc.Anno != nil {
			line.Items = append(line.Items, &Anno{Text: *dc.Anno})
			continue
		}
		line.Items = append(line.Items, &Char{Font: dc.Font, Size: dc.Size, Text: dc.Text})
	}
	if len(dl.Runs) == 0 {
		return line
	}
	for _, run := range dl.Runs {
		for _, r := range run.Text {
			line.Items = append(line.Items, &Char{Font: run.Font, Size: run.Size, Text: string(r)})
		}
	}
	line.Items = append(line.Items, &Anno{Text: "\n"})
	return line
}
