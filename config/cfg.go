package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	validator "github.com/go-playground/validator/v10"
	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"pdfrst/fonts"
	"pdfrst/layout"
	"pdfrst/rst"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	MergeBandConfig struct {
		Min float64 `yaml:"min" validate:"gte=0"`
		Max float64 `yaml:"max" validate:"gtefield=Min"`
	}

	ImagesConfig struct {
		Export    bool   `yaml:"export"`
		Directory string `yaml:"directory" validate:"required_if=Export true"`
	}

	PDFConfig struct {
		RowTolerance float64 `yaml:"row_tolerance" validate:"gte=0"`
		WordMargin   float64 `yaml:"word_margin" validate:"gt=0"`
		LineMargin   float64 `yaml:"line_margin" validate:"gt=0"`
	}

	DocumentConfig struct {
		PageCutoff       int               `yaml:"page_cutoff" validate:"gte=0"`
		HeaderThreshold  float64           `yaml:"header_threshold" validate:"gt=0"`
		MergeBand        MergeBandConfig   `yaml:"merge_band"`
		GlossarySentinel string            `yaml:"glossary_sentinel"`
		CodeIndent       int               `yaml:"code_indent" validate:"min=1,max=8"`
		ListItems        rst.ListItemsMode `yaml:"list_items" validate:"oneof=leading strict"`
		Fonts            []fonts.Rule      `yaml:"fonts" validate:"dive"`
		Images           ImagesConfig      `yaml:"images"`
		PDF              PDFConfig         `yaml:"pdf"`
	}

	SplitConfig struct {
		Enable          bool   `yaml:"enable"`
		PartTemplate    string `yaml:"part_template" validate:"required"`
		ChapterTemplate string `yaml:"chapter_template" validate:"required"`
		Preamble        string `yaml:"preamble" validate:"required"`
		TOCTree         bool   `yaml:"toctree"`
		Transliterate   bool   `yaml:"transliterate"`
	}

	OutputConfig struct {
		Split SplitConfig `yaml:"split"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Document  DocumentConfig `yaml:"document"`
		Output    OutputConfig   `yaml:"output"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above
	PartTemplateFieldName    TemplateFieldName = "part_template"
	ChapterTemplateFieldName TemplateFieldName = "chapter_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(PartTemplateFieldName)),
	gencfg.WithDoNotExpandField(string(ChapterTemplateFieldName)),
)

// checkFonts makes sure configured classification rules produce known styles,
// tags cannot express that.
func checkFonts(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)
	for i, r := range cfg.Document.Fonts {
		if _, err := rst.ParseStyle(string(r.Style)); err != nil {
			sl.ReportError(r.Style, fmt.Sprintf("Fonts[%d].Style", i), "Style", "style", string(r.Style))
		}
	}
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg, gencfg.WithAdditionalChecks(checkFonts)); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration tamplate to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}

// ChapterOptions converts document settings into chapter model options.
func (conf *DocumentConfig) ChapterOptions() rst.Options {
	return rst.Options{
		HeaderThreshold:  conf.HeaderThreshold,
		MergeBandMin:     conf.MergeBand.Min,
		MergeBandMax:     conf.MergeBand.Max,
		GlossarySentinel: conf.GlossarySentinel,
		Indent:           conf.CodeIndent,
		ListItems:        conf.ListItems,
	}
}

// PDFOptions converts document settings into PDF layout reconstruction options.
func (conf *DocumentConfig) PDFOptions() layout.PDFOptions {
	return layout.PDFOptions{
		RowTolerance: conf.PDF.RowTolerance,
		WordMargin:   conf.PDF.WordMargin,
		LineMargin:   conf.PDF.LineMargin,
	}
}

// FontTable builds classification table, built-in rules are used when none
// are configured.
func (conf *DocumentConfig) FontTable() (*fonts.Table, error) {
	return fonts.NewTable(conf.Fonts)
}
