// Package config decodes declarative pipeline files written in HCL.
//
//	settings {
//	  batch_size          = 64
//	  log_level           = "info"
//	  structured_encoding = true
//	}
//
//	input "table" {
//	  type         = "StructuredDataInput"
//	  column_names = ["age", "city"]
//	  column_types = { city = categorical }
//	}
//
// The bare identifiers numerical and categorical evaluate to the column type
// names.
package config

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/YuminosukeSato/autoscigo/core/schema"
	"github.com/YuminosukeSato/autoscigo/nodes"
	"github.com/YuminosukeSato/autoscigo/pipeline"
	"github.com/YuminosukeSato/autoscigo/pkg/errors"
	"github.com/YuminosukeSato/autoscigo/pkg/log"
	"github.com/YuminosukeSato/autoscigo/serialization"
)

// File is the decoded content of one pipeline file.
type File struct {
	Filename string
	Settings *Settings `hcl:"settings,block"`
	Inputs   []*Input  `hcl:"input,block"`
}

// Settings holds the pipeline-wide options. Unset fields keep their defaults.
type Settings struct {
	BatchSize          *int    `hcl:"batch_size,optional"`
	LogLevel           *string `hcl:"log_level,optional"`
	StructuredEncoding *bool   `hcl:"structured_encoding,optional"`
	Normalization      *bool   `hcl:"normalization,optional"`
}

// Input declares one node.
type Input struct {
	Name        string            `hcl:"name,label"`
	Type        string            `hcl:"type"`
	Shape       []int             `hcl:"shape,optional"`
	ColumnNames []string          `hcl:"column_names,optional"`
	ColumnTypes map[string]string `hcl:"column_types,optional"`
	Lookback    *int              `hcl:"lookback,optional"`
}

func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			string(schema.Numerical):   cty.StringVal(string(schema.Numerical)),
			string(schema.Categorical): cty.StringVal(string(schema.Categorical)),
		},
	}
}

// Load parses and decodes the HCL file at path.
func Load(path string) (*File, error) {
	log.GetLoggerWithName("config").Debug("Decoding pipeline file.", log.ConfigFileKey, path)
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, errors.NewConfigurationError(path, "", diags.Error())
	}
	return decode(f, path)
}

// Parse decodes HCL source. filename is used in diagnostics only.
func Parse(src []byte, filename string) (*File, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.NewConfigurationError(filename, "", diags.Error())
	}
	return decode(f, filename)
}

func decode(f *hcl.File, filename string) (*File, error) {
	var out File
	if diags := gohcl.DecodeBody(f.Body, evalContext(), &out); diags.HasErrors() {
		return nil, errors.NewConfigurationError(filename, "", diags.Error())
	}
	out.Filename = filename
	if len(out.Inputs) == 0 {
		return nil, errors.NewConfigurationError(filename, "input", "at least one input block is required")
	}
	log.GetLoggerWithName("config").Debug("Decoded pipeline file.",
		log.ConfigFileKey, filename, "inputs_found", len(out.Inputs))
	return &out, nil
}

// Nodes builds the declared nodes, in declaration order, with reg. A nil reg
// uses nodes.NewRegistry.
func (f *File) Nodes(reg *nodes.Registry) ([]nodes.Node, error) {
	if reg == nil {
		reg = nodes.NewRegistry()
	}
	out := make([]nodes.Node, len(f.Inputs))
	for i, in := range f.Inputs {
		obj, err := in.object()
		if err != nil {
			return nil, err
		}
		n, err := reg.Deserialize(obj)
		if err != nil {
			return nil, errors.Wrapf(err, "input '%s'", in.Name)
		}
		out[i] = n
	}
	return out, nil
}

func (in *Input) object() (serialization.Object, error) {
	component := in.Type + "(" + in.Name + ")"
	tabular := in.Type == nodes.StructuredDataInputClass || in.Type == nodes.TimeseriesInputClass
	if !tabular && (in.ColumnNames != nil || in.ColumnTypes != nil) {
		return serialization.Object{}, errors.NewConfigurationError(component, "column_names",
			"columns can only be declared on StructuredDataInput and TimeseriesInput")
	}
	if in.Lookback != nil && in.Type != nodes.TimeseriesInputClass {
		return serialization.Object{}, errors.NewConfigurationError(component, "lookback",
			"lookback can only be declared on TimeseriesInput")
	}
	cfg := serialization.Config{"name": in.Name}
	if in.Shape != nil {
		cfg["shape"] = in.Shape
	}
	if tabular {
		cfg["column_names"] = in.ColumnNames
		cfg["column_types"] = in.ColumnTypes
	}
	if in.Lookback != nil {
		cfg["lookback"] = *in.Lookback
	}
	return serialization.Object{ClassName: in.Type, Config: cfg}, nil
}

// Options converts the settings block to pipeline options.
func (f *File) Options() []pipeline.Option {
	var opts []pipeline.Option
	s := f.Settings
	if s == nil {
		return opts
	}
	if s.BatchSize != nil {
		opts = append(opts, pipeline.WithBatchSize(*s.BatchSize))
	}
	if s.StructuredEncoding != nil && *s.StructuredEncoding {
		opts = append(opts, pipeline.WithStructuredEncoding())
	}
	if s.Normalization != nil && *s.Normalization {
		opts = append(opts, pipeline.WithNormalization())
	}
	return opts
}

// LogLevel returns the configured log level, or def when unset.
func (f *File) LogLevel(def log.Level) (log.Level, error) {
	if f.Settings == nil || f.Settings.LogLevel == nil {
		return def, nil
	}
	lvl, err := log.ParseLevel(*f.Settings.LogLevel)
	if err != nil {
		return def, errors.NewConfigurationError(f.Filename, "log_level", err.Error())
	}
	return lvl, nil
}

// Pipeline builds the declared nodes and returns an unfitted pipeline. extra
// options are applied after the file's settings.
func (f *File) Pipeline(extra ...pipeline.Option) (*pipeline.Pipeline, error) {
	ns, err := f.Nodes(nil)
	if err != nil {
		return nil, err
	}
	return pipeline.New(ns, append(f.Options(), extra...)...)
}
