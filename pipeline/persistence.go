package pipeline

import (
	"io"

	"github.com/YuminosukeSato/autoscigo/core/tensor"
	"github.com/YuminosukeSato/autoscigo/nodes"
	"github.com/YuminosukeSato/autoscigo/pkg/errors"
	"github.com/YuminosukeSato/autoscigo/pkg/log"
	"github.com/YuminosukeSato/autoscigo/preprocessors"
	"github.com/YuminosukeSato/autoscigo/serialization"
)

// Schema identifies persisted pipeline documents.
const Schema = "autoscigo.pipeline"

// DocumentVersion is the current document layout version.
const DocumentVersion = 1

// Registries are the constructors used to restore a pipeline.
type Registries struct {
	Nodes         *nodes.Registry
	Preprocessors *preprocessors.Registry
}

// DefaultRegistries returns registries of all built-in components. A
// tokenizer must be supplied through opts to restore TextToBertInputs.
func DefaultRegistries(opts ...preprocessors.RegistryOption) Registries {
	return Registries{
		Nodes:         nodes.NewRegistry(),
		Preprocessors: preprocessors.NewRegistry(opts...),
	}
}

type document struct {
	Schema   string          `json:"schema"`
	Version  int             `json:"version"`
	Families map[string]int  `json:"families"`
	Inputs   []inputDocument `json:"inputs"`
}

type inputDocument struct {
	Node          serialization.Object   `json:"node"`
	Preprocessors []serialization.Object `json:"preprocessors"`
	Output        *outputDocument        `json:"output,omitempty"`
}

// outputDocument は前処理チェーンの出力形状
type outputDocument struct {
	Shape []int  `json:"shape"`
	DType string `json:"dtype"`
}

func (p *Pipeline) document() document {
	doc := document{
		Schema:  Schema,
		Version: DocumentVersion,
		Families: map[string]int{
			nodes.RegistryFamily:         nodes.RegistryVersion,
			preprocessors.RegistryFamily: preprocessors.RegistryVersion,
		},
		Inputs: make([]inputDocument, len(p.inputs)),
	}
	for i, in := range p.inputs {
		preps := make([]serialization.Object, len(in.Preprocessors))
		for j, prep := range in.Preprocessors {
			preps[j] = preprocessors.Serialize(prep)
		}
		doc.Inputs[i] = inputDocument{Node: nodes.Serialize(in.Node), Preprocessors: preps}
		if in.outputShape != nil {
			doc.Inputs[i].Output = &outputDocument{Shape: in.outputShape.Clone(), DType: in.outputDType.String()}
		}
	}
	return doc
}

// Encode writes the fitted pipeline as JSON.
func (p *Pipeline) Encode(w io.Writer) error {
	if err := p.state.RequireFitted("Pipeline", "Encode"); err != nil {
		return err
	}
	return serialization.Encode(w, p.document())
}

// Save writes the fitted pipeline to filename.
func (p *Pipeline) Save(filename string) error {
	if err := p.state.RequireFitted("Pipeline", "Save"); err != nil {
		return err
	}
	if err := serialization.SaveFile(filename, p.document()); err != nil {
		return err
	}
	p.logger.Info("Pipeline saved.", log.OperationKey, log.OperationSave, log.ConfigFileKey, filename)
	return nil
}

// Decode restores a fitted pipeline written by Encode.
func Decode(r io.Reader, regs Registries, opts ...Option) (*Pipeline, error) {
	var doc document
	if err := serialization.Decode(r, &doc); err != nil {
		return nil, err
	}
	return fromDocument(doc, regs, opts)
}

// Load restores a fitted pipeline written by Save.
func Load(filename string, regs Registries, opts ...Option) (*Pipeline, error) {
	var doc document
	if err := serialization.LoadFile(filename, &doc); err != nil {
		return nil, err
	}
	p, err := fromDocument(doc, regs, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", filename)
	}
	p.logger.Info("Pipeline loaded.", log.OperationKey, log.OperationLoad, log.ConfigFileKey, filename)
	return p, nil
}

func fromDocument(doc document, regs Registries, opts []Option) (*Pipeline, error) {
	if doc.Schema != Schema {
		return nil, errors.NewConfigurationErrorf("Pipeline", "schema", "expected '%s', got '%s'", Schema, doc.Schema)
	}
	if doc.Version != DocumentVersion {
		return nil, errors.NewConfigurationErrorf("Pipeline", "version",
			"unsupported document version %d (supported: %d)", doc.Version, DocumentVersion)
	}
	if regs.Nodes == nil || regs.Preprocessors == nil {
		return nil, errors.NewConfigurationError("Pipeline", "registries", "node and preprocessor registries are required")
	}
	for _, reg := range []interface {
		Family() string
		Version() int
	}{regs.Nodes, regs.Preprocessors} {
		if v, ok := doc.Families[reg.Family()]; ok && v != reg.Version() {
			return nil, errors.NewConfigurationErrorf("Pipeline", "families",
				"%s format version %d is not supported by the registry (version %d)", reg.Family(), v, reg.Version())
		}
	}

	ns := make([]nodes.Node, len(doc.Inputs))
	for i, in := range doc.Inputs {
		n, err := regs.Nodes.Deserialize(in.Node)
		if err != nil {
			return nil, err
		}
		n.Freeze()
		ns[i] = n
	}
	p, err := New(ns, opts...)
	if err != nil {
		return nil, err
	}
	for i, in := range doc.Inputs {
		for _, obj := range in.Preprocessors {
			prep, err := regs.Preprocessors.Deserialize(obj)
			if err != nil {
				return nil, err
			}
			p.inputs[i].Preprocessors = append(p.inputs[i].Preprocessors, prep)
		}
		if in.Output != nil {
			dtype, err := tensor.ParseDType(in.Output.DType)
			if err != nil {
				return nil, errors.Wrapf(err, "output of input '%s'", ns[i].Name())
			}
			p.inputs[i].outputShape = tensor.Shape(in.Output.Shape).Clone()
			p.inputs[i].outputDType = dtype
		}
	}
	p.state.SetDimensions(len(ns), 0)
	p.state.SetFitted()
	return p, nil
}
