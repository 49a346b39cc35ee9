// Package log defines standard attribute keys for pipeline operations.
//
// Using these keys across adapters, analysers, preprocessors and the pipeline
// keeps log output filterable by node, stage and data shape. Keys follow a
// hierarchical naming convention (e.g., "node.name", "data.samples").

package log

// Node and Operation Context
const (
	// NodeNameKey identifies the input node a record belongs to.
	NodeNameKey = "node.name"

	// NodeModalityKey is the node's variant tag.
	// Examples: "ImageInput", "StructuredDataInput"
	NodeModalityKey = "node.modality"

	// ComponentKey identifies which component is performing the operation.
	// Examples: "adapters", "analysers", "preprocessors", "pipeline"
	ComponentKey = "ml.component"

	// OperationKey specifies the operation being performed.
	// Standard values: "adapt", "analyse", "fit", "transform", "build"
	OperationKey = "ml.operation"

	// StageKey indicates the pipeline stage.
	StageKey = "pipeline.stage"

	// PreprocessorKey names a preprocessor inside a node's chain.
	PreprocessorKey = "preprocessor.name"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (rows) seen.
	SamplesKey = "data.samples"

	// BatchesKey indicates the number of batches streamed.
	BatchesKey = "data.batches"

	// ShapeKey is the per-sample element shape.
	ShapeKey = "data.shape"

	// DataTypeKey specifies the element type.
	// Examples: "float64", "int32", "string"
	DataTypeKey = "data.type"

	// ColumnsKey lists column names of structured data.
	ColumnsKey = "data.columns"

	// BatchSizeKey indicates the size of processing batches.
	BatchSizeKey = "data.batch_size"

	// VocabularySizeKey records a fitted lookup's vocabulary size.
	VocabularySizeKey = "data.vocabulary_size"
)

// Performance
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// SuggestionKey provides helpful suggestions for resolving issues.
	SuggestionKey = "error.suggestion"
)

// Configuration
const (
	// SchemaKey names a serialization schema.
	SchemaKey = "config.schema"

	// ConfigVersionKey tracks the serialization schema version.
	ConfigVersionKey = "config.version"

	// ConfigFileKey is the path of a declarative pipeline file.
	ConfigFileKey = "config.file"
)

// Standard attribute values.
const (
	OperationAdapt     = "adapt"
	OperationAnalyse   = "analyse"
	OperationFit       = "fit"
	OperationTransform = "transform"
	OperationBuild     = "build"
	OperationSave      = "save"
	OperationLoad      = "load"

	StageConfigure = "configure"
	StageFit       = "fit"
	StageTransform = "transform"

	ErrorConfiguration     = "CONFIGURATION"
	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
)
