// Package autoscigo turns raw heterogeneous datasets (images, text,
// structured tables, time series) into canonical tensor streams ready for a
// searchable neural architecture.
//
// Each model input is described by a Node. During Fit the pipeline adapts the
// raw data, analyses it in a single streaming pass, lets the node configure
// itself from what was found, freezes the node and fits the node's
// preprocessors once. Model building, training and architecture search live
// outside this module and are reached through the framework and hyper
// packages.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "context"
//	    "log"
//
//	    "github.com/YuminosukeSato/autoscigo/core/dataset"
//	    "github.com/YuminosukeSato/autoscigo/nodes"
//	    "github.com/YuminosukeSato/autoscigo/pipeline"
//	)
//
//	func main() {
//	    frame, err := dataset.NewFrame(
//	        []string{"age", "city"},
//	        [][]string{{"31", "tokyo"}, {"45", "osaka"}, {"27", "tokyo"}},
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    table, err := nodes.NewStructuredDataInput("table", nil, nil)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    p, err := pipeline.New([]nodes.Node{table}, pipeline.WithStructuredEncoding())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := p.Fit(context.Background(), nil, frame); err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := p.Save("pipeline.json"); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// # Packages
//
//   - core/tensor: canonical tensors with a leading batch axis
//   - core/dataset: lazy batched streams (in-memory, CSV, generators, channels)
//   - adapters: validation and canonicalization of raw inputs
//   - analysers: single-pass statistics and column type inference
//   - nodes: the five input node variants and their registry
//   - layers: StringLookup, MultiCategoryEncoding, TextVectorizationWithTokenizer
//   - tokenization: BERT-style WordPiece tokenizer
//   - preprocessors, hyperpreprocessors: fit-once transformations
//   - pipeline: orchestration, Save and Load
//   - config: HCL pipeline declarations
//   - report: charts of analyser statistics
//   - pkg/errors, pkg/log: structured errors and logging
package autoscigo
