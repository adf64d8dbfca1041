// Package graph defines the genre graph dataset and its wire format.
//
// This package is the data contract between the dataset producer (the
// build command, or any other pipeline that writes data.json) and the
// consumers (renderers, the HTTP server, the terminal browser).
//
// # Core Types
//
//   - [Dataset]: nodes, links and the producer-supplied max_degree
//   - [Node]: one genre, with optional page title, raw wikitext
//     description and last revision date
//   - [Link]: a directed edge tagged with a [RelationshipType]
//   - [RelationshipType]: the closed set {Derivative, Subgenre, FusionGenre}
//
// # Wire Format
//
//	{
//	  "dump_date": "2025-01-23",
//	  "nodes": [{"id": "0", "label": "Blues", "degree": 1}],
//	  "links": [{"source": "0", "target": "1", "ty": "Derivative"}],
//	  "max_degree": 1
//	}
//
// Field names are fixed. Decoding fails on fields of the wrong type and on
// unknown relationship names, so a bad "ty" never reaches the renderers.
// An absent required field (max_degree, a node's id, label or degree, a
// link's source, target or ty) fails with [ErrMissingField].
// max_degree is trusted as supplied; [Dataset.Recompute] exists for producers.
//
// Common operations:
//
//	ds, _ := graph.ReadFile("data.json")      // File → Dataset
//	graph.WriteFile(ds, "out.json")           // Dataset → File
//	data, _ := graph.Marshal(ds)              // Dataset → []byte
//	ds, _ = graph.Unmarshal(data)             // []byte → Dataset
//
// # Validation
//
// Consumers do not check referential integrity. [Validate] is an opt-in
// check for ingestion boundaries; it reports field errors, duplicate ids,
// dangling link endpoints and an understated max_degree.
//
// # Building Datasets
//
// [Build] turns processed genres (one TOML file per wiki page, see
// [ReadProcessedDir]) into a dataset. Page names are stored on disk with "/"
// replaced by "⧸" ([SanitizePageName]). [ParseDumpDate] extracts the date
// from a Wikipedia dump file name.
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package graph
