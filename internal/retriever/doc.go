// Package retriever builds the output dataset of a pipeline from its inputs.
//
// The Engine maps raw input datasets onto the output variables named by a
// retriever configuration. Each output variable is one node of a dependency
// graph: coordinates are retrieved first, then every data variable, so that
// transformation converters can map data onto already converted coordinates.
// The result is standardized against the dataset definition.
//
// DefaultRetriever reads input files with the configured readers;
// StorageRetriever fetches previously stored datastreams for a time range.
package retriever
