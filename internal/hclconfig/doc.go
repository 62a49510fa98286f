// Package hclconfig implements config.Loader for pipelines written in HCL.
//
// A pipeline file holds a single `pipeline "<classname>"` block. Converter,
// reader and storage blocks accept arbitrary attributes which are evaluated
// without variables and handed to the registered implementation as native
// Go values.
package hclconfig
