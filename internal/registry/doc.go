// Package registry provides the central "glue" for the plugin system.
//
// Configuration files reference every pluggable piece (retrievers, readers,
// data converters, storage) by a dotted classname such as
// "tsdat.io.converters.UnitsConverter". The Registry maps those classnames
// to the compiled Go factories that build the implementation from the
// entry's free-form parameters.
//
// During application startup, modules register their factories and the
// loaded pipeline is validated against the registry so that an unknown
// classname is reported before any data is read.
package registry
