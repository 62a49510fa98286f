// Package dataset holds the in-memory representation of a time-series
// dataset: an ordered set of coordinate variables, an ordered set of data
// variables, and global attributes.
//
// Numeric values are stored as float64 with NaN marking missing data. Time
// coordinates are float64 seconds since the Unix epoch. Variables read from
// text sources that could not be parsed as numbers keep their raw values in
// Strings until a converter turns them numeric.
package dataset
