// Package storage persists standardized datasets on the local file system
// and fetches them back by datastream and time range.
//
// Files are laid out as <root>/<datastream>/<datastream>.<YYYYMMDD.HHMMSS>.<ext>,
// where the timestamp is the first value of the dataset's time coordinate.
package storage
