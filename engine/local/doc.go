// Package local implements engine.Engine in pure Go.
//
// An instance created by CreateDatabase consists of:
//
//	<metaPath>/<base>.akumuli     SQLite metadata: configuration, volumes, series
//	<volumesPath>/<base>_<i>.vol  fixed-size volumes of pageSize pages
//	<logDir>/<base>_<logFile>.<n> input log volumes, when enabled on open
//
// where InputLogPath is <logDir>/<logFile>, a relative logDir being resolved
// against the metadata directory.
//
// Volumes form a ring. Samples are buffered per database and flushed into
// compressed, checksummed pages when the buffer reaches the flush threshold
// and when the database is closed. Once the last volume is full the oldest one
// is recycled with a bumped generation.
//
// Page layout (little-endian):
//
//	offset  size  field
//	0       4     magic "AKUP"
//	4       4     point count
//	8       4     payload length
//	12      1     compression (format.CompressionType)
//	13      1     version
//	14      2     reserved
//	16      8     min timestamp
//	24      8     xxHash64 of the payload
//	32      n     payload
//
// The payload is the compressed delta encoding of the points sorted by param
// id and timestamp. Samples accepted but not yet flushed are also appended to
// the input log, which is replayed on the next open and truncated after every
// flush.
//
// Series names are canonicalized (see internal/series) and mapped to param
// ids starting at 1024. Ids are persisted before they are handed out.
package local
