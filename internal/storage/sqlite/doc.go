// Package sqlite contains SQLite repository implementations for segmentation
// artifacts: exported polylines and classification run records.
//
// The schema is owned by internal/db migrations; stores only read and write
// rows.
package sqlite
