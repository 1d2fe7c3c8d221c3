package migrations

import "embed"

// Embedded carries the migration sources so goose can collect them without
// the source tree being present next to the binary at runtime.
//
//go:embed 00001_create_attachments.go
var Embedded embed.FS
