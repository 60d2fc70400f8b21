package compress

import (
	"context"
)

// Archiver packs a finished mashup for delivery.
type Archiver interface {
	ZipFile(ctx context.Context, src, dst string) error
}
