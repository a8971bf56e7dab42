package assets

import (
	"embed"
	"io/fs"
)

// seedFS embeds the catalog reference payloads shipped with the binary.
//
//go:embed seed/*.json
var seedFS embed.FS

// Seed returns the embedded catalog bundle rooted at the payload files.
func Seed() fs.FS {
	sub, err := fs.Sub(seedFS, "seed")
	if err != nil {
		// The embed directive guarantees the directory exists.
		panic(err)
	}
	return sub
}
