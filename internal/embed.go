package internal

import (
	"embed"
	"io/fs"
)

// PackagedDocs contains the optimization patterns documentation shipped in the binary
//
//go:embed docs/*.md
var PackagedDocs embed.FS

// GetPackagedDocsFS returns the embedded filesystem containing the patterns document
func GetPackagedDocsFS() fs.FS {
	return PackagedDocs
}

// ListPackagedDocs returns a list of all packaged documentation files
func ListPackagedDocs() ([]string, error) {
	entries, err := PackagedDocs.ReadDir("docs")
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && len(entry.Name()) > 3 && entry.Name()[len(entry.Name())-3:] == ".md" {
			files = append(files, "docs/"+entry.Name())
		}
	}

	return files, nil
}
