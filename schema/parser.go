package schema

// FileMetadata is file-level information gathered by a plugin's native parser,
// independent of the chunk stream.
type FileMetadata struct {
	FilePath    string                 `json:"file_path"`
	Language    string                 `json:"language"`
	Imports     []string               `json:"imports"`
	Definitions []CodeEntityDefinition `json:"definitions"`
	Symbols     []CodeSymbol           `json:"symbols"`
	Properties  map[string]string      `json:"properties"`
}

// NewFileMetadata returns metadata with every collection initialized.
func NewFileMetadata(path, language string) FileMetadata {
	return FileMetadata{
		FilePath:    path,
		Language:    language,
		Imports:     []string{},
		Definitions: []CodeEntityDefinition{},
		Symbols:     []CodeSymbol{},
		Properties:  map[string]string{},
	}
}

type CodeEntityDefinition struct {
	Type          string `json:"type"`
	Name          string `json:"name"`
	LineStart     int    `json:"line_start"`
	LineEnd       int    `json:"line_end"`
	Visibility    string `json:"visibility"`
	Signature     string `json:"signature"`
	Documentation string `json:"documentation"`
}

type CodeSymbol struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	LineStart int    `json:"line_start"`
	LineEnd   int    `json:"line_end"`
	IsExport  bool   `json:"is_export"`
}

// ChunkingOptions configures the fixed-size chunker used for files without a
// language plugin. The semantic engine never consults it.
type ChunkingOptions struct {
	ChunkSize     int  `json:"chunk_size" yaml:"chunk_size"`
	ChunkOverlap  int  `json:"chunk_overlap" yaml:"chunk_overlap"`
	MaxFileSize   int  `json:"max_file_size" yaml:"max_file_size"`
	IndexComments bool `json:"index_comments" yaml:"index_comments"`
}
