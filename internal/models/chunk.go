package models

// Chunk is a bounded-size slice of extracted document text prepared for
// indexing. Offsets are positions in the normalized source text.
type Chunk struct {
	Text         string `json:"text"`
	StartOffset  int    `json:"startOffset"`
	EndOffset    int    `json:"endOffset"`
	Index        int    `json:"index"`
	TotalChunks  int    `json:"totalChunks"`
	SourceFileID string `json:"sourceFileId"`
}
