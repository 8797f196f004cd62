package mdict

import "encoding/json"

// Summary is a serialisable description of a decoded index.
type Summary struct {
	Name              string `json:"name,omitempty"`
	Title             string `json:"title"`
	Description       string `json:"description,omitempty"`
	Encoding          string `json:"encoding,omitempty"`
	EngineVersion     string `json:"engine_version,omitempty"`
	CreationDate      string `json:"creation_date,omitempty"`
	Encrypted         uint8  `json:"encrypted"`
	NumIndex          uint64 `json:"num_index"`
	NumKeyword        uint64 `json:"num_keyword"`
	KeywordSectionEnd int64  `json:"keyword_section_end"`
}

// Summary describes idx.
func (idx *Index) Summary() *Summary {
	attrs := idx.Header.Attributes
	return &Summary{
		Name:              idx.Name(),
		Title:             attrs.Title,
		Description:       attrs.Description,
		Encoding:          attrs.Encoding,
		EngineVersion:     attrs.GeneratedByEngineVersion,
		CreationDate:      attrs.CreationDate,
		Encrypted:         uint8(attrs.EncryptFlags()),
		NumIndex:          idx.Keyword.NumIndex,
		NumKeyword:        idx.Keyword.NumKeyword,
		KeywordSectionEnd: idx.Keyword.EndOffset,
	}
}

// SummaryFromJSON creates a Summary from a JSON byte slice.
func SummaryFromJSON(data []byte) (*Summary, error) {
	s := new(Summary)
	err := json.Unmarshal(data, s)
	return s, err
}

// Serialize converts the Summary to its JSON representation.
func (s *Summary) Serialize() ([]byte, error) {
	return json.Marshal(s)
}
