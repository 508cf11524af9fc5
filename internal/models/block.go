package models

// Block is one unit of the output document, created 1:1 from a merged
// Section by the block converter and consumed once by the serializer.
type Block struct {
	Name  string                 `json:"name"`  // e.g. "core/paragraph"
	Attrs map[string]interface{} `json:"attrs"` // type-specific attributes
	HTML  string                 `json:"html"`  // rendered inner fragment
}
