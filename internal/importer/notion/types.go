package notion

import "encoding/json"

// API response shapes for the Notion API (version 2022-06-28).

type richText struct {
	PlainText   string `json:"plain_text"`
	Href        string `json:"href"`
	Annotations struct {
		Bold          bool `json:"bold"`
		Italic        bool `json:"italic"`
		Strikethrough bool `json:"strikethrough"`
		Underline     bool `json:"underline"`
		Code          bool `json:"code"`
	} `json:"annotations"`
}

type textPayload struct {
	RichText []richText `json:"rich_text"`
}

type calloutPayload struct {
	RichText []richText `json:"rich_text"`
	Icon     *struct {
		Emoji string `json:"emoji"`
	} `json:"icon"`
}

type codePayload struct {
	RichText []richText `json:"rich_text"`
	Language string     `json:"language"`
}

type imagePayload struct {
	Type     string `json:"type"`
	External *struct {
		URL string `json:"url"`
	} `json:"external"`
	File *struct {
		URL string `json:"url"`
	} `json:"file"`
	Caption []richText `json:"caption"`
}

// apiBlock keeps the raw JSON object around so that block kinds the API adds
// later still yield their rich text instead of being dropped.
type apiBlock struct {
	ID          string
	Type        string
	HasChildren bool
	Depth       int

	raw map[string]json.RawMessage
}

func (b *apiBlock) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &b.raw); err != nil {
		return err
	}
	if v, ok := b.raw["id"]; ok {
		json.Unmarshal(v, &b.ID)
	}
	if v, ok := b.raw["type"]; ok {
		json.Unmarshal(v, &b.Type)
	}
	if v, ok := b.raw["has_children"]; ok {
		json.Unmarshal(v, &b.HasChildren)
	}
	return nil
}

// payload decodes the type-keyed payload object into out. It returns false
// when the block carries no payload for its own type.
func (b *apiBlock) payload(out interface{}) bool {
	v, ok := b.raw[b.Type]
	if !ok {
		return false
	}
	return json.Unmarshal(v, out) == nil
}

func (b *apiBlock) richText() []richText {
	var p textPayload
	if !b.payload(&p) {
		return nil
	}
	return p.RichText
}

type childrenResponse struct {
	Results []apiBlock `json:"results"`
}

type pageProperty struct {
	Type  string     `json:"type"`
	Title []richText `json:"title"`
}

type pageResponse struct {
	CreatedTime string                  `json:"created_time"`
	CreatedBy   struct{ Name string }   `json:"created_by"`
	Properties  map[string]pageProperty `json:"properties"`
}

// fetchPayload carries everything Fetch gathered for Parse.
type fetchPayload struct {
	PageID string
	Page   pageResponse
	Blocks []apiBlock
}
