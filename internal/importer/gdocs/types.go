package gdocs

// Resource shapes for the Google Docs API v1 document resource. Only the
// fields the parser walks are declared.

type document struct {
	Title string `json:"title"`
	Body  struct {
		Content []structuralElement `json:"content"`
	} `json:"body"`
	Lists             map[string]listDefinition   `json:"lists"`
	InlineObjects     map[string]embeddedWrapper  `json:"inlineObjects"`
	PositionedObjects map[string]embeddedWrapper  `json:"positionedObjects"`
	Footnotes         map[string]footnoteResource `json:"footnotes"`
}

type structuralElement struct {
	Paragraph    *paragraph `json:"paragraph"`
	Table        *table     `json:"table"`
	SectionBreak *struct{}  `json:"sectionBreak"`
}

type paragraph struct {
	Elements       []paragraphElement `json:"elements"`
	ParagraphStyle struct {
		NamedStyleType string `json:"namedStyleType"`
	} `json:"paragraphStyle"`
	Bullet *struct {
		ListID string `json:"listId"`
	} `json:"bullet"`
	PositionedObjectIDs []string `json:"positionedObjectIds"`
}

type paragraphElement struct {
	TextRun             *textRun `json:"textRun"`
	InlineObjectElement *struct {
		InlineObjectID string `json:"inlineObjectId"`
	} `json:"inlineObjectElement"`
	FootnoteReference *struct {
		FootnoteID string `json:"footnoteId"`
	} `json:"footnoteReference"`
	HorizontalRule *struct{} `json:"horizontalRule"`
}

type textRun struct {
	Content   string `json:"content"`
	TextStyle struct {
		Bold           bool   `json:"bold"`
		Italic         bool   `json:"italic"`
		Underline      bool   `json:"underline"`
		Strikethrough  bool   `json:"strikethrough"`
		BaselineOffset string `json:"baselineOffset"`
		Link           *struct {
			URL string `json:"url"`
		} `json:"link"`
	} `json:"textStyle"`
}

type listDefinition struct {
	ListProperties struct {
		NestingLevels []struct {
			GlyphType string `json:"glyphType"`
		} `json:"nestingLevels"`
	} `json:"listProperties"`
}

// embeddedWrapper covers both inlineObjects and positionedObjects entries;
// they nest the embedded object under differently named property keys.
type embeddedWrapper struct {
	InlineObjectProperties *struct {
		EmbeddedObject embeddedObject `json:"embeddedObject"`
	} `json:"inlineObjectProperties"`
	PositionedObjectProperties *struct {
		EmbeddedObject embeddedObject `json:"embeddedObject"`
	} `json:"positionedObjectProperties"`
}

type embeddedObject struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	ImageProperties *struct {
		ContentURI string `json:"contentUri"`
	} `json:"imageProperties"`
}

func (w embeddedWrapper) object() embeddedObject {
	if w.InlineObjectProperties != nil {
		return w.InlineObjectProperties.EmbeddedObject
	}
	if w.PositionedObjectProperties != nil {
		return w.PositionedObjectProperties.EmbeddedObject
	}
	return embeddedObject{}
}

type footnoteResource struct {
	Content []structuralElement `json:"content"`
}

type table struct {
	TableRows []struct {
		TableCells []struct {
			Content []structuralElement `json:"content"`
		} `json:"tableCells"`
	} `json:"tableRows"`
}
