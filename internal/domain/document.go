package domain

// Block types of the destination rich-text tree
const (
	BlockParagraph     = "paragraph"
	BlockBulletedList  = "bulleted-list"
	BlockListItem      = "list-item"
	BlockListItemChild = "list-item-child"
)

// Document is a structured rich-text tree. The JSON shape is the one the
// destination accepts for rich-text fields.
type Document struct {
	Children []Block `json:"children"`
}

// Block is an element node of a Document. A node with an empty Type and no
// children is a text run.
type Block struct {
	Type     string  `json:"type,omitempty"`
	Children []Block `json:"children,omitempty"`
	Text     string  `json:"text,omitempty"`
}

// TextRun returns a leaf text node
func TextRun(text string) Block {
	return Block{Text: text}
}

// IsEmpty reports whether the document has no blocks
func (d Document) IsEmpty() bool {
	return len(d.Children) == 0
}
