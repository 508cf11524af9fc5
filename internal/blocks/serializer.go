package blocks

import (
	"encoding/json"
	"strings"

	"github.com/ameyrk/gutengo/internal/models"
)

// Serialize renders blocks to the comment-delimited wire format:
//
//	<!-- wp:core/paragraph {"attr":1} -->
//	<p>...</p>
//	<!-- /wp:core/paragraph -->
//
// Attribute maps marshal with sorted keys, so output is deterministic.
func Serialize(blockList []models.Block) string {
	var b strings.Builder
	for _, block := range blockList {
		b.WriteString("<!-- wp:" + block.Name)
		if len(block.Attrs) > 0 {
			if attrs, err := json.Marshal(block.Attrs); err == nil {
				b.WriteString(" " + string(attrs))
			}
		}
		b.WriteString(" -->\n")
		b.WriteString(block.HTML)
		b.WriteString("\n<!-- /wp:" + block.Name + " -->\n\n")
	}
	return b.String()
}
