package serializer

import (
	"fmt"
	"strings"

	"github.com/mdouchement/securevision/internal/model"
)

// TextItems returns the text serialized form of the given models, one per line.
func TextItems(items []*model.SealedItem) string {
	sl := make([]string, 0, len(items))

	for _, item := range items {
		sl = append(sl, fmt.Sprintf("%s\t%s\t%s\t%s", item.ID, item.CreatedAt, item.Status, item.URI))
	}

	return strings.Join(sl, "\n")
}

// ItemVerification returns the serialized form of an item and a verdict of its image.
func ItemVerification(item *model.SealedItem, verdict model.Verdict) map[string]interface{} {
	return map[string]interface{}{
		"item":         item,
		"verification": verdict,
	}
}
