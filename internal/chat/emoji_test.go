package chat

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSameEmoji_IgnoresPresentationSelector(t *testing.T) {
	assert.True(t, SameEmoji(Maybe, "⚠\uFE0F"))
	assert.True(t, SameEmoji(Yes, "✅"))
	assert.False(t, SameEmoji(Yes, No))
}

func TestNormalizeEmoji_Idempotent(t *testing.T) {
	once := NormalizeEmoji("⚠\uFE0F")
	assert.Equal(t, once, NormalizeEmoji(once))
	assert.Equal(t, Maybe, once)
}

func TestMarkOf(t *testing.T) {
	yes, no := true, false

	assert.Equal(t, MarkYes, MarkOf(&yes))
	assert.Equal(t, MarkNo, MarkOf(&no))
	assert.Equal(t, MarkMaybe, MarkOf(nil))

	assert.Equal(t, Yes, MarkYes.Glyph())
	assert.Equal(t, No, MarkNo.Glyph())
	assert.Equal(t, Maybe, MarkMaybe.Glyph())
	assert.Equal(t, "maybe", MarkMaybe.String())
}

func TestAPIError_Classification(t *testing.T) {
	notFound := fmt.Errorf("edit: %w", &APIError{Method: "PATCH", Path: "/x", Status: 404})
	forbidden := &APIError{Method: "PUT", Path: "/y", Status: 403, Body: "Missing Permissions"}

	assert.True(t, IsNotFound(notFound))
	assert.False(t, IsForbidden(notFound))
	assert.True(t, IsForbidden(forbidden))
	assert.Equal(t, "PUT /y: status 403: Missing Permissions", forbidden.Error())
}
