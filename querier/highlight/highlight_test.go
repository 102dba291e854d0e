package highlight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHighlightClassifiesTokens(t *testing.T) {
	segments := Highlight(`COUNT FOR SCC>200 \T`)
	require.NotEmpty(t, segments)

	types := make(map[string]string)
	for _, s := range segments {
		types[s.Value] = s.Type
	}

	assert.Equal(t, "keyword", types["COUNT"])
	assert.Equal(t, "operator", types["FOR"])
	assert.Equal(t, "item", types["SCC"])
	assert.Equal(t, "comparison", types[">"])
	assert.Equal(t, "number", types["200"])
	assert.Equal(t, "switch", types[`\T`])
	assert.Equal(t, "text", types[" "])
	assert.Equal(t, "#61AFEF", segments[0].Color)
}

func TestHighlightBlank(t *testing.T) {
	assert.Nil(t, Highlight("   "))
	assert.Equal(t, "", HTML(""))
}

func TestHTMLEscapes(t *testing.T) {
	assert.Equal(t,
		`<span style="color: #E5C07B">DIM</span><span style="color: #56B6C2">&lt;</span><span style="color: #D19A66">21</span>`,
		HTML("DIM<21"),
	)
}
