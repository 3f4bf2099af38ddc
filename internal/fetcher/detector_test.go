package fetcher

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/briannabogos1157/threadtwin/internal/dupe"
)

func page(body string) dupe.Page {
	return dupe.Page{Body: []byte(body)}
}

func TestDetectorBodyThreshold(t *testing.T) {
	t.Parallel()

	d := NewDetector(100, nil, nil)
	require.True(t, d.NeedsRender(page("<html></html>")))

	d = NewDetector(5, nil, nil)
	require.False(t, d.NeedsRender(page("<html><body>hello world</body></html>")))
}

func TestDetectorKeywords(t *testing.T) {
	t.Parallel()

	d := NewDetector(0, nil, []string{"Enable JavaScript", "  ", "loading..."})
	require.True(t, d.NeedsRender(page("<p>Please ENABLE JAVASCRIPT to continue</p>")))
	require.True(t, d.NeedsRender(page("<div>Loading...</div>")))
	require.False(t, d.NeedsRender(page("<h1>Ribbed Tank</h1>")))
}

func TestDetectorSelectors(t *testing.T) {
	t.Parallel()

	d := NewDetector(0, []string{"h1", ".product-name"}, nil)

	// Any one matching selector is enough to skip the render.
	require.False(t, d.NeedsRender(page(`<html><body><h1>Tank</h1></body></html>`)))
	require.False(t, d.NeedsRender(page(`<div class="product-name">Tank</div>`)))
	require.True(t, d.NeedsRender(page(`<html><body><div id="root"></div></body></html>`)))
}

func TestNilDetectorNeverPromotes(t *testing.T) {
	t.Parallel()

	var d *Detector
	require.False(t, d.NeedsRender(page("")))
}
