// Package extractor pulls structured garment attributes out of a fetched
// product page using heuristic selector chains and keyword scans.
package extractor

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/briannabogos1157/threadtwin/internal/dupe"
	"github.com/briannabogos1157/threadtwin/internal/keywords"
)

// Fallback selector chains, tightest pattern first. Target pages are
// heterogeneous and no single selector is universal, so each chain is tried
// in order and the first non-empty trimmed text wins. Results from
// different patterns are never merged.
var (
	nameSelectors = []string{
		"h1",
		".product-name",
		".product-title",
		`[class*="product"][class*="title"]`,
		`[class*="product"][class*="name"]`,
	}
	priceSelectors = []string{
		".price",
		".product-price",
		`[class*="price"]`,
	}
	descriptionSelectors = []string{
		".product-description",
		".details",
		`[class*="description"]`,
		`[class*="details"]`,
		"p",
	}
)

var (
	priceRun  = regexp.MustCompile(`[\d,]+\.?\d*|\d*\.\d+`)
	rasterExt = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|webp|gif)`)
)

// NameSelectors returns a copy of the product-name fallback chain. The
// render detector uses it to judge whether a static page carries any
// extractable product markup.
func NameSelectors() []string {
	return append([]string(nil), nameSelectors...)
}

// Extractor converts documents into ProductAttributes. It is stateless and
// safe for concurrent use.
type Extractor struct{}

// New constructs an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract applies the fallback chains and keyword tables to doc. The
// sourceURL becomes the product identity and the base for resolving
// relative image references. A missing name fails with dupe.ErrNoName;
// every other field degrades to empty or zero.
func (e *Extractor) Extract(doc *goquery.Document, sourceURL string) (dupe.ProductAttributes, error) {
	name := firstText(doc, nameSelectors)
	if name == "" {
		return dupe.ProductAttributes{}, dupe.ErrNoName
	}

	description := strings.ToLower(firstText(doc, descriptionSelectors))

	attrs := dupe.ProductAttributes{
		SourceURL:         sourceURL,
		Name:              name,
		Price:             parsePrice(firstText(doc, priceSelectors)),
		FabricComposition: matchKeywords(description, keywords.Fabric),
		Construction:      matchKeywords(description, keywords.Construction),
		Fit:               matchKeywords(description, keywords.Fit),
		CareInstructions:  matchKeywords(description, keywords.Care),
		Images:            extractImages(doc, sourceURL),
	}
	return attrs, nil
}

// firstText returns the trimmed text of the first selector in the chain
// that matches an element with non-empty text.
func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text != "" {
			return text
		}
	}
	return ""
}

// parsePrice strips everything but digits, commas, and periods, takes the
// first decimal-looking run, drops thousands separators, and parses it.
// Anything unparseable is a zero price, not an error; plenty of pages have
// no visible price in the scanned region.
func parsePrice(text string) float64 {
	var clean strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' {
			clean.WriteRune(r)
		}
	}
	match := priceRun.FindString(clean.String())
	if match == "" {
		return 0
	}
	price, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return 0
	}
	return price
}

// matchKeywords reports every table entry that appears as a substring of
// the already lower-cased description. Each keyword is tested once, so the
// result carries no duplicates and preserves table order.
func matchKeywords(description string, table []string) []string {
	matched := []string{}
	for _, kw := range table {
		if strings.Contains(description, strings.ToLower(kw)) {
			matched = append(matched, kw)
		}
	}
	return matched
}

// extractImages collects img src (or data-src) URLs in document order,
// drops icons, logos, and non-raster formats, and resolves the survivors
// against the source URL. Entries that fail resolution are kept verbatim.
func extractImages(doc *goquery.Document, sourceURL string) []string {
	base, baseErr := url.Parse(sourceURL)

	images := []string{}
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if !ok || src == "" {
			src, _ = sel.Attr("data-src")
		}
		if src == "" {
			return
		}
		if strings.Contains(src, "icon") || strings.Contains(src, "logo") {
			return
		}
		if !rasterExt.MatchString(src) {
			return
		}
		images = append(images, resolveURL(base, baseErr, src))
	})
	return images
}

func resolveURL(base *url.URL, baseErr error, raw string) string {
	if baseErr != nil || base == nil {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return base.ResolveReference(ref).String()
}
