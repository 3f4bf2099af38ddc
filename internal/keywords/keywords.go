// Package keywords holds the static garment vocabulary scanned for during
// attribute extraction. The tables are configuration data, loaded once;
// nothing in the codebase mutates them.
package keywords

// Fabric lists fiber names recognized in product descriptions.
var Fabric = []string{
	"cotton", "polyester", "nylon", "spandex", "elastane", "wool",
	"silk", "linen", "rayon", "viscose", "lyocell", "modal",
}

// Construction lists garment construction terms.
var Construction = []string{
	"ribbed", "knit", "woven", "double-lined", "lined", "unlined",
	"structured", "stretch", "non-stretch", "seamless",
}

// Fit lists fit descriptors.
var Fit = []string{
	"slim", "regular", "loose", "oversized", "fitted", "relaxed",
	"straight", "skinny", "wide", "cropped", "classic",
}

// Care lists care-instruction phrases.
var Care = []string{
	"machine wash", "hand wash", "dry clean", "tumble dry",
	"iron", "do not bleach", "gentle cycle", "cold water",
}
