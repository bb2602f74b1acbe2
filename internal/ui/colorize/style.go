package colorize

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

// ListingDark colors mnemonics white, placeholders pink and labels gold.
var ListingDark = styles.Register(chroma.MustNewStyle("blockgraph-dark", chroma.StyleEntries{
	chroma.Text:       "#FFFFFF",
	chroma.Background: "bg:#1e1e1e",
	chroma.Comment:    "#858585",

	chroma.Keyword:     "#FFFFFF",
	chroma.Name:        "#7C9C9D",
	chroma.NameBuiltin: "bold #FF5F87",
	chroma.NameLabel:   "#FFD700",

	chroma.LiteralNumber:        "#B5CEA8",
	chroma.LiteralNumberHex:     "#B5CEA8",
	chroma.LiteralNumberInteger: "#B5CEA8",

	chroma.Punctuation: "#FFFFFF",
}))
