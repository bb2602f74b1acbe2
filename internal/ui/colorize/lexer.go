package colorize

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// Listing lexes canonical listings: a label line per block followed by
// indented instructions. The MEM, REG and ADDRESS placeholders are builtins,
// everything after the mnemonic that is not a placeholder or number is a
// plain name.
var Listing = lexers.Register(chroma.MustNewLexer(
	&chroma.Config{
		Name:      "blockgraph",
		Aliases:   []string{"canonical"},
		Filenames: []string{"*.blocks"},
		EnsureNL:  true,
	},
	func() chroma.Rules {
		return chroma.Rules{
			"root": {
				{Pattern: `\s+`, Type: chroma.Text},
				{Pattern: `;[^\n]*`, Type: chroma.Comment},
				{Pattern: `[^\s;]+:(?=\s)`, Type: chroma.NameLabel},
				{Pattern: `[A-Za-z_.][\w.]*`, Type: chroma.Keyword, Mutator: chroma.Push("operands")},
				{Pattern: `[^\n]+`, Type: chroma.Text},
			},
			"operands": {
				{Pattern: `\n`, Type: chroma.Text, Mutator: chroma.Pop(1)},
				{Pattern: `[ \t]+`, Type: chroma.Text},
				{Pattern: `;[^\n]*`, Type: chroma.Comment},
				{Pattern: `\b(?:MEM|REG|ADDRESS)\b`, Type: chroma.NameBuiltin},
				{Pattern: `#?-?0[xX][0-9a-fA-F]+`, Type: chroma.LiteralNumberHex},
				{Pattern: `#?-?\d+`, Type: chroma.LiteralNumberInteger},
				{Pattern: `[\[\]{}!,:+*#-]`, Type: chroma.Punctuation},
				{Pattern: `[^\s\[\]{}!,:+*#;-]+`, Type: chroma.Name},
			},
		}
	},
))
