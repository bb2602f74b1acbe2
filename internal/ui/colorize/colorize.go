// Package colorize highlights canonical instruction listings for the
// terminal.
package colorize

import (
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/styles"
)

// Enabled reports whether highlighting is on. BLOCKGRAPH_NO_COLOR turns it off.
func Enabled() bool {
	return os.Getenv("BLOCKGRAPH_NO_COLOR") == ""
}

// getListingStyle returns the listing style with fallbacks
func getListingStyle() *chroma.Style {
	for _, name := range []string{"blockgraph-dark", "dracula", "monokai"} {
		if style := styles.Get(name); style != nil {
			return style
		}
	}
	return styles.Fallback
}

// getTerminalFormatter returns an appropriate terminal formatter
func getTerminalFormatter() chroma.Formatter {
	for _, name := range []string{"terminal16m", "terminal256"} {
		if formatter := formatters.Get(name); formatter != nil {
			return formatter
		}
	}
	return formatters.Fallback
}

// ColorizeListing highlights a canonical listing. The input is returned
// unchanged when highlighting is disabled or fails.
func ColorizeListing(code string) (string, error) {
	if !Enabled() {
		return code, nil
	}

	iterator, err := Listing.Tokenise(nil, code)
	if err != nil {
		return code, err
	}

	var buf strings.Builder
	if err := getTerminalFormatter().Format(&buf, getListingStyle(), iterator); err != nil {
		return code, err
	}
	return buf.String(), nil
}

// ColorizeInstruction highlights a single canonical instruction.
func ColorizeInstruction(inst string) string {
	out, err := ColorizeListing(inst)
	if err != nil {
		return inst
	}
	return strings.TrimSuffix(out, "\n")
}

// Tokens splits code into token types and values, for inspection.
func Tokens(code string) ([]chroma.Token, error) {
	iterator, err := Listing.Tokenise(nil, code)
	if err != nil {
		return nil, err
	}
	return iterator.Tokens(), nil
}
