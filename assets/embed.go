package assets

import (
	_ "embed"
	"strings"
)

//go:embed congratulations.txt
var congratulations string

// DefaultCongratulations returns the built-in congratulation texts used to
// seed an empty pool. Blank lines are skipped.
func DefaultCongratulations() []string {
	var out []string
	for _, line := range strings.Split(congratulations, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
