package upload

import "strings"

// Strategy selects the multipart field contract of an upload.
type Strategy int

const (
	// StrategyRAW uploads to a raw (generic file) repository.
	StrategyRAW Strategy = iota
	// StrategyAPT uploads a Debian package to an apt repository.
	StrategyAPT
)

const debSuffix = ".deb"

func (s Strategy) String() string {
	switch s {
	case StrategyAPT:
		return "APT"
	case StrategyRAW:
		return "RAW"
	}
	return "unknown"
}

// SelectStrategy decides the strategy for a whole run from the search
// pattern, not from the matched file names: a pattern ending in ".deb"
// uploads every match as an apt asset, anything else as a raw asset.
func SelectStrategy(pattern string) Strategy {
	if strings.HasSuffix(pattern, debSuffix) {
		return StrategyAPT
	}
	return StrategyRAW
}
