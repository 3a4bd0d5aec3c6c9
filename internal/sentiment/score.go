package sentiment

import (
	"math"
	"strings"
	"sync"

	"github.com/jonreiter/govader"
)

// Scores follows the VADER polarity shape: proportions of negative, neutral
// and positive mass plus a normalized compound in [-1, 1].
type Scores struct {
	Neg      float64 `json:"neg"`
	Neu      float64 `json:"neu"`
	Pos      float64 `json:"pos"`
	Compound float64 `json:"compound"`
}

// The analyzer parses its lexicon when built, so one is shared.
var analyzer = sync.OnceValue(govader.NewSentimentIntensityAnalyzer)

// Score rates text with VADER. Blank text is fully neutral.
func Score(text string) Scores {
	if strings.TrimSpace(text) == "" {
		return Scores{Neu: 1}
	}

	s := analyzer().PolarityScores(text)

	return Scores{
		Neg:      round(s.Negative),
		Neu:      round(s.Neutral),
		Pos:      round(s.Positive),
		Compound: round(s.Compound),
	}
}

func round(v float64) float64 {
	return math.Round(v*1000) / 1000
}
