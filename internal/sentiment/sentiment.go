// Package sentiment labels reviews Positive, Neutral, or Negative with a
// pure, reproducible rule, and flags common complaint categories in the text.
//
// Classification rule:
//
//	score = (rating - 3) + polarity(text)
//
// where polarity is +1 when the text matches more positive than negative
// lexicon words, -1 when the reverse, 0 otherwise (and 0 for blank text).
// score > 0 is Positive, score < 0 is Negative, score == 0 is Neutral. With
// blank text this reduces to the plain rating rule: >=4 Positive, =3 Neutral,
// <=2 Negative. The rule uses no external state, so identical (rating, text)
// inputs always yield identical labels.
package sentiment

import (
	"regexp"

	"github.com/sells-group/insights-cli/internal/model"
)

var positiveWords = regexp.MustCompile(`(?i)\b(great|amazing|excellent|delicious|friendly|fresh|clean|fast|wonderful|best|love|loved|tasty|perfect|awesome)\b`)

var negativeWords = regexp.MustCompile(`(?i)\b(bad|terrible|awful|horrible|rude|slow|dirty|cold|stale|soggy|overpriced|expensive|worst|disappointing|unhelpful|filthy|messy|undercooked|overcooked)\b`)

// Issue keyword lists, one per complaint category.
var (
	issueFood        = regexp.MustCompile(`(?i)\b(cold|stale|soggy|undercooked|overcooked)\b`)
	issueService     = regexp.MustCompile(`(?i)\b(slow|rude|wrong order|bad service|unhelpful)\b`)
	issueCleanliness = regexp.MustCompile(`(?i)\b(dirty|unclean|filthy|messy)\b`)
	issuePrice       = regexp.MustCompile(`(?i)\b(expensive|overpriced|not worth)\b`)
)

// Classifier assigns sentiment labels. The zero value is ready to use; the
// type exists so a model-backed implementation can replace the lexicon rule
// without touching aggregation.
type Classifier struct{}

// New creates a Classifier.
func New() *Classifier { return &Classifier{} }

// Classify maps a review's rating and text to a label per the package rule.
func (c *Classifier) Classify(rating int, text string) model.SentimentLabel {
	score := rating - 3 + polarity(text)
	switch {
	case score > 0:
		return model.SentimentPositive
	case score < 0:
		return model.SentimentNegative
	default:
		return model.SentimentNeutral
	}
}

func polarity(text string) int {
	if text == "" {
		return 0
	}
	pos := len(positiveWords.FindAllString(text, -1))
	neg := len(negativeWords.FindAllString(text, -1))
	switch {
	case pos > neg:
		return 1
	case neg > pos:
		return -1
	default:
		return 0
	}
}

// IssueFlags detects complaint categories mentioned in review text.
func IssueFlags(text string) model.IssueFlags {
	if text == "" {
		return model.IssueFlags{}
	}
	return model.IssueFlags{
		Food:        issueFood.MatchString(text),
		Service:     issueService.MatchString(text),
		Cleanliness: issueCleanliness.MatchString(text),
		Price:       issuePrice.MatchString(text),
	}
}
