package model

import "time"

// SentimentLabel classifies a review's tone.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "Positive"
	SentimentNeutral  SentimentLabel = "Neutral"
	SentimentNegative SentimentLabel = "Negative"
)

// IssueFlags marks common complaint categories detected in review text.
type IssueFlags struct {
	Food        bool `json:"food"`
	Service     bool `json:"service"`
	Cleanliness bool `json:"cleanliness"`
	Price       bool `json:"price"`
}

// Review is one customer review row. Reviews are created once per fetch and
// never updated; re-running a search re-creates them.
type Review struct {
	PlaceID   string         `json:"place_id"`
	PlaceName string         `json:"place_name"`
	Author    string         `json:"author"`
	Rating    int            `json:"rating"`
	Text      string         `json:"text"`
	Time      time.Time      `json:"time"`
	Sentiment SentimentLabel `json:"sentiment,omitempty"`
	Issues    IssueFlags     `json:"issues"`

	// Owning place address, denormalized for flat exports.
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
}
