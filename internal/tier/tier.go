// Package tier maps a document's estimated page count to output targets for
// summaries, highlights, topics and question counts.
package tier

import (
	"fmt"
	"math"

	"github.com/TobiSchelling/studydeck/internal/models"
	"github.com/TobiSchelling/studydeck/internal/normalize"
)

// WordsPerPage is the page estimate used for tiering.
const WordsPerPage = 250

// Range is an inclusive min..max target.
type Range struct {
	Min int
	Max int
}

func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// Tier is one row of the length table.
type Tier struct {
	// MaxPages is the inclusive upper bound; 0 means unbounded.
	MaxPages     int
	Name         string
	SummaryLines Range
	Highlights   Range
	Topics       Range
	Questions    map[models.Difficulty]int
}

// Table is ordered by MaxPages; the last row is unbounded.
var Table = []Tier{
	{
		MaxPages:     1,
		Name:         "concise",
		SummaryLines: Range{3, 5},
		Highlights:   Range{3, 5},
		Topics:       Range{3, 4},
		Questions:    map[models.Difficulty]int{models.Easy: 10, models.Medium: 25, models.Hard: 30},
	},
	{
		MaxPages:     5,
		Name:         "moderate",
		SummaryLines: Range{5, 10},
		Highlights:   Range{5, 7},
		Topics:       Range{4, 6},
		Questions:    map[models.Difficulty]int{models.Easy: 15, models.Medium: 25, models.Hard: 30},
	},
	{
		MaxPages:     0,
		Name:         "comprehensive",
		SummaryLines: Range{15, 20},
		Highlights:   Range{7, 10},
		Topics:       Range{6, 8},
		Questions:    map[models.Difficulty]int{models.Easy: 15, models.Medium: 30, models.Hard: 40},
	},
}

// Pages estimates the page count for a word count. Never less than 1.
func Pages(words int) int {
	p := int(math.Ceil(float64(words) / WordsPerPage))
	if p < 1 {
		return 1
	}
	return p
}

// ForPages returns the tier for an estimated page count.
func ForPages(pages int) Tier {
	for _, t := range Table {
		if t.MaxPages == 0 || pages <= t.MaxPages {
			return t
		}
	}
	return Table[len(Table)-1]
}

// For returns the estimated pages and tier for a piece of content.
func For(content string) (int, Tier) {
	pages := Pages(normalize.WordCount(content))
	return pages, ForPages(pages)
}

// QuestionCount is the number of questions to generate for a difficulty.
func (t Tier) QuestionCount(d models.Difficulty) int {
	return t.Questions[d]
}

// LengthLabel describes the page count the way question prompts phrase it.
func LengthLabel(pages int) string {
	switch {
	case pages <= 1:
		return "1 page"
	case pages <= 2:
		return "2 pages"
	case pages <= 3:
		return "3 pages"
	case pages <= 5:
		return "5 pages"
	default:
		return "6+ pages"
	}
}

// ReadTime estimates reading minutes at 200 words per minute.
func ReadTime(content string) int {
	return int(math.Ceil(float64(normalize.WordCount(content)) / 200))
}
