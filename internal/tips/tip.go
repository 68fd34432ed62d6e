// Package tips holds the tip data model: the closed category set, validation,
// deduplication, JSON persistence and the generated TypeScript data module.
package tips

import "strings"

// Category is one of the fixed topic labels a tip can carry.
type Category string

const (
	CategorySleep         Category = "Sleep"
	CategoryFocus         Category = "Focus"
	CategoryAnxiety       Category = "Anxiety"
	CategoryRelationships Category = "Relationships"
	CategoryWealth        Category = "Wealth"
	CategoryMindset       Category = "Mindset"
	CategoryHealth        Category = "Health"
	CategoryNutrition     Category = "Nutrition"
	CategoryFitness       Category = "Fitness"
	CategoryDigitalDetox  Category = "Digital Detox"
	CategoryProductivity  Category = "Productivity"
)

// Style is the display style of a category in the downstream app (Tailwind classes).
type Style struct {
	Bg   string
	Text string
}

// categoryOrder is the display order used in prompts and the generated module.
var categoryOrder = []Category{
	CategoryDigitalDetox,
	CategorySleep,
	CategoryAnxiety,
	CategoryRelationships,
	CategoryWealth,
	CategoryFocus,
	CategoryMindset,
	CategoryHealth,
	CategoryNutrition,
	CategoryFitness,
	CategoryProductivity,
}

var categoryStyles = map[Category]Style{
	CategoryDigitalDetox:  {Bg: "bg-violet-100", Text: "text-violet-700"},
	CategorySleep:         {Bg: "bg-indigo-100", Text: "text-indigo-700"},
	CategoryAnxiety:       {Bg: "bg-rose-100", Text: "text-rose-700"},
	CategoryRelationships: {Bg: "bg-amber-100", Text: "text-amber-700"},
	CategoryWealth:        {Bg: "bg-emerald-100", Text: "text-emerald-700"},
	CategoryFocus:         {Bg: "bg-cyan-100", Text: "text-cyan-700"},
	CategoryMindset:       {Bg: "bg-teal-100", Text: "text-teal-700"},
	CategoryHealth:        {Bg: "bg-green-100", Text: "text-green-700"},
	CategoryNutrition:     {Bg: "bg-lime-100", Text: "text-lime-700"},
	CategoryFitness:       {Bg: "bg-orange-100", Text: "text-orange-700"},
	CategoryProductivity:  {Bg: "bg-sky-100", Text: "text-sky-700"},
}

// Categories returns all categories in display order.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// ParseCategory matches s exactly against the closed set.
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	_, ok := categoryStyles[c]
	return c, ok
}

// Valid reports whether c belongs to the closed set.
func (c Category) Valid() bool {
	_, ok := categoryStyles[c]
	return ok
}

// Style returns the display style for c (zero Style for unknown categories).
func (c Category) Style() Style {
	return categoryStyles[c]
}

// CategoryList joins the category names with sep, in display order.
func CategoryList(sep string) string {
	names := make([]string, len(categoryOrder))
	for i, c := range categoryOrder {
		names[i] = string(c)
	}
	return strings.Join(names, sep)
}

// Tip is a validated, persisted unit of extracted advice.
// Field order is the on-disk key order.
type Tip struct {
	ID       int      `json:"id"`
	Category Category `json:"category"`
	Source   string   `json:"source"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
}

// Candidate is an unvalidated tip-shaped record decoded from model output.
type Candidate struct {
	Category string
	Source   string
	Title    string
	Content  string
}

// CandidateFromMap decodes a loosely typed JSON object. Missing or
// non-string fields decode as empty strings.
func CandidateFromMap(m map[string]any) Candidate {
	str := func(key string) string {
		if s, ok := m[key].(string); ok {
			return s
		}
		return ""
	}
	return Candidate{
		Category: str("category"),
		Source:   str("source"),
		Title:    str("title"),
		Content:  str("content"),
	}
}

// Collection is the in-memory tip accumulator for one run.
// It has a single writer and is not safe for concurrent use.
type Collection struct {
	tips []Tip
}

// NewCollection wraps existing tips. The slice is copied.
func NewCollection(existing []Tip) *Collection {
	c := &Collection{tips: make([]Tip, len(existing))}
	copy(c.tips, existing)
	return c
}

// NextID returns max(existing ids)+1, or 1 for an empty collection.
func (c *Collection) NextID() int {
	maxID := 0
	for _, t := range c.tips {
		if t.ID > maxID {
			maxID = t.ID
		}
	}
	return maxID + 1
}

// IsDuplicate reports whether t collides with a tip already in the collection.
func (c *Collection) IsDuplicate(t Tip) bool {
	return IsDuplicate(t, c.tips)
}

// Append adds t to the end of the collection.
func (c *Collection) Append(t Tip) {
	c.tips = append(c.tips, t)
}

// Tips returns the collection contents in insertion order.
func (c *Collection) Tips() []Tip {
	return c.tips
}

// Len returns the number of tips.
func (c *Collection) Len() int {
	return len(c.tips)
}
