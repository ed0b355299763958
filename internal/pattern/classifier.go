// Package pattern detects coarse message categories by keyword containment.
package pattern

import "strings"

// Category is a coarse message category.
type Category string

const (
	CategoryBusiness  Category = "business"
	CategoryTechnical Category = "technical"
	CategoryCasual    Category = "casual"
	CategoryQuestion  Category = "question"
	CategoryFormal    Category = "formal"
	CategoryGeneral   Category = "general"
)

// PrefixLength is the number of runes of a message kept as a learning pattern key.
const PrefixLength = 50

type keywordSet struct {
	category Category
	keywords []string
}

// Keywords are matched as lower-case substrings, so Hangul particles and
// English inflections attached to a keyword still match.
var keywordSets = []keywordSet{
	{
		category: CategoryBusiness,
		keywords: []string{
			"회의", "미팅", "일정", "프로젝트", "보고서", "계약", "거래", "마감", "회사", "업무",
			"meeting", "schedule", "project", "report", "contract", "deadline", "client", "business",
		},
	},
	{
		category: CategoryTechnical,
		keywords: []string{
			"코드", "버그", "서버", "개발", "배포", "데이터베이스", "프로그램", "시스템",
			"code", "bug", "server", "deploy", "database", "api", "software", "system",
		},
	},
	{
		category: CategoryCasual,
		keywords: []string{
			"안녕", "ㅋㅋ", "ㅎㅎ", "고마워", "뭐해", "대박", "진짜", "그래",
			"hello", "thanks", "lol", "cool", "hey", "yeah",
		},
	},
	{
		category: CategoryQuestion,
		keywords: []string{
			"?", "무엇", "어떻게", "왜", "언제", "어디", "누구", "까요",
			"what", "how", "why", "when", "where", "who",
		},
	},
	{
		category: CategoryFormal,
		keywords: []string{
			"습니다", "입니다", "십시오", "께서", "드립니다", "주시기",
			"please", "kindly", "sincerely", "regards", "would you",
		},
	},
}

// dominantOrder is the priority used to collapse a tag set to one category.
var dominantOrder = []Category{CategoryBusiness, CategoryTechnical, CategoryCasual}

// Result is the outcome of classifying a text.
type Result struct {
	// Tags lists every matched category in keyword table order, or only
	// CategoryGeneral when nothing matched.
	Tags     []Category
	Dominant Category
}

// Has reports whether c is among the tags.
func (r Result) Has(c Category) bool {
	for _, tag := range r.Tags {
		if tag == c {
			return true
		}
	}
	return false
}

// Classify tags text with every category whose keyword set has a match.
func Classify(text string) Result {
	lower := strings.ToLower(text)

	var tags []Category
	for _, set := range keywordSets {
		if containsAny(lower, set.keywords) {
			tags = append(tags, set.category)
		}
	}
	if len(tags) == 0 {
		tags = []Category{CategoryGeneral}
	}

	result := Result{Tags: tags, Dominant: CategoryGeneral}
	for _, c := range dominantOrder {
		if result.Has(c) {
			result.Dominant = c
			break
		}
	}
	return result
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

// Prefix returns the first PrefixLength runes of text.
func Prefix(text string) string {
	runes := []rune(text)
	if len(runes) <= PrefixLength {
		return text
	}
	return string(runes[:PrefixLength])
}

// ParseCategory converts a stored category name back to a Category.
func ParseCategory(s string) (Category, bool) {
	switch c := Category(s); c {
	case CategoryBusiness, CategoryTechnical, CategoryCasual, CategoryQuestion, CategoryFormal, CategoryGeneral:
		return c, true
	}
	return "", false
}
