package usecase

import (
	"sort"
	"strings"
	"unicode"
)

// Градуированная релевантность: вхождение запроса в название весит больше
// вхождения в описание, то — больше вхождения в теги; доля совпавших
// токенов добавляет дробную часть, так что оценка не бинарна.
func scoreRelevance(query string, row ProductRow) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0
	}

	var base float64
	switch {
	case strings.Contains(strings.ToLower(row.Name), q):
		base = 3
	case strings.Contains(strings.ToLower(row.Description), q):
		base = 2
	case tagsContain(row.Tags, q):
		base = 1
	}

	return base + tokenOverlap(q, row)
}

func tagsContain(tags []string, q string) bool {
	for _, tag := range tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}

	return false
}

func tokenOverlap(q string, row ProductRow) float64 {
	queryTokens := tokenize(q)
	if len(queryTokens) == 0 {
		return 0
	}

	doc := make(map[string]struct{})
	text := strings.ToLower(row.Name + " " + row.Description + " " + strings.Join(row.Tags, " "))
	for _, token := range tokenize(text) {
		doc[token] = struct{}{}
	}

	matched := 0
	for _, token := range queryTokens {
		if _, ok := doc[token]; ok {
			matched++
		}
	}

	return float64(matched) / float64(len(queryTokens))
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// rankProducts упорядочивает кандидатов по убыванию релевантности,
// при равенстве — новее выше.
func rankProducts(query string, rows []ProductRow) []RankedProduct {
	ranked := make([]RankedProduct, 0, len(rows))
	for _, row := range rows {
		ranked = append(ranked, RankedProduct{
			ProductRow:     row,
			RelevanceScore: scoreRelevance(query, row),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].RelevanceScore != ranked[j].RelevanceScore {
			return ranked[i].RelevanceScore > ranked[j].RelevanceScore
		}

		return ranked[i].CreatedAt.After(ranked[j].CreatedAt)
	})

	return ranked
}

func paginate(items []RankedProduct, offset, limit int) []RankedProduct {
	if offset >= len(items) {
		return []RankedProduct{}
	}

	end := offset + limit
	if end > len(items) {
		end = len(items)
	}

	return items[offset:end]
}
