package services

import (
	"context"
	"sort"
	"strings"

	"childcare/dto"
	"childcare/models"

	"github.com/fiam/gounidecode/unidecode"
	"github.com/schollz/closestmatch"
	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Hàm chuẩn hóa chuỗi: bỏ dấu, thường hóa, gộp khoảng trắng. Tên trên roster
// nhập tay từ form nên chính tả không đồng nhất.
func normalizeInput(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ToLower(unidecode.Unidecode(input))
	return strings.Join(strings.Fields(input), " ")
}

// Tạo đối tượng closestmatch cho danh sách từ khóa
func createMatcher(keywords []string) *closestmatch.ClosestMatch {
	return closestmatch.New(keywords, []int{2, 3})
}

// Tính độ tương đồng giữa hai chuỗi
func calculateSimilarity(a, b string) float64 {
	distance := levenshtein.DistanceForStrings([]rune(a), []rune(b), levenshtein.DefaultOptions)
	maxLen := float64(len(a))
	if float64(len(b)) > maxLen {
		maxLen = float64(len(b))
	}

	if maxLen == 0 {
		return 1.0 // Nếu cả hai chuỗi đều rỗng, tương đồng là 100%
	}

	return 1.0 - float64(distance)/maxLen
}

// scoreChild tính điểm phù hợp của một bé với query
func scoreChild(query string, child *models.Child, cm *closestmatch.ClosestMatch) int {
	name := normalizeInput(child.FullName)
	score := 0

	switch {
	case name == query:
		score += 100
	case strings.HasPrefix(name, query):
		score += 60
	case strings.Contains(name, query):
		score += 40
	}

	if cm.Closest(query) == name {
		score += 25
	}

	similarity := calculateSimilarity(query, name)
	if similarity > 0.6 {
		score += int(similarity * 30)
	}

	// khớp theo từng từ: gõ tên riêng không cần họ vẫn ra
	for _, word := range strings.Fields(name) {
		if word == query {
			score += 35
			break
		}
	}

	return score
}

// SearchChildren tìm kiếm mờ trên roster theo tên
func SearchChildren(ctx context.Context, query string, limit int) ([]dto.ChildSearchResult, error) {
	children, err := ListRoster(ctx)
	if err != nil {
		return nil, err
	}
	normalizedQuery := normalizeInput(query)
	if normalizedQuery == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	names := make([]string, 0, len(children))
	for i := range children {
		names = append(names, normalizeInput(children[i].FullName))
	}
	cm := createMatcher(names)

	var results []dto.ChildSearchResult
	for i := range children {
		child := &children[i]
		score := scoreChild(normalizedQuery, child, cm)
		if score <= 0 {
			continue
		}
		results = append(results, dto.ChildSearchResult{
			FullName:       child.FullName,
			ClassType:      child.ClassType,
			ChurchLocation: child.ChurchLocation,
			CampGroup:      child.CampGroup,
			PhotoURL:       child.PhotoURL,
			Score:          score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
