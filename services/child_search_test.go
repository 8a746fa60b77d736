package services

import (
	"testing"

	"childcare/models"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeInput(t *testing.T) {
	assert.Equal(t, "nguyen van an", normalizeInput("  Nguyễn   Văn An "))
	assert.Equal(t, "tran thi b", normalizeInput("Trần Thị B"))
	assert.Equal(t, "", normalizeInput("   "))
}

func TestCalculateSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, calculateSimilarity("an", "an"))
	assert.Equal(t, 1.0, calculateSimilarity("", ""))
	// một ký tự thay thế tính cost 2: khoảng cách 2 trên độ dài 6
	assert.InDelta(t, 2.0/3.0, calculateSimilarity("nguyen", "nguyem"), 0.01)
	assert.Less(t, calculateSimilarity("an", "xyz"), 0.5)
}

func TestScoreChildPrefersExactThenPrefix(t *testing.T) {
	children := []models.Child{
		{FullName: "Nguyễn Văn An"},
		{FullName: "Nguyễn Văn Anh"},
		{FullName: "Trần Thị Bích"},
	}
	names := make([]string, len(children))
	for i := range children {
		names[i] = normalizeInput(children[i].FullName)
	}
	cm := createMatcher(names)

	query := normalizeInput("Nguyễn Văn An")
	exact := scoreChild(query, &children[0], cm)
	near := scoreChild(query, &children[1], cm)
	far := scoreChild(query, &children[2], cm)

	assert.Greater(t, exact, near)
	assert.Greater(t, near, far)
}

func TestScoreChildMatchesSingleWord(t *testing.T) {
	child := models.Child{FullName: "Nguyễn Văn An"}
	cm := createMatcher([]string{normalizeInput(child.FullName)})

	// gõ mỗi tên riêng, không cần họ
	score := scoreChild("an", &child, cm)
	assert.Greater(t, score, 0)
}
