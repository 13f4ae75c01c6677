package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billmal071/novelapi/internal/bqxs520"
	"github.com/billmal071/novelapi/internal/extract"
)

func strPtr(s string) *string { return &s }

func sampleResults() []bqxs520.SearchResult {
	id, _ := extract.ParseBookID("1_2_3")
	return []bqxs520.SearchResult{
		{BookName: strPtr("第一本"), Tags: "玄幻", Description: "简介", ID: id},
		{BookName: nil, Description: bqxs520.NoDescription},
	}
}

func TestSelectorEnterSelectsCurrent(t *testing.T) {
	m := NewSelector(sampleResults(), "Select")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	sel := next.(SelectorModel).Selected()
	require.NotNil(t, sel)
	assert.Equal(t, "第一本", *sel.BookName)
	assert.Contains(t, next.View(), "第一本")
}

func TestSelectorNavigateThenSelect(t *testing.T) {
	m := NewSelector(sampleResults(), "Select")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyEnter})

	sel := next.(SelectorModel).Selected()
	require.NotNil(t, sel)
	assert.Nil(t, sel.BookName)
	assert.Equal(t, "(untitled)", sel.Title())
}

func TestSelectorCancel(t *testing.T) {
	m := NewSelector(sampleResults(), "Select")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Nil(t, next.(SelectorModel).Selected())
	assert.Contains(t, next.View(), "Cancelled")
}

func TestRunSelectorEmpty(t *testing.T) {
	_, err := RunSelector(nil)
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestRenderDetail(t *testing.T) {
	id, _ := extract.ParseBookID("1_2_3")
	out := RenderDetail(&bqxs520.BookDetail{
		ID:             id,
		BookName:       strPtr("斗破苍穹"),
		Author:         strPtr("天蚕土豆"),
		Tags:           "玄幻, 热血",
		FirstChapterID: "100234",
		Description:    "简介",
	})

	for _, want := range []string{"斗破苍穹", "天蚕土豆", "玄幻, 热血", "100234", "1_2_3", "简介"} {
		assert.Contains(t, out, want)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "短标题", Truncate("短标题", 10))
	assert.Equal(t, "一二三四...", Truncate("一二三四五六七八", 7))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatSize(512))
	assert.Equal(t, "1.5 KB", FormatSize(1536))
	assert.Equal(t, "2.0 MB", FormatSize(2*1024*1024))
}
