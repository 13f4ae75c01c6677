package bqxs520

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billmal071/novelapi/internal/apperr"
	"github.com/billmal071/novelapi/internal/extract"
	"github.com/billmal071/novelapi/internal/fetch"
	"github.com/billmal071/novelapi/internal/logger"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func parseFixture(t *testing.T, name string) *extract.Doc {
	t.Helper()
	doc, err := extract.Parse(loadFixture(t, name), "text/html; charset=utf-8")
	require.NoError(t, err)
	return doc
}

func TestParseSearch(t *testing.T) {
	results := ParseSearch(parseFixture(t, "search.html"), "", logger.Discard())
	require.Len(t, results, 3)

	first := results[0]
	require.NotNil(t, first.BookName)
	assert.Equal(t, "斗破苍穹", *first.BookName)
	assert.Equal(t, "https://img.bqxs520.com/cover/6789.jpg", first.ImageURL)
	assert.Equal(t, "这里是属于斗气的世界， 没有花俏艳丽的魔法。", first.Description)
	assert.Equal(t, "玄幻, 热血", first.Tags)
	require.NotNil(t, first.ID.BookID)
	assert.Equal(t, "12_345_6789", *first.ID.BookID)
	assert.Equal(t, "12", *first.ID.ID1)
	require.NotNil(t, first.SourceURL)

	// href does not match the book pattern and there is no title attribute
	second := results[1]
	assert.Nil(t, second.BookName)
	assert.Nil(t, second.ID.BookID)
	assert.Nil(t, second.ID.ID1)
	assert.Equal(t, DefaultImage, second.ImageURL)
	assert.Equal(t, NoDescription, second.Description)
	assert.Empty(t, second.Tags)

	// no anchor at all
	third := results[2]
	assert.Nil(t, third.SourceURL)
	assert.Nil(t, third.ID.BookID)
	assert.Empty(t, third.Description)
}

func TestParseSearchEmptyListing(t *testing.T) {
	doc, err := extract.ParseString("<html><body><p>没有找到</p></body></html>")
	require.NoError(t, err)

	results := ParseSearch(doc, "", logger.Discard())
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestParseDetail(t *testing.T) {
	id, ok := extract.ParseBookID("12_345_6789")
	require.True(t, ok)

	d := ParseDetail(parseFixture(t, "detail.html"), id, logger.Discard())

	assert.Equal(t, "12_345_6789", *d.ID.BookID)
	require.NotNil(t, d.BookName)
	assert.Equal(t, "斗破苍穹", *d.BookName)
	require.NotNil(t, d.Author)
	assert.Equal(t, "天蚕土豆", *d.Author)
	require.NotNil(t, d.UpdateTime)
	assert.Equal(t, "更新时间：2024-11-10", *d.UpdateTime)
	require.NotNil(t, d.LatestChapterName)
	assert.Equal(t, "最新章节：第一千六百二十三章 结束", *d.LatestChapterName)
	assert.Equal(t, "这里是属于斗气的世界，\n没有花俏艳丽的魔法。", d.Description)
	require.NotNil(t, d.ImageURL)
	assert.Equal(t, "https://img.bqxs520.com/cover/6789.jpg", *d.ImageURL)

	require.NotNil(t, d.Meta["book_name"])
	assert.Equal(t, "斗破苍穹", *d.Meta["book_name"])
	assert.Equal(t, "这里是属于斗气的世界", *d.Meta["description"])
	assert.Nil(t, d.Meta["status"], "blank meta content maps to nil")
	assert.Len(t, d.Meta, 7)

	assert.Equal(t, "玄幻, 热血", d.Tags)
	assert.Equal(t, "萧炎, 药老", d.Protagonists)
	assert.Equal(t, "100234", d.FirstChapterID)
}

func TestParseDetailSkipsNestedMarkup(t *testing.T) {
	doc, err := extract.ParseString(`<html><body>
<div class="title"><h1><span>斗破苍穹<em>完本</em></span></h1><span><a>天蚕土豆<i>VIP</i></a></span></div>
<div class="info">
  <p><span>萧炎</span></p>
  <p>分类：玄幻</p>
  <p>更新时间：2024-11-10<b>new</b></p>
  <p>最新章节：结束<a>阅读</a></p>
  <p>第一段<b>加粗</b></p>
</div>
</body></html>`)
	require.NoError(t, err)
	id, _ := extract.ParseBookID("1_2_3")

	d := ParseDetail(doc, id, logger.Discard())
	require.NotNil(t, d.BookName)
	assert.Equal(t, "斗破苍穹", *d.BookName)
	require.NotNil(t, d.Author)
	assert.Equal(t, "天蚕土豆", *d.Author)
	require.NotNil(t, d.UpdateTime)
	assert.Equal(t, "更新时间：2024-11-10", *d.UpdateTime)
	require.NotNil(t, d.LatestChapterName)
	assert.Equal(t, "最新章节：结束", *d.LatestChapterName)
	// description paragraphs keep their full text
	assert.Equal(t, "第一段加粗\n", d.Description)
}

func TestParseDetailMissingFields(t *testing.T) {
	doc, err := extract.ParseString("<html><body></body></html>")
	require.NoError(t, err)
	id, _ := extract.ParseBookID("1_2_3")

	d := ParseDetail(doc, id, logger.Discard())
	assert.Nil(t, d.BookName)
	assert.Nil(t, d.Author)
	assert.Nil(t, d.ImageURL)
	assert.Empty(t, d.Description)
	assert.Empty(t, d.Tags)
	assert.Empty(t, d.Protagonists)
	assert.Empty(t, d.FirstChapterID)
	assert.Contains(t, d.Meta, "category")
	assert.Nil(t, d.Meta["category"])
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts Options) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts.BaseURL = srv.URL
	f := fetch.NewCollyFetcher(fetch.Options{Timeout: 2 * time.Second}, logger.Discard())
	return NewClient(f, opts, logger.Discard())
}

func TestClientSearch(t *testing.T) {
	page := loadFixture(t, "search.html")
	var gotKey, gotUA string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.shtml", r.URL.Path)
		gotKey = r.URL.Query().Get("key")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	}, Options{})

	results, err := client.Search(context.Background(), "斗破 苍穹", "")
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, "斗破 苍穹", gotKey)
	assert.Equal(t, "Mobile", gotUA)

	_, err = client.Search(context.Background(), "x", "MyAgent/1.0")
	require.NoError(t, err)
	assert.Equal(t, "MyAgent/1.0", gotUA)
}

func TestClientSearchErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, Options{})

	_, err := client.Search(context.Background(), "  ", "")
	assert.ErrorIs(t, err, apperr.ErrCallerInput)

	_, err = client.Search(context.Background(), "x", "")
	assert.ErrorIs(t, err, apperr.ErrUpstream)
	assert.Equal(t, http.StatusBadGateway, apperr.From(err).UpstreamStatus)
}

func TestClientDetail(t *testing.T) {
	page := loadFixture(t, "detail.html")
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write(page)
	}, Options{DetailDelay: 10 * time.Millisecond})

	d, err := client.Detail(context.Background(), "12_345_6789", "")
	require.NoError(t, err)
	assert.Equal(t, "/book/12_345_6789.shtml", gotPath)
	assert.Equal(t, "100234", d.FirstChapterID)
}

func TestClientDetailValidation(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, Options{})

	for _, id := range []string{"", "abc", "1_2", "../etc/passwd"} {
		_, err := client.Detail(context.Background(), id, "")
		assert.ErrorIs(t, err, apperr.ErrCallerInput, id)
	}
	assert.False(t, called, "invalid ids must not reach the site")
}
