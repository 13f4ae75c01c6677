package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billmal071/novelapi/internal/apperr"
	"github.com/billmal071/novelapi/internal/logger"
)

func fixedUploader(opts Options) *Uploader {
	u := NewUploader(opts, logger.Discard())
	u.now = func() time.Time { return time.Date(2024, 11, 10, 8, 30, 5, 0, time.UTC) }
	u.suffix = func() string { return "AbCd" }
	return u
}

func TestParseDestination(t *testing.T) {
	d, err := ParseDestination("alice/sources/books/2024")
	require.NoError(t, err)
	assert.Equal(t, Destination{Owner: "alice", Repo: "sources", Dir: "books/2024"}, d)
	assert.Equal(t, "books/2024/a.json", d.Path("a.json"))

	d, err = ParseDestination("alice/sources")
	require.NoError(t, err)
	assert.Equal(t, "a.json", d.Path("a.json"))

	for _, bad := range []string{"", "alice", "/sources", "alice/sources/../x", "alice/sources//x"} {
		_, err := ParseDestination(bad)
		assert.ErrorIs(t, err, apperr.ErrCallerInput, bad)
	}
}

func TestSourceName(t *testing.T) {
	name, err := SourceName([]byte(`{"bookSourceName": " 笔趣阁 "}`))
	require.NoError(t, err)
	assert.Equal(t, "笔趣阁", name)

	name, err = SourceName([]byte(`[{"bookSourceName": "first"}, {"bookSourceName": "second"}]`))
	require.NoError(t, err)
	assert.Equal(t, "first", name)

	name, err = SourceName([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, name)

	name, err = SourceName([]byte(`["x"]`))
	require.NoError(t, err)
	assert.Empty(t, name)

	_, err = SourceName([]byte("not json"))
	assert.Error(t, err)
}

func TestDeriveFilename(t *testing.T) {
	required := fixedUploader(Options{RequireSourceName: true})

	name, err := required.DeriveFilename([]byte(`{"bookSourceName":"源A"}`), "export.json")
	require.NoError(t, err)
	assert.Equal(t, "源AAbCd20241110083005.json", name)

	_, err = required.DeriveFilename([]byte(`{"other":1}`), "export.json")
	assert.ErrorIs(t, err, apperr.ErrCallerInput)

	_, err = required.DeriveFilename([]byte(`plain text`), "notes.txt")
	assert.ErrorIs(t, err, apperr.ErrCallerInput)

	optional := fixedUploader(Options{RequireSourceName: false})
	name, err = optional.DeriveFilename([]byte(`plain text`), "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "uploadAbCd20241110083005.txt", name)

	name, err = optional.DeriveFilename([]byte(`{"bookSourceName":"a/b"}`), "x")
	require.NoError(t, err)
	assert.Equal(t, "a_bAbCd20241110083005", name)
}

func TestDefaultSuffixIsFourLetters(t *testing.T) {
	u := NewUploader(Options{}, logger.Discard())
	s := u.suffix()
	assert.Len(t, s, 4)
	for _, r := range s {
		assert.Contains(t, letters, string(r))
	}
}

type fakeGitHub struct {
	existingSHA string
	putStatus   int
	putBody     putBody
	putPath     string
	gotAuth     string
	gotRef      string
}

func (f *fakeGitHub) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.gotAuth = r.Header.Get("Authorization")
		switch r.Method {
		case http.MethodGet:
			f.gotRef = r.URL.Query().Get("ref")
			if f.existingSHA == "" {
				http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"sha": f.existingSHA})
		case http.MethodPut:
			f.putPath = r.URL.Path
			raw, err := io.ReadAll(r.Body)
			if !assert.NoError(t, err) || !assert.NoError(t, json.Unmarshal(raw, &f.putBody)) {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			status := f.putStatus
			if status == 0 {
				status = http.StatusCreated
			}
			w.WriteHeader(status)
			if status >= 300 {
				_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
				return
			}
			_, _ = w.Write([]byte(`{"content":{}}`))
		}
	}
}

func newFakeUploader(t *testing.T, gh *fakeGitHub) *Uploader {
	t.Helper()
	srv := httptest.NewServer(gh.handler(t))
	t.Cleanup(srv.Close)
	return fixedUploader(Options{
		APIBaseURL:        srv.URL,
		RawBaseURL:        "https://raw.example.com",
		RequireSourceName: true,
	})
}

var sourceFile = []byte(`{"bookSourceName":"demo","bookSourceUrl":"https://x"}`)

func TestUploadCreatesFile(t *testing.T) {
	gh := &fakeGitHub{}
	u := newFakeUploader(t, gh)

	res, err := u.Upload(context.Background(), UploadRequest{
		Repository:    "alice/sources/books",
		Branch:        "main",
		CommitMessage: "add source",
		AccessToken:   "secret",
		Filename:      "demo.json",
		Content:       sourceFile,
	})
	require.NoError(t, err)

	assert.Equal(t, "https://raw.example.com/alice/sources/main/books/demoAbCd20241110083005.json", res.DownloadURL)
	assert.Equal(t, "/repos/alice/sources/contents/books/demoAbCd20241110083005.json", gh.putPath)
	assert.Equal(t, "token secret", gh.gotAuth)
	assert.Equal(t, "main", gh.gotRef)
	assert.Empty(t, gh.putBody.SHA, "new files are created without a sha")
	assert.Equal(t, "main", gh.putBody.Branch)
	assert.Equal(t, "add source", gh.putBody.Message)

	decoded, err := base64.StdEncoding.DecodeString(gh.putBody.Content)
	require.NoError(t, err)
	assert.Equal(t, sourceFile, decoded)
}

func TestUploadUpdatesExistingFile(t *testing.T) {
	gh := &fakeGitHub{existingSHA: "abc123", putStatus: http.StatusOK}
	u := newFakeUploader(t, gh)

	_, err := u.Upload(context.Background(), UploadRequest{
		Repository: "alice/sources", Branch: "main", AccessToken: "t",
		Filename: "demo.json", Content: sourceFile,
	})
	require.NoError(t, err)
	assert.Equal(t, "abc123", gh.putBody.SHA)
}

func TestUploadRejected(t *testing.T) {
	gh := &fakeGitHub{putStatus: http.StatusUnauthorized}
	u := newFakeUploader(t, gh)

	_, err := u.Upload(context.Background(), UploadRequest{
		Repository: "alice/sources", Branch: "main", AccessToken: "bad",
		Filename: "demo.json", Content: sourceFile,
	})
	require.Error(t, err)

	appErr := apperr.From(err)
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus())
	assert.Equal(t, http.StatusUnauthorized, appErr.UpstreamStatus)
	assert.Contains(t, appErr.Message, "Bad credentials")
}

func TestUploadValidation(t *testing.T) {
	gh := &fakeGitHub{}
	u := newFakeUploader(t, gh)

	cases := []UploadRequest{
		{Repository: "alice", Branch: "main", AccessToken: "t", Content: sourceFile},
		{Repository: "alice/sources", Branch: "", AccessToken: "t", Content: sourceFile},
		{Repository: "alice/sources", Branch: "main", AccessToken: "", Content: sourceFile},
		{Repository: "alice/sources", Branch: "main", AccessToken: "t", Content: []byte(`{}`)},
	}
	for _, req := range cases {
		_, err := u.Upload(context.Background(), req)
		assert.ErrorIs(t, err, apperr.ErrCallerInput)
	}
	assert.Empty(t, gh.putPath, "nothing reaches the API")
}
