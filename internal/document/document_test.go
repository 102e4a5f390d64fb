package document

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSource(t *testing.T) {
	for in, want := range map[string]Source{
		"report.pdf":                           {Label: "report.pdf", Location: "report.pdf"},
		"Policy=./docs/policy.pdf":             {Label: "Policy", Location: "./docs/policy.pdf"},
		"Terms = terms.txt":                    {Label: "Terms", Location: "terms.txt"},
		"=notes.md":                            {Label: "notes.md", Location: "notes.md"},
		"-":                                    {Label: "stdin", Location: "-"},
		"Input=-":                              {Label: "Input", Location: "-"},
		"https://example.com/a/terms.txt?v=2":  {Label: "terms.txt", Location: "https://example.com/a/terms.txt?v=2"},
		"https://example.com":                  {Label: "example.com", Location: "https://example.com"},
		"Site=https://example.com/privacy?x=1": {Label: "Site", Location: "https://example.com/privacy?x=1"},
		"file:///tmp/a=b.txt":                  {Label: "a=b.txt", Location: "file:///tmp/a=b.txt"},
	} {
		t.Run(in, func(t *testing.T) {
			got, err := ParseSource(in)
			require.NoError(t, err)
			require.Equal(t, want, got)
		})
	}

	t.Run("existing file with equals sign", func(t *testing.T) {
		t.Chdir(t.TempDir())
		require.NoError(t, os.WriteFile("a=b.txt", []byte("x"), 0o644))

		got, err := ParseSource("a=b.txt")
		require.NoError(t, err)
		require.Equal(t, Source{Label: "a=b.txt", Location: "a=b.txt"}, got)

		got, err = ParseSource("a=c.txt")
		require.NoError(t, err)
		require.Equal(t, Source{Label: "a", Location: "c.txt"}, got)
	})

	t.Run("errors", func(t *testing.T) {
		for _, in := range []string{"", "  ", "Label="} {
			_, err := ParseSource(in)
			require.Error(t, err, in)
		}
	})
}

func TestLoad(t *testing.T) {
	const content = "just text"

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "foo.txt")
		require.NoError(t, os.WriteFile(path, []byte(content+"\n"), 0o644))

		for _, loc := range []string{path, "file://" + path} {
			doc, err := Loader{}.Load(context.Background(), Source{Label: "Foo", Location: loc})
			require.NoError(t, err)
			require.Equal(t, Document{Label: "Foo", Text: content}, doc)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Loader{}.Load(context.Background(), Source{Label: "Nope", Location: filepath.Join(t.TempDir(), "nope.txt")})
		require.ErrorIs(t, err, os.ErrNotExist)
		require.ErrorContains(t, err, "could not read Nope")
	})

	t.Run("stdin", func(t *testing.T) {
		l := Loader{Stdin: strings.NewReader(content)}
		doc, err := l.Load(context.Background(), Source{Label: "stdin", Location: Stdin})
		require.NoError(t, err)
		require.Equal(t, content, doc.Text)
	})

	t.Run("no stdin", func(t *testing.T) {
		_, err := Loader{}.Load(context.Background(), Source{Label: "stdin", Location: Stdin})
		require.Error(t, err)
	})

	t.Run("http url", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(content))
		}))
		t.Cleanup(srv.Close)

		doc, err := Loader{HTTPClient: srv.Client()}.Load(context.Background(), Source{Label: "Web", Location: srv.URL + "/terms"})
		require.NoError(t, err)
		require.Equal(t, content, doc.Text)
	})

	t.Run("http status", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		t.Cleanup(srv.Close)

		_, err := Loader{HTTPClient: srv.Client()}.Load(context.Background(), Source{Label: "Web", Location: srv.URL})
		require.ErrorContains(t, err, "404 Not Found")
	})

	t.Run("empty", func(t *testing.T) {
		l := Loader{Stdin: strings.NewReader(" \n\t")}
		_, err := l.Load(context.Background(), Source{Label: "blank", Location: Stdin})
		require.ErrorIs(t, err, ErrEmpty)
	})

	t.Run("broken pdf", func(t *testing.T) {
		l := Loader{Stdin: strings.NewReader("%PDF-1.4\nnot really a pdf")}
		_, err := l.Load(context.Background(), Source{Label: "scan", Location: Stdin})
		require.ErrorContains(t, err, "invalid PDF")
	})
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	var srcs []Source
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		path := filepath.Join(dir, name+".txt")
		require.NoError(t, os.WriteFile(path, []byte("text of "+name), 0o644))
		srcs = append(srcs, Source{Label: strings.ToUpper(name), Location: path})
	}

	t.Run("keeps order", func(t *testing.T) {
		docs, err := Loader{}.LoadAll(context.Background(), srcs)
		require.NoError(t, err)
		require.Len(t, docs, len(srcs))
		for i, doc := range docs {
			require.Equal(t, srcs[i].Label, doc.Label)
			require.Equal(t, "text of "+strings.ToLower(doc.Label), doc.Text)
		}
	})

	t.Run("fails on any", func(t *testing.T) {
		bad := append([]Source{}, srcs...)
		bad[3].Location = filepath.Join(dir, "missing.txt")
		_, err := Loader{}.LoadAll(context.Background(), bad)
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("nothing", func(t *testing.T) {
		docs, err := Loader{}.LoadAll(context.Background(), nil)
		require.NoError(t, err)
		require.Empty(t, docs)
	})
}

func TestTruncate(t *testing.T) {
	for _, tt := range []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 3, "hel"},
		{"hello", 0, "hello"},
		{"hello", -1, "hello"},
		{"héllo wörld", 7, "héllo w"},
		{"日本語のテキスト", 3, "日本語"},
		{"", 3, ""},
	} {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, Truncate(tt.in, tt.n))
		})
	}
}
