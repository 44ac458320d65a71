package crawler

import (
	"strings"
	"testing"
)

// parse is a test helper that parses an HTML fragment as UTF-8.
func parse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := ParseDocument(strings.NewReader(src), "text/html; charset=utf-8")
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	return doc
}

func TestDocumentTitle(t *testing.T) {
	t.Parallel()

	t.Run("present title is trimmed", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, "<html><head><title>  My Site  </title></head><body></body></html>")
		got, ok := doc.Title()
		if !ok {
			t.Fatal("Title() ok = false, want true")
		}
		if want := "My Site"; got != want {
			t.Errorf("Title() = %q, want %q", got, want)
		}
	})

	t.Run("empty title is present but empty", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, "<html><head><title></title></head><body></body></html>")
		got, ok := doc.Title()
		if !ok {
			t.Fatal("Title() ok = false, want true")
		}
		if got != "" {
			t.Errorf("Title() = %q, want empty", got)
		}
	})

	t.Run("missing title", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, "<html><head></head><body><h1>No title here</h1></body></html>")
		got, ok := doc.Title()
		if ok {
			t.Errorf("Title() ok = true, want false (got %q)", got)
		}
	})
}

func TestDocumentFind(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<html><body>
		<div class="first">one</div>
		<div class="second">two</div>
		<div class="second">three</div>
	</body></html>`)

	t.Run("returns first match in document order", func(t *testing.T) {
		t.Parallel()

		n := doc.Find(Class("second"))
		if n == nil {
			t.Fatal("Find() = nil, want node")
		}
		if got := strings.TrimSpace(nodeText(n)); got != "two" {
			t.Errorf("Find() text = %q, want %q", got, "two")
		}
	})

	t.Run("returns nil when nothing matches", func(t *testing.T) {
		t.Parallel()

		if n := doc.Find(Class("missing")); n != nil {
			t.Errorf("Find() = %v, want nil", n)
		}
	})

	t.Run("find all preserves document order", func(t *testing.T) {
		t.Parallel()

		nodes := doc.FindAll(Tag("div"))
		if len(nodes) != 3 {
			t.Fatalf("FindAll() returned %d nodes, want 3", len(nodes))
		}
		want := []string{"one", "two", "three"}
		for i, n := range nodes {
			if got := strings.TrimSpace(nodeText(n)); got != want[i] {
				t.Errorf("FindAll()[%d] text = %q, want %q", i, got, want[i])
			}
		}
	})
}

func TestDecodeText(t *testing.T) {
	t.Parallel()

	t.Run("decodes latin-1 to utf-8", func(t *testing.T) {
		t.Parallel()

		// "café" with the é encoded as the single ISO-8859-1 byte 0xE9.
		body := []byte("<html><body>caf\xe9</body></html>")
		got, err := DecodeText(body, "text/html; charset=iso-8859-1")
		if err != nil {
			t.Fatalf("DecodeText() error = %v", err)
		}
		if !strings.Contains(got, "café") {
			t.Errorf("DecodeText() = %q, want it to contain %q", got, "café")
		}
	})

	t.Run("utf-8 passes through", func(t *testing.T) {
		t.Parallel()

		body := []byte("<html><body>日本語</body></html>")
		got, err := DecodeText(body, "text/html; charset=utf-8")
		if err != nil {
			t.Fatalf("DecodeText() error = %v", err)
		}
		if got != string(body) {
			t.Errorf("DecodeText() = %q, want %q", got, body)
		}
	})
}
