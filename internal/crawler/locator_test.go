package crawler

import (
	"strings"
	"testing"
)

// newTestLocator builds a Locator bound to https://example.com.
func newTestLocator(t *testing.T) *Locator {
	t.Helper()
	n, err := NewNormalizer("https://example.com")
	if err != nil {
		t.Fatalf("NewNormalizer() error = %v", err)
	}
	return NewLocator(n)
}

func TestLocatorImages(t *testing.T) {
	t.Parallel()

	t.Run("resolves src and records alt", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, `<html><body>
			<img src="logo.png" alt="Company logo">
		</body></html>`)

		refs := newTestLocator(t).Images(doc, "https://example.com/about/")
		if len(refs) != 1 {
			t.Fatalf("Images() returned %d refs, want 1", len(refs))
		}
		if want := "https://example.com/about/logo.png"; refs[0].URL != want {
			t.Errorf("URL = %q, want %q", refs[0].URL, want)
		}
		if want := "Company logo"; refs[0].Alt != want {
			t.Errorf("Alt = %q, want %q", refs[0].Alt, want)
		}
		if refs[0].Index != 1 {
			t.Errorf("Index = %d, want 1", refs[0].Index)
		}
	})

	t.Run("img without src is skipped but counted", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, `<html><body>
			<img src="/first.png">
			<img alt="lazy loaded, no src">
			<img src="/third.png">
		</body></html>`)

		refs := newTestLocator(t).Images(doc, "https://example.com/")
		if len(refs) != 2 {
			t.Fatalf("Images() returned %d refs, want 2", len(refs))
		}
		if refs[0].Index != 1 || refs[1].Index != 3 {
			t.Errorf("indices = %d, %d, want 1, 3", refs[0].Index, refs[1].Index)
		}
	})

	t.Run("no images", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, `<html><body><p>text only</p></body></html>`)
		if refs := newTestLocator(t).Images(doc, "https://example.com/"); len(refs) != 0 {
			t.Errorf("Images() = %v, want none", refs)
		}
	})
}

func TestLocatorLocation(t *testing.T) {
	t.Parallel()

	page := "https://example.com/"

	// locationOf parses src, which must contain exactly one <img>, and
	// returns its location label.
	locationOf := func(t *testing.T, src string) string {
		t.Helper()
		doc := parse(t, src)
		refs := newTestLocator(t).Images(doc, page)
		if len(refs) != 1 {
			t.Fatalf("Images() returned %d refs, want 1", len(refs))
		}
		return refs[0].Location
	}

	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "semantic ancestor",
			html: `<html><body><header><img src="/logo.png"></header></body></html>`,
			want: "header",
		},
		{
			name: "id ancestor under semantic ancestor",
			html: `<html><body><footer><div id="social"><img src="/x.png"></div></footer></body></html>`,
			want: "footer > #social",
		},
		{
			name: "class containing keyword",
			html: `<html><body><div class="main-content"><img src="/x.png"></div></body></html>`,
			want: ".main-content",
		},
		{
			name: "first keyword class token wins",
			html: `<html><body><div class="wrapper sidebar-left extra-content"><img src="/x.png"></div></body></html>`,
			want: ".sidebar-left",
		},
		{
			name: "all indicators of one ancestor",
			html: `<html><body><section id="gallery" class="photo-grid content-area"><img src="/x.png"></section></body></html>`,
			want: ".content-area > #gallery > section",
		},
		{
			name: "chain reads outermost first",
			html: `<html><body><main><div class="sidebar-widget"><img src="/x.png"></div></main></body></html>`,
			want: "main > .sidebar-widget",
		},
		{
			name: "nearest preceding heading",
			html: `<html><body>
				<h2>First Section</h2>
				<p>text</p>
				<h2>Second Section</h2>
				<img src="/x.png">
			</body></html>`,
			want: "Near heading: Second Section",
		},
		{
			name: "distant h1 beats close h2",
			html: `<html><body>
				<h1>Page Title</h1>
				<h2>Subsection</h2>
				<img src="/x.png">
			</body></html>`,
			want: "Near heading: Page Title",
		},
		{
			name: "empty nearest heading passes to next level",
			html: `<html><body>
				<h1>Good Title</h1>
				<h1></h1>
				<h2>Fallback</h2>
				<img src="/x.png">
			</body></html>`,
			want: "Near heading: Fallback",
		},
		{
			name: "heading after the image does not count",
			html: `<html><body>
				<img src="/x.png">
				<h2>Later heading</h2>
			</body></html>`,
			want: "Unknown section",
		},
		{
			name: "no structure at all",
			html: `<html><body><div><img src="/x.png"></div></body></html>`,
			want: "Unknown section",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := locationOf(t, tt.html); got != tt.want {
				t.Errorf("location = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("heading text is capped at fifty runes", func(t *testing.T) {
		t.Parallel()

		long := strings.Repeat("ab", 40) // 80 runes
		got := locationOf(t, `<html><body><h3>`+long+`</h3><img src="/x.png"></body></html>`)
		want := "Near heading: " + long[:headingTextLimit]
		if got != want {
			t.Errorf("location = %q, want %q", got, want)
		}
	})

	t.Run("ancestors beyond the depth cap are invisible", func(t *testing.T) {
		t.Parallel()

		var sb strings.Builder
		sb.WriteString("<html><body><header>")
		for i := 0; i < 11; i++ {
			sb.WriteString("<div>")
		}
		sb.WriteString(`<img src="/x.png">`)
		for i := 0; i < 11; i++ {
			sb.WriteString("</div>")
		}
		sb.WriteString("</header></body></html>")

		if got := locationOf(t, sb.String()); got != "Unknown section" {
			t.Errorf("location = %q, want %q", got, "Unknown section")
		}
	})
}
