package render

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xmher/PB-Products-sub000/internal/fields"
	pdferrors "github.com/xmher/PB-Products-sub000/internal/pdf/errors"
)

func TestClassifyRequest(t *testing.T) {
	tests := []struct {
		name          string
		url           string
		haveScript    bool
		blockExternal bool
		want          requestAction
	}{
		{"unpkg polyfill with local copy", "https://unpkg.com/pagedjs/dist/paged.polyfill.js", true, false, actionServeScript},
		{"cdn polyfill with local copy", "https://cdn.jsdelivr.net/npm/pagedjs/dist/paged.js", true, true, actionServeScript},
		{"polyfill without local copy", "https://unpkg.com/pagedjs/dist/paged.polyfill.js", false, false, actionContinue},
		{"polyfill without local copy blocked", "https://unpkg.com/pagedjs/dist/paged.polyfill.js", false, true, actionBlock},
		{"google fonts css", "https://fonts.googleapis.com/css2?family=Inter", false, false, actionStubFont},
		{"google fonts file", "https://fonts.gstatic.com/s/inter/v1/abc.woff2", false, true, actionStubFont},
		{"local file", "file:///tmp/workbook.html", false, true, actionContinue},
		{"data url", "data:image/png;base64,AAAA", false, true, actionContinue},
		{"external image allowed", "https://example.com/cover.png", false, false, actionContinue},
		{"external image blocked", "https://example.com/cover.png", false, true, actionBlock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyRequest(tt.url, tt.haveScript, tt.blockExternal))
		})
	}
}

func TestFontContentType(t *testing.T) {
	assert.Equal(t, "font/woff2", fontContentType("https://fonts.gstatic.com/s/a.woff2"))
	assert.Equal(t, "text/css", fontContentType("https://fonts.googleapis.com/css2?family=Inter"))
}

func TestRequestActionString(t *testing.T) {
	assert.Equal(t, "continue", actionContinue.String())
	assert.Equal(t, "serve-local-script", actionServeScript.String())
	assert.Equal(t, "stub-font", actionStubFont.String())
	assert.Equal(t, "block", actionBlock.String())
}

func TestFindChrome(t *testing.T) {
	t.Run("override wins", func(t *testing.T) {
		t.Setenv("CHROME_PATH", "/from/env")
		assert.Equal(t, "/custom/chrome", FindChrome("/custom/chrome"))
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("CHROME_PATH", "/from/env")
		assert.Equal(t, "/from/env", FindChrome(""))
	})
}

func TestPlaywrightChromes(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"chromium-1100", "chromium-1200", "chromium_headless_shell-1200", "firefox-1400"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, name), 0o755))
	}

	got := playwrightChromes(dir)
	assert.Equal(t, []string{
		filepath.Join(dir, "chromium_headless_shell-1200", "chrome-linux", "headless_shell"),
		filepath.Join(dir, "chromium-1200", "chrome-linux", "chrome"),
		filepath.Join(dir, "chromium-1100", "chrome-linux", "chrome"),
	}, got)

	assert.Nil(t, playwrightChromes(filepath.Join(dir, "missing")))
}

func TestFileURL(t *testing.T) {
	got, err := FileURL("/tmp/my workbook.html")
	require.NoError(t, err)
	assert.Equal(t, "file:///tmp/my%20workbook.html", got)

	rel, err := FileURL("workbook.html")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "file:///"))
	assert.True(t, strings.HasSuffix(rel, "/workbook.html"))
}

func TestScripts(t *testing.T) {
	measure := measureFieldsScript(".sheet")
	assert.Contains(t, measure, `".sheet"`)
	assert.Contains(t, measure, "[data-field-name]")
	assert.Contains(t, measure, `"data-field-group"`)
	assert.Contains(t, measure, "unattributed")

	assert.Equal(t, `document.querySelectorAll(".pagedjs_page").length > 0`, pagesReadyScript(DefaultPageSelector))
	assert.Contains(t, hideInputsScript(), "visibility: hidden !important")
	assert.Equal(t, `"a\"b"`, jsString(`a"b`))
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		r, err := New(Options{SettleDelay: -time.Second})
		require.NoError(t, err)
		opts := r.Options()
		assert.Equal(t, DefaultTimeout, opts.Timeout)
		assert.Equal(t, time.Duration(0), opts.SettleDelay)
		assert.Equal(t, DefaultPageSelector, opts.PageSelector)
		assert.Equal(t, int64(1400), opts.ViewportWidth)
		assert.Equal(t, int64(900), opts.ViewportHeight)
	})

	t.Run("local script", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "paged.polyfill.js")
		require.NoError(t, os.WriteFile(path, []byte("window.PagedPolyfill = {};"), 0o644))
		r, err := New(Options{PagedScript: path})
		require.NoError(t, err)
		assert.Equal(t, "window.PagedPolyfill = {};", string(r.script))
	})

	t.Run("missing script", func(t *testing.T) {
		_, err := New(Options{PagedScript: filepath.Join(t.TempDir(), "missing.js")})
		require.Error(t, err)
		assert.True(t, pdferrors.Is(err, pdferrors.ErrorTypeIO))
	})
}

func TestRender_MissingInput(t *testing.T) {
	r, err := New(DefaultOptions())
	require.NoError(t, err)

	_, err = r.Render(context.Background(), filepath.Join(t.TempDir(), "missing.html"), Request{Fields: true})
	require.Error(t, err)
	assert.True(t, pdferrors.Is(err, pdferrors.ErrorTypeIO))
}

// Pre-paginated fixture: two fixed-size page containers, no pagination library.
const twoPageHTML = `<!DOCTYPE html>
<html><head><style>
  body { margin: 0; }
  .pagedjs_page { position: relative; width: 816px; height: 1056px; }
  .box { position: absolute; }
</style></head><body>
<div class="pagedjs_page">
  <div class="box" style="left: 40px; top: 60px; width: 200px; height: 24px" data-field-name="name" data-field-type="text"></div>
</div>
<div class="pagedjs_page">
  <div class="box" style="left: 80px; top: 100px; width: 16px; height: 16px" data-field-name="agree" data-field-type="checkbox"></div>
</div>
<div data-field-name="stray" data-field-type="text"></div>
</body></html>`

func TestRender_Chrome(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	if FindChrome("") == "" {
		t.Skip("no Chrome binary found")
	}

	path := filepath.Join(t.TempDir(), "workbook.html")
	require.NoError(t, os.WriteFile(path, []byte(twoPageHTML), 0o644))

	r, err := New(Options{Timeout: 30 * time.Second, SettleDelay: 100 * time.Millisecond, BlockExternal: true})
	require.NoError(t, err)

	res, err := r.Render(context.Background(), path, Request{Fields: true, PDF: true})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pages)
	assert.NotEmpty(t, res.PDF)

	require.NotNil(t, res.Layout)
	assert.Len(t, res.Layout.Pages, 2)
	assert.Equal(t, 1, res.Layout.Unattributed)

	set, err := fields.FromLayout(res.Layout)
	require.NoError(t, err)
	require.Len(t, set.Fields, 2)
	assert.Equal(t, "name", set.Fields[0].Name)
	assert.Equal(t, 0, set.Fields[0].Page)
	assert.InDelta(t, 30, set.Fields[0].X, 0.01)
	assert.InDelta(t, 792-45-18, set.Fields[0].Y, 0.01)
	assert.Equal(t, fields.TypeCheckbox, set.Fields[1].Type)
	assert.Equal(t, 1, set.Fields[1].Page)
}
