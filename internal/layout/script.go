package layout

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Leaf-level content selectors. Generic divs are left out because the
// pagination wrappers would otherwise report every page as full.
var contentSelectors = []string{
	"h1", "h2", "h3", "h4", "h5", "p", "table", "ul", "ol", "hr", "blockquote",
	".write-space", ".write-space-xs", ".write-space-sm", ".write-space-md", ".write-space-lg",
	".field-input", ".field-row",
	".worksheet-header", ".worksheet-body",
	".insight-box", ".example-box", ".danger-box", ".shadow-box", ".wound-box",
	".principle-card", ".quick-ref",
	".drive-track", ".timeline-track", ".moral-spectrum",
	".checklist", ".two-col", ".three-col",
	".section-title-page", ".title-page", ".toc-page",
	".versus-table", ".beat-marker", ".spectrum-label",
}

// measureScript returns a Measurement for every page matched by selector
func measureScript(selector string) string {
	sel, _ := json.Marshal(selector)
	content, _ := json.Marshal(strings.Join(contentSelectors, ", "))

	return fmt.Sprintf(`(() => {
  const pages = Array.from(document.querySelectorAll(%s));
  const CONTENT = %s;
  const out = { totalPages: pages.length, pageSize: { width: 0, height: 0 }, pages: [] };
  if (pages.length > 0) {
    const r = pages[0].getBoundingClientRect();
    out.pageSize = { width: Math.round(r.width), height: Math.round(r.height) };
  }

  pages.forEach((pageEl, i) => {
    const pageRect = pageEl.getBoundingClientRect();
    const area = pageEl.querySelector('.pagedjs_page_content') || pageEl.querySelector('.pagedjs_area') || pageEl;
    const areaRect = area.getBoundingClientRect();
    const elements = [];

    area.querySelectorAll(CONTENT).forEach((el) => {
      const r = el.getBoundingClientRect();
      if (r.height === 0 || r.width === 0) return;
      if (r.top >= areaRect.bottom || r.bottom <= areaRect.top) return;

      const raw = typeof el.className === 'string' ? el.className : '';
      const classes = raw.split(/\s+/).filter((c) => c && !c.startsWith('pagedjs')).join(' ');
      const tag = el.tagName.toLowerCase();
      if (!classes && tag === 'div') return;

      const top = Math.round(Math.max(r.top, areaRect.top) - areaRect.top);
      const bottom = Math.round(Math.min(r.bottom, areaRect.bottom) - areaRect.top);
      elements.push({
        tag: tag,
        classes: classes,
        text: (el.textContent || '').trim().substring(0, 80),
        top: top,
        bottom: bottom,
        height: bottom - top,
        isWriteSpace: raw.includes('write-space') || raw.includes('field-input'),
      });
    });

    out.pages.push({
      pageNumber: i + 1,
      pageHeight: Math.round(pageRect.height),
      contentAreaHeight: Math.round(areaRect.height),
      elements: elements,
    });
  });
  return out;
})()`, sel, content)
}
