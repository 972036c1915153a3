package render

import (
	"encoding/json"
	"fmt"

	"github.com/xmher/PB-Products-sub000/internal/fields"
)

// jsString quotes s as a JavaScript string literal
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// pagesReadyScript is true once the pagination library has produced at
// least one page container.
func pagesReadyScript(selector string) string {
	return fmt.Sprintf(`document.querySelectorAll(%s).length > 0`, jsString(selector))
}

func pageCountScript(selector string) string {
	return fmt.Sprintf(`document.querySelectorAll(%s).length`, jsString(selector))
}

// measureFieldsScript returns a fields.Layout: every page container's box
// and every annotated element attributed to its nearest page ancestor.
func measureFieldsScript(selector string) string {
	return fmt.Sprintf(`(() => {
  const sel = %s;
  const rect = (el) => {
    const r = el.getBoundingClientRect();
    return { left: r.left, top: r.top, width: r.width, height: r.height };
  };
  const pages = Array.from(document.querySelectorAll(sel));
  const index = new Map();
  pages.forEach((p, i) => index.set(p, i));

  const out = { pages: pages.map(rect), elements: [], unattributed: 0 };
  document.querySelectorAll('[%s]').forEach((el) => {
    const pageEl = el.closest(sel);
    const page = pageEl ? index.get(pageEl) : undefined;
    if (page === undefined) {
      out.unattributed++;
      return;
    }
    out.elements.push({
      name: el.getAttribute(%s) || '',
      type: el.getAttribute(%s) || '',
      group: el.getAttribute(%s) || '',
      page: page,
      rect: rect(el),
    });
  });
  return out;
})()`,
		jsString(selector),
		fields.AttrName,
		jsString(fields.AttrName), jsString(fields.AttrType), jsString(fields.AttrGroup),
	)
}

// hideInputsStyle hides the HTML controls that the AcroForm widgets
// replace. visibility keeps their boxes so the layout does not move.
const hideInputsStyle = `
input[data-field-name],
[data-field-name] input[type="checkbox"],
[data-field-name] input[type="text"],
[data-field-name] input[type="radio"] {
  visibility: hidden !important;
}
[data-field-name][contenteditable] {
  border-color: transparent !important;
  background: transparent !important;
}
`

func hideInputsScript() string {
	return fmt.Sprintf(`(() => {
  const style = document.createElement('style');
  style.setAttribute('data-fillable-pdf', 'hide-inputs');
  style.textContent = %s;
  document.head.appendChild(style);
  return true;
})()`, jsString(hideInputsStyle))
}
