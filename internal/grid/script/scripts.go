// scripts.go - Browser-side snippets evaluated by the extension bridge.
// Each snippet is a self-invoking expression returning JSON-serializable data.
package script

import (
	"encoding/json"
	"fmt"
)

// Selectors for the Fluent UI DetailsList the host page renders.
const (
	GridSelector     = `div[role="grid"]`
	RowSelector      = `div[role="row"]`
	ListSelector     = `.ms-DetailsList`
	PageSelector     = `.ms-List-page`
	ViewportSelector = `.ms-Viewport`
	IndexAttribute   = "data-item-index"
)

// prelude resolves the grid and its scroll container into `grid` and `vp`.
// Returns null from the snippet when either is missing.
const prelude = `
  const grid = document.querySelector('div[role="grid"]');
  if (!grid || !grid.closest('.ms-DetailsList') || !grid.querySelector('.ms-List-page')) return null;
  const vp = grid.closest('.ms-Viewport');
  if (!vp) return null;`

// DetectScript reports whether the DetailsList fingerprint is present.
const DetectScript = `(() => {` + prelude + `
  return true;
})()`

// RowsScript lists mounted rows with index, a stable key path, height,
// indentation of the primary content wrapper, and cell text.
const RowsScript = `(() => {` + prelude + `
  const rows = Array.from(grid.querySelectorAll('div[role="row"]'));
  return rows.map((row, pos) => {
    const wrapper = row.querySelector('div[role="gridcell"]:not(.custom-expand-cell) > div:first-child');
    let indent = 0;
    if (wrapper && wrapper.firstChild && wrapper.firstChild.nodeType === 1) {
      indent = parseFloat(window.getComputedStyle(wrapper.firstChild).paddingLeft) || 0;
    }
    const cells = {};
    row.querySelectorAll('div[role="gridcell"][data-automation-key]').forEach(cell => {
      cells[cell.getAttribute('data-automation-key')] = (cell.textContent || '').trim();
    });
    const nameEl = row.querySelector('div[data-automation-id="solution-component-name"]');
    if (nameEl) cells['solution-component-name'] = (nameEl.textContent || '').trim();
    const index = row.getAttribute('data-item-index') || '';
    return {
      index: index,
      key: index !== '' ? 'item-' + index : 'pos-' + pos,
      height: row.offsetHeight,
      indent: indent,
      has_icon: !!(wrapper && wrapper.querySelector('img')),
      expandable: !!row.querySelector('button[aria-expanded]'),
      cells: cells
    };
  });
})()`

// MetricsScript reads the scroll geometry of the container.
const MetricsScript = `(() => {` + prelude + `
  return { offset: vp.scrollTop, content_height: vp.scrollHeight, viewport_height: vp.clientHeight };
})()`

// NudgeScript dispatches the signals that prompt the list to re-render. The
// container's scroll listener forwarding to window resize is installed once.
const NudgeScript = `(() => {` + prelude + `
  if (!vp.dataset.gridmatNudge) {
    vp.addEventListener('scroll', () => window.dispatchEvent(new Event('resize')));
    vp.dataset.gridmatNudge = 'true';
  }
  vp.dispatchEvent(new Event('scroll'));
  vp.dispatchEvent(new WheelEvent('wheel', { bubbles: true, deltaY: 1 }));
  window.dispatchEvent(new Event('resize'));
  return true;
})()`

// UnclipScript removes overflow clipping and max-height from every ancestor
// of the container up to the body. Prior inline values are kept in dataset
// attributes for ThawScript.
const UnclipScript = `(() => {` + prelude + `
  let parent = vp.parentElement;
  let changed = 0;
  while (parent && parent !== document.body) {
    const cs = window.getComputedStyle(parent);
    const clipped = cs.overflow === 'hidden' || cs.overflowY === 'hidden';
    const capped = parent.style.maxHeight && parent.style.maxHeight !== 'none';
    if ((clipped || capped) && !parent.hasAttribute('data-gridmat-unclipped')) {
      parent.setAttribute('data-gridmat-unclipped', '');
      parent.dataset.gridmatOverflow = parent.style.overflow;
      parent.dataset.gridmatMaxHeight = parent.style.maxHeight;
    }
    if (clipped) {
      parent.style.overflow = 'visible';
      changed++;
    }
    if (capped) {
      parent.style.maxHeight = 'none';
      changed++;
    }
    parent = parent.parentElement;
  }
  return changed;
})()`

// ThawScript restores the container height and every ancestor touched by
// UnclipScript. Returns how many elements were restored.
const ThawScript = `(() => {` + prelude + `
  let restored = 0;
  if (vp.dataset.gridmatHeight !== undefined) {
    vp.style.height = vp.dataset.gridmatHeight;
    delete vp.dataset.gridmatHeight;
    restored++;
  }
  document.querySelectorAll('[data-gridmat-unclipped]').forEach(el => {
    el.style.overflow = el.dataset.gridmatOverflow || '';
    el.style.maxHeight = el.dataset.gridmatMaxHeight || '';
    delete el.dataset.gridmatOverflow;
    delete el.dataset.gridmatMaxHeight;
    el.removeAttribute('data-gridmat-unclipped');
    restored++;
  });
  return restored;
})()`

// LocationScript returns the page URL; it does not need a mounted grid.
const LocationScript = `(() => window.location.href)()`

// BuildSetOffsetScript returns a snippet writing the container's scrollTop.
func BuildSetOffsetScript(offset float64) string {
	return fmt.Sprintf(`(() => {`+prelude+`
  vp.scrollTop = %s;
  return vp.scrollTop;
})()`, jsNumber(offset))
}

// BuildFixHeightScript returns a snippet pinning the container height. The
// first pin remembers the inline height it replaced.
func BuildFixHeightScript(height float64) string {
	return fmt.Sprintf(`(() => {`+prelude+`
  if (vp.dataset.gridmatHeight === undefined) vp.dataset.gridmatHeight = vp.style.height;
  vp.style.height = %s + 'px';
  return vp.offsetHeight;
})()`, jsNumber(height))
}

func jsNumber(v float64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
