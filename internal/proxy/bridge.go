package proxy

import (
	"net/http"

	"pagekit/dom"
)

const bridgePath = "/_pagekit/bridge.js"

// bridgeJS forwards browser interactions on enhanced pages back to the
// server: checklist changes, action clicks and back-to-top visibility.
const bridgeJS = `(function () {
  "use strict";
  var base = "/_pagekit";
  var page = location.pathname;

  function post(url, data) {
    return fetch(url, {
      method: "POST",
      credentials: "same-origin",
      headers: {"Content-Type": "application/x-www-form-urlencoded"},
      body: new URLSearchParams(data)
    }).then(function (r) { return r.ok ? r.json() : null; })
      .catch(function () { return null; });
  }

  function root() {
    return document.getElementById("workflowChecklistSection") ||
      document.querySelector("[data-workflow-checklist-root]");
  }

  function apply(state) {
    var r = root();
    if (!r || !state) return;
    r.querySelectorAll('input[type="checkbox"]').forEach(function (cb) {
      if (cb.id) cb.checked = !!state[cb.id];
    });
  }

  document.addEventListener("change", function (ev) {
    var t = ev.target, r = root();
    if (!r || !t || t.type !== "checkbox" || !t.id || !r.contains(t)) return;
    post(base + "/checklist/toggle", {path: page, id: t.id, checked: t.checked ? "true" : "false"});
  });

  document.addEventListener("click", function (ev) {
    var el = ev.target && ev.target.closest ? ev.target.closest("[data-action]") : null;
    if (!el) return;
    ev.preventDefault();
    var action = el.getAttribute("data-action");
    if (!action) return;
    if (action === "print-page" || action === "print-checklist") {
      window.open(base + "/action?" + new URLSearchParams({path: page, action: action}), "_blank");
      return;
    }
    post(base + "/action", {path: page, action: action}).then(function (res) {
      if (!res) return;
      apply(res.state);
      if (res.message) alert(res.message);
    });
  });

  var fab = document.getElementById("back-to-top-fab");
  if (fab) {
    var btn = document.getElementById("btnBackToTop");
    var sync = function () {
      var y = window.pageYOffset || document.documentElement.scrollTop || 0;
      fab.classList.toggle("is-visible", y > 200);
    };
    ["scroll", "resize", "orientationchange"].forEach(function (t) {
      window.addEventListener(t, sync, {passive: true});
    });
    if (btn) {
      btn.addEventListener("click", function (ev) {
        ev.preventDefault();
        var reduce = window.matchMedia && window.matchMedia("(prefers-reduced-motion: reduce)").matches;
        window.scrollTo({top: 0, behavior: reduce ? "auto" : "smooth"});
        sync();
      });
    }
    sync();
  }
})();
`

func (s *Server) handleBridge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write([]byte(bridgeJS))
}

// injectBridge references the bridge script at the end of body unless the
// page already does.
func injectBridge(doc *dom.Document) error {
	if doc.Query(`script[src="`+bridgePath+`"]`) != nil {
		return nil
	}
	n, err := dom.ParseFragment(`<script src="` + bridgePath + `" defer></script>`)
	if err != nil {
		return err
	}
	doc.Append(doc.Body(), n)
	return nil
}
