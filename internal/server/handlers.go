package server

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/conneroisu/sigil/internal/errors"
	"github.com/conneroisu/sigil/internal/view"
)

// reloadScript connects to /ws and reloads the page when the rendered
// template or anything it depends on changes. A dropped connection is
// retried with exponential backoff capped at five seconds.
const reloadScript = `<script>
(function () {
  var url = (location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws";
  var delay = 250;
  function connect() {
    var ws = new WebSocket(url);
    ws.onopen = function () { delay = 250; };
    ws.onmessage = function (ev) {
      var msg = JSON.parse(ev.data);
      if (msg.type === "reload") { location.reload(); }
    };
    ws.onclose = function () {
      setTimeout(connect, delay);
      delay = Math.min(delay * 2, 5000);
    };
  }
  connect();
})();
</script>
`

func (s *PreviewServer) handleRender(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		http.Error(w, "Template name required", http.StatusBadRequest)
		return
	}

	session := s.sessions(w)
	for key, values := range r.URL.Query() {
		if len(values) == 0 {
			continue
		}
		if err := session.AddVariable("query."+key, values[len(values)-1]); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	out, err := session.Render(r.Context(), name, view.ConcatenateOnly)
	if err != nil {
		s.logger.Warn(r.Context(), err, "Render failed", "template", name)
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(injectReloadScript(out))); err != nil {
		s.logger.Warn(r.Context(), err, "Failed to write response", "template", name)
	}
}

// statusFor maps a render failure to an HTTP status.
func statusFor(err error) int {
	if errors.HasCode(err, errors.ErrCodeTemplateNotFound) {
		return http.StatusNotFound
	}
	if errors.IsKind(err, errors.KindSyntax) ||
		errors.IsKind(err, errors.KindUnexpectedEOF) ||
		errors.IsKind(err, errors.KindModeValidation) {
		return http.StatusUnprocessableEntity
	}

	return http.StatusInternalServerError
}

// injectReloadScript places the live reload script before </body> of a
// full document. Fragments are returned unchanged.
func injectReloadScript(doc string) string {
	i := strings.LastIndex(strings.ToLower(doc), "</body>")
	if i < 0 {
		return doc
	}

	return doc[:i] + reloadScript + doc[i:]
}

func (s *PreviewServer) handleTemplates(w http.ResponseWriter, r *http.Request) {
	names := s.templates()
	if names == nil {
		names = []string{}
	}
	sort.Strings(names)

	writeJSON(w, http.StatusOK, map[string]any{"templates": names})
}

func (s *PreviewServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"clients": s.ClientCount(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
