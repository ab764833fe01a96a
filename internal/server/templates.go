package server

import "html/template"

var (
	indexTmpl  = template.Must(template.New("index").Parse(indexTemplate))
	viewerTmpl = template.Must(template.New("viewer").Parse(viewerTemplate))
)

// indexTemplate is the file listing page.
const indexTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>mdview — {{.Dir}}</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Helvetica, Arial, sans-serif; max-width: 860px; margin: 2rem auto; padding: 0 1rem; color: #24292e; }
h1 { font-size: 1.4rem; border-bottom: 1px solid #eaecef; padding-bottom: .4rem; }
h2 { font-size: 1.1rem; margin-top: 1.6rem; }
table { width: 100%; border-collapse: collapse; }
td, th { text-align: left; padding: .35rem .5rem; border-bottom: 1px solid #eaecef; font-size: .9rem; }
a { color: #0366d6; text-decoration: none; }
a:hover { text-decoration: underline; }
.meta { color: #6a737d; white-space: nowrap; }
.recent { background: #f6f8fa; border-radius: 6px; padding: .6rem 1rem; margin-top: 1rem; font-size: .9rem; }
</style>
</head>
<body>
<h1>mdview</h1>
<p class="meta">{{.Dir}}</p>
{{if .Recent}}
<div class="recent">Recently viewed:
{{range .Recent}}<a href="/view/{{.Name}}">{{.Name}}</a> ({{.Count}}) {{end}}
</div>
{{end}}
{{range .Groups}}
{{if .Name}}<h2>{{.Name}}</h2>{{end}}
<table>
{{range .Files}}
<tr>
<td><a href="/view/{{.Name}}">{{.Name}}</a></td>
<td class="meta">{{.SizeHuman}}</td>
<td class="meta">{{.ModifiedHuman}}</td>
</tr>
{{end}}
</table>
{{end}}
</body>
</html>
`

// viewerTemplate is the single-file viewer page. The content subtree is
// annotated server-side; the inline script keeps the page synchronized
// with the daemon and mirrors the annotations after every refresh.
const viewerTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Name}}</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Helvetica, Arial, sans-serif; max-width: 900px; margin: 2rem auto; padding: 0 1rem; color: #24292e; }
.toolbar { display: flex; align-items: center; gap: .8rem; border-bottom: 1px solid #eaecef; padding-bottom: .5rem; }
.toolbar a { color: #0366d6; text-decoration: none; }
#refresh-button { cursor: pointer; border: 1px solid #d1d5da; background: #fafbfc; border-radius: 6px; padding: .25rem .7rem; }
#refresh-button.spinning { animation: rot .5s linear; }
@keyframes rot { from { transform: rotate(0deg); } to { transform: rotate(360deg); } }
.markdown-body pre { background: #f6f8fa; padding: 1rem; border-radius: 6px; overflow-x: auto; }
.markdown-body code { font-family: SFMono-Regular, Consolas, Menlo, monospace; font-size: .88em; }
.code-block-container { position: relative; }
.copy-button { position: absolute; top: .4rem; right: .4rem; border: 1px solid #d1d5da; background: #fafbfc; border-radius: 6px; padding: .15rem .55rem; font-size: .78rem; cursor: pointer; }
.copy-button.copied { border-color: #28a745; color: #28a745; }
.frontmatter-table td { border: 1px solid #eaecef; padding: .25rem .6rem; font-size: .85rem; }
.toc { float: right; width: 200px; font-size: .85rem; margin-left: 1rem; }
</style>
</head>
<body>
<div class="toolbar">
<a href="/">&larr; index</a>
<strong>{{.Name}}</strong>
<button id="refresh-button" type="button" title="Refresh">&#x21bb;</button>
</div>
{{if .TOC}}
<nav class="toc">
<ul>{{range .TOC}}<li><a href="#{{.ID}}">{{.Text}}</a></li>{{end}}</ul>
</nav>
{{end}}
{{.FrontmatterHTML}}
<div class="markdown-body">{{.ContentHTML}}</div>
<script src="https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"></script>
<script>
(function () {
  var file = {{.Name}};
  var refreshMs = {{.RefreshMs}};
  var refreshTimer = null, probeTimer = null;

  if (window.mermaid) { mermaid.initialize({ startOnLoad: true }); }

  function showBanner() {
    hideBanner();
    var b = document.createElement('div');
    b.id = 'connection-banner';
    b.textContent = 'Server disconnected — this page will no longer update';
    b.style.cssText = 'position:sticky;top:0;background:#b00020;color:#fff;padding:8px 12px;text-align:center;z-index:9999';
    document.body.insertBefore(b, document.body.firstChild);
  }
  function hideBanner() {
    var b = document.getElementById('connection-banner');
    if (b) b.remove();
  }

  var serverUp = true;
  function observe(up) {
    if (!up && serverUp) { serverUp = false; showBanner(); }
    else if (up && !serverUp) { serverUp = true; hideBanner(); }
  }
  function probe() {
    fetch('/api/files', { cache: 'no-cache' })
      .then(function (r) { observe(r.status < 500); })
      .catch(function () { observe(false); });
  }

  function wireCopyButtons(root) {
    root.querySelectorAll('.copy-button').forEach(function (btn) {
      if (btn.dataset.wired) return;
      btn.dataset.wired = '1';
      btn.addEventListener('click', function () {
        var container = btn.parentElement;
        var code = container.querySelector('code');
        var text = code ? code.innerText : container.innerText;
        fetch('/api/clipboard', {
          method: 'POST',
          headers: { 'Content-Type': 'application/json' },
          body: JSON.stringify({ text: text })
        }).then(function (r) { return r.json(); })
          .then(function (res) { feedback(btn, res.ok); })
          .catch(function () { feedback(btn, false); });
      });
    });
  }
  function feedback(btn, ok) {
    btn.textContent = ok ? 'Copied!' : 'Error';
    if (ok) btn.classList.add('copied');
    setTimeout(function () {
      btn.textContent = 'Copy';
      btn.classList.remove('copied');
    }, 2000);
  }

  function refresh() {
    fetch('/api/file/' + encodeURIComponent(file) + '/content')
      .then(function (r) { return r.json(); })
      .then(function (res) {
        var root = document.querySelector('.markdown-body');
        root.innerHTML = res.html;
        wireCopyButtons(root);
        if (window.mermaid) { mermaid.run(); }
      })
      .catch(function () {});
  }

  function initialize() {
    if (refreshTimer) { clearInterval(refreshTimer); refreshTimer = null; }
    if (probeTimer) { clearInterval(probeTimer); probeTimer = null; }
    if (refreshMs > 0) refreshTimer = setInterval(refresh, refreshMs);
    probeTimer = setInterval(probe, 5000);
    probe();

    var control = document.getElementById('refresh-button');
    if (control && !control.dataset.wired) {
      control.dataset.wired = '1';
      control.addEventListener('click', function () {
        refresh();
        control.classList.add('spinning');
        setTimeout(function () { control.classList.remove('spinning'); }, 500);
      });
    }
  }

  wireCopyButtons(document);
  initialize();

  // Live reload over the watch socket, when available.
  try {
    var proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
    var ws = new WebSocket(proto + location.host + '/api/watch');
    ws.onmessage = function () { refresh(); };
  } catch (e) {}
})();
</script>
</body>
</html>
`
