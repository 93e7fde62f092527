package server

import "html/template"

const shellTemplateName = "page"

// shellTemplate renders a live page. The body is trusted HTML supplied by
// the page's writer; events from <path>?updates keep it current.
var shellTemplate = template.Must(template.New(shellTemplateName).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script>
(function () {
  var source = new EventSource({{.Updates}});
  source.addEventListener("title", function (e) { document.title = e.data; });
  source.addEventListener("clear-title", function () { document.title = ""; });
  source.addEventListener("body", function (e) { document.body.innerHTML = e.data; });
  source.addEventListener("clear-body", function () { document.body.innerHTML = ""; });
  source.addEventListener("refresh", function () {
    source.close();
    window.location.reload();
  });
})();
</script>
</head>
<body>{{.Body}}</body>
</html>
`))

type shellData struct {
	Title   string
	Body    template.HTML
	Updates string
}
