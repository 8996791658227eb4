package multiplexer

import (
	"bytes"
	"html/template"

	"github.com/campsite/cmd/reloader"
	"github.com/dustin/go-humanize"
)

const welcome = "You are Camping"

var indexTemplate = template.Must(template.New("index").Parse(`<html>
  <head>
    <title>{{.Welcome}}</title>
    <style type="text/css">
      body {
        font-family: verdana, arial, sans-serif;
        padding: 10px 40px;
        margin: 0;
      }
      h1, h2, h3, h4, h5, h6 {
        font-family: utopia, georgia, serif;
      }
    </style>
  </head>
  <body>
    <h1>{{.Welcome}}</h1>
{{- if .Apps}}
<p>Good day.  These are the Camping apps you've mounted.</p><ul>
{{- range .Apps}}
<li><h3 style="display: inline"><a href="/{{.Mount}}">{{.Name}}</a></h3><small> / <a href="/code/{{.Mount}}">View source</a> ({{.Size}}){{if .Broken}} / failed to load{{end}}</small></li>
{{- end}}
</ul>
{{- else}}
<p>Good day.  I'm sorry, but I could not find any Camping apps. You might want to take a look at the console to see if any errors have been raised</p>
{{- end}}
</body></html>
`))

type indexEntry struct {
	Mount, Name, Size string
	Broken            bool
}

// IndexPage renders the page listing the apps of a snapshot, in mount name order.
func IndexPage(apps reloader.Apps) []byte {
	data := struct {
		Welcome string
		Apps    []indexEntry
	}{Welcome: welcome}
	for _, mount := range apps.Names() {
		h := apps[mount]
		data.Apps = append(data.Apps, indexEntry{
			Mount:  mount,
			Name:   h.Name,
			Size:   humanize.Bytes(uint64(h.Size)),
			Broken: h.Broken(),
		})
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
