package render

// Values reaching these templates are escaped by Sanitize beforehand, so
// text/template is used to keep the output byte-for-byte predictable.

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
  <meta name="description" content="{{.Description}}">
  <meta name="keywords" content="scripts, buy scripts, sell scripts, marketplace, tools">
  <link rel="canonical" href="{{.CanonicalURL}}">
  <meta property="og:type" content="article">
  <meta property="og:title" content="{{.Title}}">
  <meta property="og:description" content="{{.OGDescription}}">
  <meta property="og:url" content="{{.CanonicalURL}}">
{{- if .PreviewImage}}
  <meta property="og:image" content="{{.PreviewImage}}">
{{- end}}
</head>
<body>
  <h1>{{.Title}}</h1>
{{- if .Caption}}
  <p>{{.Caption}}</p>
{{- end}}
  <ul>
{{- range .Images}}
    <li><img src="{{.}}" alt="{{$.Title}}" loading="lazy"></li>
{{- end}}
  </ul>
{{- if .ChannelURL}}
  <a href="{{.ChannelURL}}">{{.ChannelName}}</a>
{{- end}}
</body>
</html>
`

const indexTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
  <meta name="description" content="{{.Description}}">
  <meta name="keywords" content="scripts, buy scripts, sell scripts, marketplace, tools">
  <link rel="canonical" href="{{.URL}}">
  <meta property="og:type" content="website">
  <meta property="og:title" content="{{.Title}}">
  <meta property="og:description" content="{{.Description}}">
  <meta property="og:url" content="{{.URL}}">
</head>
<body>
  <h1>{{.Title}}</h1>
  <p>Buy, sell, and share scripts and tools for developers.</p>
  <ul>
{{- range .Entries}}
    <li><a href="{{.URL}}">{{.Title}}</a><p>{{.Summary}}</p></li>
{{- end}}
  </ul>
</body>
</html>
`
