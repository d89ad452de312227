package render

import "html/template"

const fragmentTemplates = `
{{define "result"}}<div class="result-card mb-4" data-kind="{{.Kind}}">
<h5 class="result-heading">Results for: {{.Heading}}</h5>
{{- with .Body}}{{template "body" .}}{{end}}
</div>{{end}}

{{define "body"}}
{{- if eq .Kind "object_detection"}}{{template "detection" .}}
{{- else if eq .Kind "classification"}}{{template "classification" .}}
{{- else if eq .Kind "text_extraction"}}{{template "text" .}}
{{- else if eq .Kind "sentiment"}}{{template "sentiment" .}}
{{- else if eq .Kind "general"}}{{template "general" .}}
{{- else if eq .Kind "text_to_image"}}{{template "image" .}}
{{- end}}{{if .ChartURL}}
<a class="chart-link" href="{{.ChartURL}}" target="_blank">View chart</a>{{end}}{{end}}

{{define "detection"}}
<ul class="list-group detections">{{range .Rows}}
<li class="list-group-item d-flex justify-content-between align-items-center">{{.Label}} <span class="badge {{.Badge}}">{{.Percent}}</span></li>{{end}}
</ul>{{end}}

{{define "classification"}}
<div class="classifications">{{range .Rows}}
<div class="classification-row mb-2">
<div class="d-flex justify-content-between"><span>{{.Label}}</span><span>{{.Percent}}</span></div>
<div class="progress"><div class="progress-bar {{.Badge}}" role="progressbar" style="{{.Width}}"></div></div>
</div>{{end}}
</div>{{end}}

{{define "text"}}{{if .Printed}}
<div class="extracted-text"><h6>Printed Text</h6><pre>{{.Printed}}</pre></div>{{end}}{{if .Handwritten}}
<div class="extracted-text"><h6>Handwritten Text</h6><pre>{{.Handwritten}}</pre></div>{{end}}{{end}}

{{define "sentiment"}}
<span class="badge {{.Badge}} sentiment">{{.Label}}{{if .Confidence}} ({{.Confidence}}){{end}}</span>{{end}}

{{define "general"}}{{range .Paragraphs}}
<p>{{.}}</p>{{end}}{{end}}

{{define "image"}}{{if .Src}}
<img class="img-fluid generated-image" src="{{.Src}}" alt="Generated image">{{end}}{{end}}
`

var templates = template.Must(template.New("fragments").Parse(fragmentTemplates))
