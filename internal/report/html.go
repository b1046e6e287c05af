package report

import (
	"bytes"
	"html"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// ToHTML converts Markdown to an HTML fragment. Raw HTML in the input is
// dropped.
func ToHTML(md []byte) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	r := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags | mdhtml.SkipHTML})
	return markdown.ToHTML(md, p, r)
}

const pageStyle = `body{font-family:system-ui,sans-serif;max-width:960px;margin:2rem auto;padding:0 1rem;color:#1f2933}
table{border-collapse:collapse;margin:1rem 0}th,td{border:1px solid #cbd2d9;padding:.35rem .7rem;text-align:left}
th{background:#f5f7fa}code{background:#f5f7fa;padding:0 .2rem}`

// HTML renders a as a standalone HTML page.
func HTML(md []byte, meta Meta) []byte {
	var b bytes.Buffer
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\"><head><meta charset=\"utf-8\"><title>")
	b.WriteString(html.EscapeString(meta.title()))
	b.WriteString("</title><style>")
	b.WriteString(pageStyle)
	b.WriteString("</style></head><body>\n")
	b.Write(ToHTML(md))
	b.WriteString("</body></html>\n")
	return b.Bytes()
}
