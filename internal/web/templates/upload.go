// Package templates holds the HTML components of the converter UI.
package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

// TimeframeChoices are the suggested bar sizes, in minutes.
var TimeframeChoices = []int{1, 3, 5, 15, 30, 60}

// UploadFormData is what the upload page shows.
type UploadFormData struct {
	DefaultSource string
	Timeframe     string
	Error         *Alert
}

// Alert is an error box above the form.
type Alert struct {
	Message string
	Action  string
	Code    string
}

// UploadForm renders the conversion page.
func UploadForm(data UploadFormData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}

		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		p.raw(`<title>Candle CSV Converter</title></head><body>`)
		p.raw(`<main><h1>Convert CSV to JSON</h1>`)

		if data.Error != nil {
			if err := ErrorAlert(data.Error.Message, data.Error.Action, data.Error.Code).Render(ctx, w); err != nil {
				return err
			}
		}

		p.raw(`<form method="post" action="/" enctype="multipart/form-data">`)

		p.raw(`<label for="timeframe">Timeframe (minutes)</label>`)
		p.raw(`<input id="timeframe" name="timeframe" type="number" min="1" required list="timeframes" value="`)
		p.text(data.Timeframe)
		p.raw(`"><datalist id="timeframes">`)
		for _, tf := range TimeframeChoices {
			p.raw(`<option value="` + strconv.Itoa(tf) + `"></option>`)
		}
		p.raw(`</datalist>`)

		p.raw(`<label for="file">CSV file</label>`)
		p.raw(`<input id="file" name="file" type="file" accept=".csv,text/csv">`)

		p.raw(`<label for="source_url">or source URL</label>`)
		p.raw(`<input id="source_url" name="source_url" type="url" placeholder="`)
		if data.DefaultSource != "" {
			p.text(data.DefaultSource)
		} else {
			p.raw(`https://`)
		}
		p.raw(`">`)

		p.raw(`<button type="submit">Convert</button></form></main></body></html>`)
		return p.err
	})
}

// ErrorAlert renders a user-facing error with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<div class="alert" role="alert"><p><strong>`)
		p.text(message)
		p.raw(`</strong></p>`)
		if action != "" {
			p.raw(`<p>`)
			p.text(action)
			p.raw(`</p>`)
		}
		if code != "" {
			p.raw(`<p><small>Code: `)
			p.text(code)
			p.raw(`</small></p>`)
		}
		p.raw(`</div>`)
		return p.err
	})
}

// printer writes until the first error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) raw(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

func (p *printer) text(s string) {
	p.raw(templ.EscapeString(s))
}

// String renders c to a string, for tests and logging.
func String(ctx context.Context, c templ.Component) (string, error) {
	var sb strings.Builder
	if err := c.Render(ctx, &sb); err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	return sb.String(), nil
}
