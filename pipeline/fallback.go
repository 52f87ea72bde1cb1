package pipeline

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hivecare/carelog/records"
	"github.com/hivecare/carelog/sections"
	"github.com/hivecare/carelog/store"
)

// fallbackParser produces overflow pairs for messages no template claims.
// Text bodies go through the generic label heuristic; HTML bodies are
// sanitized and rendered to markdown so the content stays reviewable.
type fallbackParser struct {
	sanitizer   *bluemonday.Policy
	mdConverter *converter.Converter
}

func newFallbackParser() *fallbackParser {
	return &fallbackParser{
		sanitizer: bluemonday.UGCPolicy(),
		mdConverter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

func (f *fallbackParser) pairs(msg *store.Message) []records.Pair {
	var out []records.Pair
	if msg.Subject != "" {
		out = append(out, records.Pair{Label: "subject", Value: msg.Subject})
	}

	switch {
	case msg.BodyHTML != "":
		md, err := f.mdConverter.ConvertString(f.sanitizer.Sanitize(msg.BodyHTML))
		if err != nil || strings.TrimSpace(md) == "" {
			// Last resort: keep the sanitized HTML text as-is.
			md = f.sanitizer.Sanitize(msg.BodyHTML)
		}
		if strings.TrimSpace(md) != "" {
			out = append(out, records.Pair{Label: "body_markdown", Value: strings.TrimSpace(md)})
		}
	case msg.BodyText != "":
		for _, s := range sections.Parse(msg.BodyText, nil) {
			out = append(out, records.Pair{Label: s.Label, Value: s.Value})
		}
	}
	return out
}
