// Package extract turns rendered page HTML into the text content returned
// by the API. Extraction is a pluggable strategy: the default
// implementation runs readability first and falls back to a whole-page
// conversion when readability cannot locate a main article.
package extract

import (
	"log/slog"
	nurl "net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/gatherkit/gather/models"
)

// Output formats accepted by Extract.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// minContentLength is the minimum extracted text length (in characters)
// for readability output to be considered valid. Below this threshold we
// assume the algorithm failed to locate the main content and fall back to
// whole-page conversion.
const minContentLength = 200

// Extraction is the output of an Extractor.
type Extraction struct {
	// Title is the article title found during extraction.
	// Empty when the fallback path was used.
	Title string

	// Content is the extracted content in the requested format.
	Content string
}

// Extractor converts rendered HTML into result content.
type Extractor interface {
	Extract(rawHTML, sourceURL, format string) (Extraction, error)
}

// Readability is the default Extractor: a two-stage pipeline that runs
// the Mozilla Readability algorithm and, when it produces too little
// text, converts the whole page instead.
//
// The markdown converter is created once and reused across all requests
// (goroutine-safe).
type Readability struct {
	mdConverter *converter.Converter
}

// NewReadability creates the default extractor.
func NewReadability() *Readability {
	return &Readability{
		mdConverter: newMarkdownConverter(),
	}
}

// Extract runs the pipeline.
//
// Flow:
//  1. Readability extracts the main article from the rendered HTML.
//  2. If extraction fails or yields fewer than 200 characters of text,
//     fall back to converting the full page (stripping chrome like
//     cookie banners and skip-links line by line).
//  3. Render the chosen content in the requested format.
func (r *Readability) Extract(rawHTML, sourceURL, format string) (Extraction, error) {
	article, ok := extractArticle(rawHTML, sourceURL)
	if !ok {
		return r.fallback(rawHTML, sourceURL, format)
	}

	switch format {
	case FormatHTML:
		return Extraction{Title: article.Title, Content: article.Content}, nil
	case FormatMarkdown:
		md, err := r.toMarkdown(article.Content, sourceURL)
		if err != nil {
			return Extraction{}, models.NewScrapeError(
				models.ErrCodeExtraction,
				"markdown conversion failed",
				err,
			)
		}
		return Extraction{Title: article.Title, Content: md}, nil
	default: // FormatText
		return Extraction{
			Title:   article.Title,
			Content: strings.TrimSpace(article.TextContent),
		}, nil
	}
}

// fallback converts the whole rendered page when readability found no
// usable article. Junk lines (cookie prompts, skip-links, legal
// boilerplate) are dropped so the output stays useful for indexing.
func (r *Readability) fallback(rawHTML, sourceURL, format string) (Extraction, error) {
	switch format {
	case FormatHTML:
		return Extraction{Content: rawHTML}, nil
	case FormatMarkdown:
		md, err := r.toMarkdown(rawHTML, sourceURL)
		if err != nil {
			return Extraction{}, models.NewScrapeError(
				models.ErrCodeExtraction,
				"markdown conversion failed",
				err,
			)
		}
		return Extraction{Content: cleanLines(md)}, nil
	default:
		return Extraction{Content: cleanLines(stripTags(rawHTML))}, nil
	}
}

func (r *Readability) toMarkdown(htmlContent, sourceURL string) (string, error) {
	return r.mdConverter.ConvertString(htmlContent, converter.WithDomain(sourceURL))
}

// extractArticle runs readability on rawHTML. The second return value is
// false when the caller should use the fallback path instead.
func extractArticle(rawHTML, sourceURL string) (readability.Article, bool) {
	parsedURL, err := nurl.Parse(sourceURL)
	if err != nil {
		slog.Warn("readability: invalid source URL, using whole-page fallback",
			"url", sourceURL, "error", err,
		)
		return readability.Article{}, false
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		slog.Warn("readability: extraction failed, using whole-page fallback",
			"url", sourceURL, "error", err,
		)
		return readability.Article{}, false
	}

	if len(strings.TrimSpace(article.TextContent)) < minContentLength {
		slog.Debug("readability: extracted content too short, using whole-page fallback",
			"url", sourceURL, "length", len(article.TextContent),
		)
		return readability.Article{}, false
	}

	return article, true
}

// cleanLines drops common page-chrome lines from fallback output.
func cleanLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" || len(stripped) < 3 {
			continue
		}
		lower := strings.ToLower(stripped)
		if strings.HasPrefix(stripped, "Skip to") ||
			strings.HasPrefix(stripped, "Cookie") ||
			strings.HasPrefix(stripped, "Accept all") ||
			strings.Contains(lower, "privacy policy") ||
			strings.Contains(lower, "terms of service") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// stripTags extracts visible text from an HTML fragment by parsing it
// with goquery. Returns the input untouched if parsing fails.
func stripTags(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	doc.Find("script, style, noscript").Remove()
	return strings.TrimSpace(doc.Text())
}
