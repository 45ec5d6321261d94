package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// Title returns the first <title> element's text from raw HTML, or ""
// when none exists. Used as a fallback when the page's document.title
// could not be evaluated.
func Title(rawHTML string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(rawHTML))
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "title" {
				if tokenizer.Next() == html.TextToken {
					return strings.TrimSpace(string(tokenizer.Text()))
				}
				return ""
			}
		}
	}
}
