package extract

import (
	"strings"
	"testing"
)

const articleHTML = `<!DOCTYPE html>
<html><head><title>Go Concurrency Patterns</title></head>
<body>
<nav><a href="/">Home</a><a href="/about">About</a></nav>
<article>
<h1>Go Concurrency Patterns</h1>
<p>Concurrency is the composition of independently executing computations.
Go provides concurrency features as part of the core language, and this
article walks through the fundamental patterns that make concurrent
programs simple to write and reason about.</p>
<p>Goroutines are lightweight threads managed by the Go runtime. Channels
are typed conduits through which you can send and receive values between
goroutines, giving programs a way to communicate instead of sharing
memory. Together they form the backbone of idiomatic concurrent Go.</p>
</article>
<footer>Privacy Policy | Terms of Service</footer>
</body></html>`

const shellHTML = `<!DOCTYPE html>
<html><head><title>App</title></head>
<body><div id="root">Loading</div></body></html>`

func TestExtractText(t *testing.T) {
	ex := NewReadability()

	out, err := ex.Extract(articleHTML, "https://example.com/article", FormatText)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(out.Content, "Goroutines are lightweight threads") {
		t.Errorf("content missing article body: %q", out.Content)
	}
	if strings.Contains(out.Content, "About") {
		t.Errorf("content should not include navigation links: %q", out.Content)
	}
}

func TestExtractMarkdown(t *testing.T) {
	ex := NewReadability()

	out, err := ex.Extract(articleHTML, "https://example.com/article", FormatMarkdown)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(out.Content, "Concurrency is the composition") {
		t.Errorf("markdown missing article body: %q", out.Content)
	}
}

func TestExtractHTML(t *testing.T) {
	ex := NewReadability()

	out, err := ex.Extract(articleHTML, "https://example.com/article", FormatHTML)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(out.Content, "<p>") {
		t.Errorf("html format should keep markup: %q", out.Content)
	}
}

// A near-empty SPA shell has too little text for readability, so the
// whole-page fallback must kick in instead of returning an error.
func TestExtractFallbackOnShortContent(t *testing.T) {
	ex := NewReadability()

	out, err := ex.Extract(shellHTML, "https://example.com/", FormatText)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(out.Content, "Loading") {
		t.Errorf("fallback should keep visible text: %q", out.Content)
	}
}

func TestExtractInvalidSourceURL(t *testing.T) {
	ex := NewReadability()

	if _, err := ex.Extract(articleHTML, "://not-a-url", FormatText); err != nil {
		t.Fatalf("invalid source URL should fall back, not fail: %v", err)
	}
}

func TestCleanLines(t *testing.T) {
	in := strings.Join([]string{
		"Skip to main content",
		"Cookie settings",
		"Accept all cookies",
		"Read our privacy policy here",
		"ok", // shorter than 3 chars after trim? "ok" is 2 chars, dropped
		"This line survives the cleanup pass.",
	}, "\n")

	got := cleanLines(in)
	if got != "This line survives the cleanup pass." {
		t.Errorf("cleanLines = %q", got)
	}
}

func TestTitle(t *testing.T) {
	if got := Title(articleHTML); got != "Go Concurrency Patterns" {
		t.Errorf("Title = %q", got)
	}
	if got := Title("<p>no title here</p>"); got != "" {
		t.Errorf("Title on titleless HTML = %q, want empty", got)
	}
}

func TestStripTags(t *testing.T) {
	got := stripTags(`<div><script>var x = 1;</script><p>visible</p></div>`)
	if !strings.Contains(got, "visible") {
		t.Errorf("stripTags lost visible text: %q", got)
	}
	if strings.Contains(got, "var x") {
		t.Errorf("stripTags kept script body: %q", got)
	}
}
