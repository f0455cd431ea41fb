// Package extract turns HTML pages and fragments into plain post text.
//
// Three entry points cover the common shapes of input:
//
//   - Text flattens any HTML fragment (an exported post body, a saved comment)
//   - Article runs readability first and keeps only the page's main content
//   - Posts splits a page into one text per element matching a CSS selector
//
// <br> elements become spaces, matching how the normalization pipeline treats
// raw <br> markup, and block elements end a line.
package extract

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// elements whose text never belongs to a post
const dropSelector = "script, style, noscript, template, iframe"

// elements that end a line of text
const blockSelector = "p, div, li, tr, blockquote, pre, h1, h2, h3, h4, h5, h6, article, section"

// Text parses an HTML fragment or page and returns its visible text, one
// line per block element, whitespace collapsed.
func Text(content io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(content)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	return selectionText(doc.Selection), nil
}

// Article extracts the main content of a web page with readability and
// returns it as plain text. baseURL may be nil.
func Article(content io.Reader, baseURL *url.URL) (string, error) {
	if baseURL == nil {
		baseURL = &url.URL{}
	}

	article, err := readability.FromReader(content, baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to extract main content: %w", err)
	}
	slog.Debug("readability extraction", "title", article.Title, "length", article.Length)

	return Text(strings.NewReader(article.Content))
}

// Posts returns the text of every element matching selector, skipping
// elements with no text. A selector that matches nothing is an error.
func Posts(content io.Reader, selector string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	// invalid selectors match nothing
	selection := doc.Find(selector)
	if selection.Length() == 0 {
		return nil, fmt.Errorf("no elements found matching selector: %s", selector)
	}

	posts := make([]string, 0, selection.Length())
	selection.Each(func(_ int, s *goquery.Selection) {
		if text := selectionText(s); text != "" {
			posts = append(posts, text)
		}
	})
	return posts, nil
}

func selectionText(s *goquery.Selection) string {
	s = s.Clone()
	s.Find(dropSelector).Remove()
	s.Find("br").ReplaceWithHtml(" ")
	s.Find(blockSelector).AppendHtml("\n")

	var lines []string
	for _, line := range strings.Split(s.Text(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
