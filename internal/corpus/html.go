package corpus

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

var blankURL = &url.URL{Scheme: "file", Path: "/"}

// htmlText extracts the readable text of an HTML page. readability isolates
// the main article; pages it cannot handle fall back to the body text with
// scripts and styles removed.
func htmlText(data []byte) (string, error) {
	parser := readability.NewParser()
	if article, err := parser.Parse(bytes.NewReader(data), blankURL); err == nil && article.Content != "" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
		if err == nil {
			if text := strings.TrimSpace(doc.Text()); text != "" {
				return text, nil
			}
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	doc.Find("script,style,noscript").Remove()
	return strings.TrimSpace(doc.Find("body").Text()), nil
}
