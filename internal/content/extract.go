package content

import (
	"errors"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// WholeWord compiles a case-insensitive whole-word matcher for the given
// terms. regexp's \b only understands ASCII word characters, so Cyrillic
// terms get explicit non-letter boundaries instead.
func WholeWord(terms ...string) (*regexp.Regexp, error) {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(t)))
		}
	}
	if len(quoted) == 0 {
		return nil, errors.New("whole-word pattern needs at least one term")
	}
	pat := `(?i)(?:\A|[^\p{L}\p{N}_])(?:` + strings.Join(quoted, "|") + `)(?:\z|[^\p{L}\p{N}_])`
	return regexp.Compile(pat)
}

// StripTags flattens an HTML fragment to its text content. Plain strings
// pass through untouched apart from whitespace trimming.
func StripTags(s string) string {
	if !strings.ContainsRune(s, '<') {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(doc.Text())
}

// ExtractPost turns one channel message into an Article.
//
// The formatted (HTML) rendition, when present, carries the markup hints:
// the first bold span is the title and emphasis spans matching deny are
// promotional inserts that get stripped before splitting. Without markup the
// first-sentence heuristic on the plain text applies. Posts whose title
// matches deny are dropped entirely, as are posts with no usable title.
func ExtractPost(plain, formatted string, deny *regexp.Regexp) (Article, bool) {
	title, body, link := splitPost(plain, formatted, deny)
	if title == "" {
		return Article{}, false
	}
	if deny != nil && deny.MatchString(title) {
		return Article{}, false
	}
	return NewArticle(title, body, link), true
}

func splitPost(plain, formatted string, deny *regexp.Regexp) (title, body, link string) {
	if formatted != "" {
		if t, b, l, ok := splitFormatted(formatted, deny); ok {
			return t, b, l
		}
	}
	t, b := splitPlain(plain)
	return t, b, ""
}

// splitFormatted parses the HTML rendition of a post: drops promo emphasis
// spans, remembers the first link, and uses the first bold span as title.
func splitFormatted(html string, deny *regexp.Regexp) (title, body, link string, ok bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", "", false
	}

	if deny != nil {
		doc.Find("em, i").Each(func(_ int, s *goquery.Selection) {
			if deny.MatchString(s.Text()) {
				s.Remove()
			}
		})
	}

	if a := doc.Find("a").First(); a.Length() > 0 {
		link, _ = a.Attr("href")
	}

	bold := doc.Find("strong, b").First()
	if bold.Length() == 0 {
		t, b := splitPlain(doc.Text())
		return t, b, link, t != ""
	}

	title = strings.TrimSpace(bold.Text())
	if title == "" {
		return "", "", link, false
	}
	title = strings.TrimSuffix(title, ".") + "."
	bold.Remove()
	body = strings.TrimSpace(doc.Text())
	return title, body, link, true
}

// splitPlain applies the first-sentence heuristic: the title is the first
// line up to and including its first period; everything after is the body.
func splitPlain(text string) (title, body string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}
	first, rest, _ := strings.Cut(text, "\n")
	if dot := strings.Index(first, "."); dot != -1 {
		title = strings.TrimSpace(first[:dot+1])
		body = strings.TrimSpace(strings.TrimSpace(first[dot+1:]) + "\n" + rest)
		return title, body
	}
	return strings.TrimSpace(first), strings.TrimSpace(rest)
}
