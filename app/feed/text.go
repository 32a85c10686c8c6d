package feed

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	tagPattern        = regexp.MustCompile(`(?s)<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	numericEntity     = regexp.MustCompile(`&#(\d{1,7});`)
	hexEntity         = regexp.MustCompile(`(?i)&#x([0-9a-f]{1,6});`)
)

var namedEntities = strings.NewReplacer(
	"&nbsp;", " ",
	"&quot;", `"`,
	"&apos;", "'",
	"&lt;", "<",
	"&gt;", ">",
	"&ndash;", "–",
	"&mdash;", "—",
	"&lsquo;", "‘",
	"&rsquo;", "’",
	"&ldquo;", "“",
	"&rdquo;", "”",
	"&laquo;", "«",
	"&raquo;", "»",
	"&hellip;", "…",
	"&euml;", "ë",
	"&Euml;", "Ë",
	"&ccedil;", "ç",
	"&Ccedil;", "Ç",
	"&uuml;", "ü",
	"&Uuml;", "Ü",
	"&ouml;", "ö",
	"&Ouml;", "Ö",
	"&auml;", "ä",
	"&Auml;", "Ä",
	"&eacute;", "é",
	"&Eacute;", "É",
	"&egrave;", "è",
	"&copy;", "©",
	"&reg;", "®",
	"&trade;", "™",
)

// decodeEntities resolves numeric, hexadecimal and the known named entities.
// &amp; goes last so "&amp;lt;" decodes once, to "&lt;".
func decodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}

	s = numericEntity.ReplaceAllStringFunc(s, func(m string) string {
		n, err := strconv.Atoi(m[2 : len(m)-1])
		if err != nil || !utf8.ValidRune(rune(n)) {
			return m
		}
		return decodedRune(rune(n))
	})
	s = hexEntity.ReplaceAllStringFunc(s, func(m string) string {
		n, err := strconv.ParseInt(m[3:len(m)-1], 16, 32)
		if err != nil || !utf8.ValidRune(rune(n)) {
			return m
		}
		return decodedRune(rune(n))
	})
	s = namedEntities.Replace(s)

	return strings.ReplaceAll(s, "&amp;", "&")
}

func decodedRune(r rune) string {
	if r == '\u00a0' {
		return " "
	}
	return string(r)
}

// basicEntities decodes only the five entities escaped in attribute values.
var basicEntities = strings.NewReplacer(
	"&quot;", `"`,
	"&#39;", "'",
	"&lt;", "<",
	"&gt;", ">",
	"&amp;", "&",
)

func stripTags(s string) string {
	return tagPattern.ReplaceAllString(s, " ")
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

// plainText turns an HTML fragment into a single line of text.
func plainText(s string) string {
	return collapseWhitespace(decodeEntities(stripTags(s)))
}

func lower(s string) string {
	return cases.Lower(language.Albanian).String(s)
}

// normalizeTitle builds the comparison key for titles: NFC, lowercase,
// punctuation removed, whitespace collapsed, at most 100 runes.
func normalizeTitle(title string) string {
	title = lower(norm.NFC.String(title))

	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}

	return truncateRunes(collapseWhitespace(b.String()), 100)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// containsWord reports whether word occurs in text with no letter or digit
// directly before or after it. Both arguments are expected lowercased.
func containsWord(text, word string) bool {
	if word == "" {
		return false
	}

	for offset := 0; offset <= len(text)-len(word); {
		i := strings.Index(text[offset:], word)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(word)

		before, _ := utf8.DecodeLastRuneInString(text[:start])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if (start == 0 || !isWordRune(before)) && (end == len(text) || !isWordRune(after)) {
			return true
		}

		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}

	return false
}
