package transform

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// DatetimeLayout is the format of datetime columns in the target schema.
const DatetimeLayout = "2006-01-02 15:04:05"

var (
	strictPolicy = bluemonday.StrictPolicy()
	ugcPolicy    = bluemonday.UGCPolicy()

	octetPattern      = regexp.MustCompile(`%[a-fA-F0-9]{2}`)
	lineSpacePattern  = regexp.MustCompile(`[\r\n\t ]+`)
	emailLocalInvalid = regexp.MustCompile("[^a-zA-Z0-9!#$%&'*+/=?^_`{|}~.-]")
	domainInvalid     = regexp.MustCompile(`[^a-zA-Z0-9-]`)
	schemePattern     = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)
	urlInvalid        = regexp.MustCompile(`[^a-zA-Z0-9\-~+_.?#=!&;,/:%@$|*'()\[\]\x{80}-\x{10FFFF}]`)
)

var allowedSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"mailto": true,
	"ftp":    true,
	"ftps":   true,
	"tel":    true,
}

// Text strips markup, removes line breaks and collapses whitespace.
func Text(s string) string {
	s = stripTags(s)
	s = octetPattern.ReplaceAllString(s, "")
	s = lineSpacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Textarea strips markup but keeps line breaks.
func Textarea(s string) string {
	s = stripTags(s)
	s = octetPattern.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.TrimSpace(s)
}

// RichText keeps a restricted subset of HTML.
func RichText(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	return strings.TrimSpace(ugcPolicy.Sanitize(s))
}

// Email returns a cleaned address, or "" when s is not a plausible address.
func Email(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 6 {
		return ""
	}
	at := strings.Index(s, "@")
	if at < 1 || strings.Count(s, "@") != 1 {
		return ""
	}
	local, domain := s[:at], s[at+1:]

	local = emailLocalInvalid.ReplaceAllString(local, "")
	if local == "" {
		return ""
	}

	domain = strings.Trim(domain, " \t\n\r\x00\x0B.")
	if strings.Contains(domain, "..") {
		return ""
	}
	subs := strings.Split(domain, ".")
	if len(subs) < 2 {
		return ""
	}
	cleaned := make([]string, 0, len(subs))
	for _, sub := range subs {
		sub = strings.Trim(sub, " \t\n\r\x00\x0B-")
		sub = domainInvalid.ReplaceAllString(sub, "")
		if sub != "" {
			cleaned = append(cleaned, sub)
		}
	}
	if len(cleaned) < 2 {
		return ""
	}
	return local + "@" + strings.Join(cleaned, ".")
}

// URL prepends http:// to scheme-less absolute-looking values and returns
// "" for schemes outside the allow list.
func URL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, " ", "%20")
	s = urlInvalid.ReplaceAllString(s, "")
	if s == "" {
		return ""
	}

	relative := strings.HasPrefix(s, "/") || strings.HasPrefix(s, "#") || strings.HasPrefix(s, "?")
	if !relative && !hasScheme(s) {
		s = "http://" + s
	}

	if relative {
		return s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	if !allowedSchemes[strings.ToLower(u.Scheme)] {
		return ""
	}
	return s
}

// StatusVerified maps an account status to the verified flag.
func StatusVerified(status string) int {
	if status == "approved" {
		return 1
	}
	return 0
}

// TimestampDatetime formats a Unix timestamp as a UTC datetime. Empty,
// zero and non-numeric input yield nil.
func TimestampDatetime(value interface{}) interface{} {
	var secs int64
	switch v := value.(type) {
	case nil:
		return nil
	case int:
		secs = int64(v)
	case int64:
		secs = v
	case float64:
		secs = int64(v)
	default:
		s := strings.TrimSpace(toString(v))
		if s == "" {
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil {
				return nil
			}
			n = int64(f)
		}
		secs = n
	}
	if secs == 0 {
		return nil
	}
	return time.Unix(secs, 0).UTC().Format(DatetimeLayout)
}

// maxStripPasses bounds how many layers of entity encoding are peeled.
const maxStripPasses = 5

// stripTags removes markup and decodes entities. Decoding can expose
// encoded tags, so it repeats until the value is stable; a value that is
// still changing after maxStripPasses keeps the policy's escaped output.
func stripTags(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	for i := 0; i < maxStripPasses; i++ {
		next := html.UnescapeString(strictPolicy.Sanitize(s))
		if next == s {
			return s
		}
		s = next
	}
	return strictPolicy.Sanitize(s)
}

// hasScheme treats "host.tld:..." and "host:8080" as scheme-less.
func hasScheme(s string) bool {
	m := schemePattern.FindString(s)
	if m == "" {
		return false
	}
	scheme := m[:len(m)-1]
	if allowedSchemes[strings.ToLower(scheme)] {
		return true
	}
	if strings.Contains(scheme, ".") {
		return false
	}
	rest := s[len(m):]
	if rest != "" && rest[0] >= '0' && rest[0] <= '9' {
		return false
	}
	return true
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
