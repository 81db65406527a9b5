package markdown

import "github.com/russross/blackfriday"

// ToHTML renders markdown to render-ready HTML.
func ToHTML(md string) string {
	return string(blackfriday.MarkdownCommon([]byte(md)))
}
