package module

import "strings"

const (
	wrapperHead = "(function (exports, require, module, __filename, __dirname) { "
	wrapperTail = "\n});"
)

// Wrap encloses module source in the CommonJS wrapper function. The head
// shares the first source line, so reported line numbers are unchanged.
func Wrap(content string) string {
	return wrapperHead + content + wrapperTail
}

func stripBOM(content string) string {
	return strings.TrimPrefix(content, "\ufeff")
}

// stripShebang blanks a leading "#!" line but keeps its newline
func stripShebang(content string) string {
	if !strings.HasPrefix(content, "#!") {
		return content
	}
	if i := strings.IndexByte(content, '\n'); i >= 0 {
		return content[i:]
	}
	return ""
}
