package compilers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"

	"github.com/GriffinCanCode/ctxrequire/pkg/module"
)

// ErrBinary is returned when the text compiler is given a binary file.
var ErrBinary = errors.New("not a text file")

// Text returns a handler that exports the file's contents as a string.
// Content that is not valid UTF-8 is transcoded from its detected charset.
func Text() module.ExtensionHandler {
	return func(m *module.Module, filename string) error {
		data, err := readFile(filename)
		if err != nil {
			return err
		}

		mtype := mimetype.Detect(data)
		if !IsText(mtype) {
			return fmt.Errorf("%s: %w (%s)", filename, ErrBinary, mtype.String())
		}

		text, err := decode(data)
		if err != nil {
			return fmt.Errorf("%s: %w", filename, err)
		}
		m.SetExports(text)
		return nil
	}
}

// IsText reports whether mtype describes textual content
func IsText(mtype *mimetype.MIME) bool {
	for t := mtype; t != nil; t = t.Parent() {
		if strings.HasPrefix(t.String(), "text/") {
			return true
		}
	}
	return mtype.Is("application/json") ||
		mtype.Is("application/xml") ||
		mtype.Is("application/javascript")
}

// DetectCharset returns the lower-cased charset name of data
func DetectCharset(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

func decode(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}

	r, err := charset.NewReader(bytes.NewReader(data), "text/plain; charset="+DetectCharset(data))
	if err != nil {
		return "", err
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
