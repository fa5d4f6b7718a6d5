package htmlutil

import (
	"bytes"
	"context"
	"diningsync/lib/textutil"
	"io"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("diningsync/lib/htmlutil")

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// SelectText parses an HTML document and returns the cleaned text of every
// element matching selector, empty matches are dropped.
func SelectText(ctx context.Context, body io.Reader, selector string) ([]string, error) {
	_, span := tracer.Start(ctx, "SelectText")
	defer span.End()
	span.SetAttributes(attribute.String("selector", selector))

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return nil, err
	}

	texts := []string{}
	for _, n := range doc.Find(selector).Nodes {
		text := textutil.CleanText(removeNonPrintable(GetText(n)))
		if text == "" {
			continue
		}
		texts = append(texts, text)
	}
	span.SetAttributes(attribute.Int("matches", len(texts)))
	return texts, nil
}
