package normalize

import (
	"log/slog"
	"regexp"
)

// linkPattern matches URLs and bare dotted names ("notes.txt", "example.com").
var linkPattern = regexp.MustCompile(`https?://\S+|ftp://\S+|www\.\S+|(?:\b\w+\.\w+\b)`)

// videoLinkPattern recognises video-sharing links. It is anchored at the
// start of the link.
var videoLinkPattern = regexp.MustCompile(
	`^(?:https?://)?(?:www\.)?` +
		`(?:youtube\.com/(?:watch\?v=|channel/|playlist\?list=)|youtu\.be/)` +
		`[a-zA-Z0-9_-]{11}`)

// LinkKind classifies an extracted link.
type LinkKind string

const (
	LinkUnknown LinkKind = ""
	LinkVideo   LinkKind = "video"
)

// LinkClassifier receives every link stripped from document text.
type LinkClassifier interface {
	ClassifyLink(link string) LinkKind
}

// ExtractLinks returns the links found in text and the text with them removed.
func ExtractLinks(text string) ([]string, string) {
	links := linkPattern.FindAllString(text, -1)
	if len(links) == 0 {
		return nil, text
	}
	return links, linkPattern.ReplaceAllLiteralString(text, "")
}

// LoggingClassifier recognises known link kinds and logs them.
type LoggingClassifier struct {
	Logger *slog.Logger
}

// ClassifyLink implements LinkClassifier.
func (c LoggingClassifier) ClassifyLink(link string) LinkKind {
	if !videoLinkPattern.MatchString(link) {
		return LinkUnknown
	}
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("link_found",
		slog.String("kind", string(LinkVideo)),
		slog.String("link", link))
	return LinkVideo
}
