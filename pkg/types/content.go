package types

// ContentKind discriminates the message content variant.
type ContentKind string

const (
	ContentText  ContentKind = "text"
	ContentImage ContentKind = "image"
)

// Content is an outbound message: either plain text or an image reference
// with a caption. The transport decides how each variant is rendered.
type Content struct {
	Kind     ContentKind
	Text     string // body for text content, unused for images
	ImageRef string // opaque image handle for image content
	Caption  string // caption for image content
}

// TextContent builds a text message.
func TextContent(body string) Content {
	return Content{Kind: ContentText, Text: body}
}

// ImageContent builds an image-with-caption message.
func ImageContent(imageRef, caption string) Content {
	return Content{Kind: ContentImage, ImageRef: imageRef, Caption: caption}
}
