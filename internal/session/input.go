package session

import "github.com/dshills/storebot/pkg/types"

// InputKind tags what the user supplied for the current step.
type InputKind string

const (
	InputText   InputKind = "text"
	InputImage  InputKind = "image"
	InputSelect InputKind = "select"
	InputSkip   InputKind = "skip"
	InputCancel InputKind = "cancel"
)

// Input is one unit of user input routed into an active flow. The
// transport maps its own message/button events onto these variants.
type Input struct {
	Kind     InputKind
	Text     string // InputText
	ImageRef string // InputImage
	Caption  string // InputImage, may be empty
	Choice   string // InputSelect payload
}

// TextInput wraps a free-text message.
func TextInput(text string) Input { return Input{Kind: InputText, Text: text} }

// ImageInput wraps an image reference with an optional caption.
func ImageInput(ref, caption string) Input {
	return Input{Kind: InputImage, ImageRef: ref, Caption: caption}
}

// SelectInput wraps a button selection payload.
func SelectInput(choice string) Input { return Input{Kind: InputSelect, Choice: choice} }

// SkipInput is the explicit skip signal for optional steps.
func SkipInput() Input { return Input{Kind: InputSkip} }

// CancelInput discards the active flow.
func CancelInput() Input { return Input{Kind: InputCancel} }

// Option is a selectable choice offered alongside a prompt. Value is the
// payload the transport hands back in a select Input.
type Option struct {
	Label string
	Value string
}

// Outcome tells the transport what to render after applying an input.
// A zero-kind Prompt means nothing to show (the flow's side effects
// already produced the user-visible messages).
type Outcome struct {
	Prompt  types.Content
	Options []Option
	Done    bool
}

func prompt(text string, options ...Option) Outcome {
	return Outcome{Prompt: types.TextContent(text), Options: options}
}

func done(text string) Outcome {
	if text == "" {
		return Outcome{Done: true}
	}
	return Outcome{Prompt: types.TextContent(text), Done: true}
}
