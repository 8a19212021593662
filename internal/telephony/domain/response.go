package domain

// DirectiveKind enumerates the closed set of reply directive variants.
type DirectiveKind string

const (
	DirectiveReject   DirectiveKind = "reject"
	DirectiveSay      DirectiveKind = "say"
	DirectivePlay     DirectiveKind = "play"
	DirectiveRedirect DirectiveKind = "redirect"
	DirectiveSendSMS  DirectiveKind = "send_sms"
)

// Directive is one instruction in a canonical reply. Text is set for Say and
// SendSMS, URL for Play and Redirect.
type Directive struct {
	Kind DirectiveKind
	Text string
	URL  string
}

func Reject() Directive              { return Directive{Kind: DirectiveReject} }
func Say(text string) Directive      { return Directive{Kind: DirectiveSay, Text: text} }
func Play(url string) Directive      { return Directive{Kind: DirectivePlay, URL: url} }
func Redirect(url string) Directive  { return Directive{Kind: DirectiveRedirect, URL: url} }
func SendSMS(text string) Directive  { return Directive{Kind: DirectiveSendSMS, Text: text} }

// Response is an ordered sequence of directives. Adapters must render the
// directives in the given order. An empty Response is a valid no-op reply;
// carriers that require some well-formed document still get an empty one.
type Response []Directive
