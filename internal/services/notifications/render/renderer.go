// Package render turns stored notification payloads into localized copy.
package render

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// TopicTurnReady is the template id for "your turn" notifications.
	TopicTurnReady = "game.turn.ready"

	defaultGenericTitle        = "Notification"
	defaultGenericBody         = "You have a new notification."
	defaultGenericEmailSubject = "Carcassonne notification"
	defaultTurnReadySubject    = "Your turn!"
	defaultFooter              = "You receive these emails because you play Carcassonne."
)

// Channel is where rendered copy is shown.
type Channel string

// ChannelEmail renders copy for email delivery.
const ChannelEmail Channel = "email"

// Input is one stored notification to render for a channel.
type Input struct {
	Topic       string
	PayloadJSON string
	Channel     Channel
}

// Output is the localized copy for one notification.
type Output struct {
	Title        string
	BodyText     string
	EmailSubject string
}

// Localizer looks up catalog messages. *message.Printer satisfies it.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// NewLocalizer returns a printer for locale. Unparseable locales print
// English.
func NewLocalizer(locale string) Localizer {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		tag = language.English
	}
	return message.NewPrinter(tag)
}

// TurnReadyPayload is the JSON stored with a turn notification.
type TurnReadyPayload struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Render returns localized copy for input. Unknown topics and unusable
// payloads get generic copy.
func Render(loc Localizer, input Input) Output {
	t := text{loc: loc}
	if strings.ToLower(strings.TrimSpace(input.Topic)) != TopicTurnReady {
		return t.generic()
	}

	var payload TurnReadyPayload
	if raw := strings.TrimSpace(input.PayloadJSON); raw != "" {
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return t.generic()
		}
	}
	body := strings.TrimSpace(payload.Body)
	if body == "" {
		return t.generic()
	}

	// A catalog translation wins; otherwise keep the sender's subject.
	subject := t.get(keyTurnReadySubject, defaultTurnReadySubject)
	if custom := strings.TrimSpace(payload.Subject); subject == defaultTurnReadySubject && custom != "" {
		subject = custom
	}
	if input.Channel == ChannelEmail {
		body += "\n\n" + t.get(keyFooter, defaultFooter)
	}
	return Output{Title: subject, BodyText: body, EmailSubject: subject}
}

// text resolves catalog keys with a fallback for missing entries.
type text struct {
	loc Localizer
}

func (t text) get(key, fallback string) string {
	if t.loc == nil {
		return fallback
	}
	value := strings.TrimSpace(t.loc.Sprintf(key))
	if value == "" || value == key {
		return fallback
	}
	return value
}

func (t text) generic() Output {
	return Output{
		Title:        t.get(keyGenericTitle, defaultGenericTitle),
		BodyText:     t.get(keyGenericBody, defaultGenericBody),
		EmailSubject: t.get(keyGenericEmailSubject, defaultGenericEmailSubject),
	}
}
