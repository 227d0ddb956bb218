package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys registered with the x/text catalog.
const (
	keyGenericTitle        = "notification.generic.title"
	keyGenericBody         = "notification.generic.body"
	keyGenericEmailSubject = "notification.generic.email_subject"
	keyTurnReadySubject    = "notification.turn_ready.email_subject"
	keyFooter              = "notification.footer"
)

var translations = map[language.Tag]map[string]string{
	language.English: {
		keyGenericTitle:        defaultGenericTitle,
		keyGenericBody:         defaultGenericBody,
		keyGenericEmailSubject: defaultGenericEmailSubject,
		keyTurnReadySubject:    defaultTurnReadySubject,
		keyFooter:              defaultFooter,
	},
	language.BrazilianPortuguese: {
		keyGenericTitle:        "Notificação",
		keyGenericBody:         "Você tem uma nova notificação.",
		keyGenericEmailSubject: "Notificação do Carcassonne",
		keyTurnReadySubject:    "Sua vez!",
		keyFooter:              "Você recebe estes emails porque joga Carcassonne.",
	},
}

func init() {
	for tag, entries := range translations {
		for key, text := range entries {
			if err := message.SetString(tag, key, text); err != nil {
				panic(err)
			}
		}
	}
}
