// Package i18n picks between the German and English texts the app speaks.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// Lang is a supported user language.
type Lang string

const (
	German  Lang = "de"
	English Lang = "en"
)

// Default is used when nothing better is known. The app targets German
// apprentices.
const Default = German

var matcher = language.NewMatcher([]language.Tag{language.German, language.English})

// Parse maps a configured language code ("de", "en-GB", ...) to a Lang.
func Parse(s string) Lang {
	s = strings.TrimSpace(s)
	if s == "" {
		return Default
	}
	tag, err := language.Parse(s)
	if err != nil {
		return Default
	}
	return Match(tag.String())
}

// Match picks the best Lang for an Accept-Language header value.
func Match(acceptLanguage string) Lang {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	if idx == 1 {
		return English
	}
	return German
}

// Key identifies a localized message.
type Key int

const (
	ReportFailed Key = iota
	NoSchool
	NoTasksListed
	NoFilesStored
	StatusDone
	StatusOpen
	MissingKey
)

var messages = map[Key][2]string{
	ReportFailed:  {"Fehler bei der Erstellung.", "Report generation failed."},
	NoSchool:      {"Keine Berufsschule", "No vocational school"},
	NoTasksListed: {"Keine Aufgaben gelistet.", "No tasks listed."},
	NoFilesStored: {"Keine Dateien gespeichert.", "No files stored."},
	StatusDone:    {"Erledigt", "Done"},
	StatusOpen:    {"Offen", "Pending"},
	MissingKey:    {"Kein API-Schlüssel hinterlegt. Bitte in den Einstellungen setzen.", "No API key available. Please set one in Settings."},
}

// T returns the message for k in l.
func (l Lang) T(k Key) string {
	m, ok := messages[k]
	if !ok {
		return ""
	}
	if l == English {
		return m[1]
	}
	return m[0]
}
