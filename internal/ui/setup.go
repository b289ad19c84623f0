package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/josephgoksu/azubihub/internal/llm"
	"github.com/josephgoksu/azubihub/internal/validation"
)

// SetupValues are collected by the first-run form.
type SetupValues struct {
	Name      string
	Email     string
	Provider  string
	APIKey    string
	Telemetry bool
}

// NewSetupForm builds the first-run form writing into v.
func NewSetupForm(v *SetupValues) *huh.Form {
	if v.Provider == "" {
		v.Provider = llm.DefaultProvider
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&v.Name),
			huh.NewInput().Title("E-Mail").
				Description("Dein Konto für Aufgaben und Berichte").
				Validate(validateEmail).
				Value(&v.Email),
		),
		huh.NewGroup(
			huh.NewSelect[string]().Title("KI-Anbieter").
				Options(
					huh.NewOption("Google Gemini", llm.ProviderGemini),
					huh.NewOption("OpenAI", llm.ProviderOpenAI),
					huh.NewOption("Anthropic", llm.ProviderAnthropic),
					huh.NewOption("Ollama (lokal)", llm.ProviderOllama),
				).
				Value(&v.Provider),
			huh.NewInput().Title("API-Schlüssel").
				Description("Leer lassen für Ollama oder Umgebungsvariable").
				EchoMode(huh.EchoModePassword).
				Value(&v.APIKey),
		),
		huh.NewGroup(
			huh.NewConfirm().Title("Anonyme Nutzungsstatistiken senden?").
				Affirmative("Ja").
				Negative("Nein").
				Value(&v.Telemetry),
		),
	)
}

// RunSetup shows the form on the terminal.
func RunSetup(v *SetupValues) error {
	return NewSetupForm(v).Run()
}

func validateEmail(s string) error {
	v := struct {
		Email string `validate:"omitempty,email"`
	}{Email: strings.TrimSpace(s)}
	if err := validation.Struct(v); err != nil {
		return errors.New("keine gültige E-Mail-Adresse")
	}
	return nil
}
