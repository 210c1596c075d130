package app

import (
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"github.com/ayoisaiah/annotrack/internal/apperr"
)

const asciiLogo = `
 █████╗ ███╗   ██╗███╗   ██╗ ██████╗ ████████╗██████╗  █████╗  ██████╗██╗  ██╗
██╔══██╗████╗  ██║████╗  ██║██╔═══██╗╚══██╔══╝██╔══██╗██╔══██╗██╔════╝██║ ██╔╝
███████║██╔██╗ ██║██╔██╗ ██║██║   ██║   ██║   ██████╔╝███████║██║     █████╔╝
██╔══██║██║╚██╗██║██║╚██╗██║██║   ██║   ██║   ██╔══██╗██╔══██║██║     ██╔═██╗
██║  ██║██║ ╚████║██║ ╚████║╚██████╔╝   ██║   ██║  ██║██║  ██║╚██████╗██║  ██╗
╚═╝  ╚═╝╚═╝  ╚═══╝╚═╝  ╚═══╝ ╚═════╝    ╚═╝   ╚═╝  ╚═╝╚═╝  ╚═╝ ╚═════╝╚═╝  ╚═╝`

var errPrompt = &apperr.Error{
	Message: "login prompt failed",
}

// loginAnswers holds the user's responses to the login prompt.
type loginAnswers struct {
	Username    string
	AnnotatorID string
}

// promptLogin asks for the username and annotator id.
func promptLogin(annotatorID string) (loginAnswers, error) {
	answers := loginAnswers{
		AnnotatorID: annotatorID,
	}

	pterm.Println(asciiLogo)

	_ = putils.BulletListFromString(`Log in to start tracking your annotation time.
Your weekly total resets every Monday.`, " ").
		Render()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&answers.Username).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errEmptyUsername
					}

					return nil
				}),
			huh.NewInput().
				Title("Annotator id").
				Placeholder("general").
				Value(&answers.AnnotatorID),
		),
	)

	err := form.Run()
	if err != nil {
		return answers, errPrompt.Wrap(err)
	}

	return answers, nil
}
