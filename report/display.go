package report

import (
	"fmt"

	"github.com/pterm/pterm"
)

var (
	SuccessColorFG = pterm.FgLightGreen
	SuccessStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	WarnColorFG    = pterm.FgYellow
	WarnStyleBG    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	ErrorColorFG   = pterm.FgRed
	ErrorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	InfoColorFG    = SuccessColorFG
	InfoStyleBG    = SuccessStyleBG
)

// DisplayInfoMessage prints a tagged informational message regardless of the
// log level.  It is used for output the user asked for explicitly.
func DisplayInfoMessage(tag, msg string) {
	displayInfo(tag, msg)
}

// displayICE displays an internal compiler error message.
func displayICE(message string) {
	ErrorStyleBG.Print("internal compiler error")
	ErrorColorFG.Println(" " + message)
	fmt.Print("This error was not supposed to happen: the typed tree handed to code generation broke its contract\n\n")
}

// displayFatal displays a fatal error message.
func displayFatal(message string) {
	ErrorStyleBG.Print("fatal error")
	ErrorColorFG.Println(" " + message)
	fmt.Println()
}

// displayError displays an environment error.
func displayError(message string) {
	ErrorStyleBG.Print("error")
	ErrorColorFG.Println(" " + message)
}

// displayWarning displays a warning.
func displayWarning(message string) {
	WarnStyleBG.Print("warning")
	WarnColorFG.Println(" " + message)
}

// displayInfo displays a tagged information message.
func displayInfo(tag, message string) {
	InfoStyleBG.Print(tag)
	InfoColorFG.Println(" " + message)
}
