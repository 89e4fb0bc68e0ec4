package server

import (
	"strconv"

	"github.com/sendrec/videogate/internal/catalog"
	"github.com/sendrec/videogate/internal/gate"
	"golang.org/x/text/message"
)

// pageView collects what the gate controller wants shown so a handler can
// render it as HTML or JSON afterwards.
type pageView struct {
	printer *message.Printer

	GateVisible  bool
	Error        string
	Attempts     int
	MaxAttempts  int
	AttemptInfo  string
	Cards        []catalog.Card
	CardsLoaded  bool
	LibraryError string
	Redirect     string
}

func newPageView(printer *message.Printer) *pageView {
	return &pageView{printer: printer}
}

func (v *pageView) text(msg gate.Message) string {
	return v.printer.Sprintf(string(msg))
}

func (v *pageView) ShowGate() { v.GateVisible = true }

func (v *pageView) HideGate() { v.GateVisible = false }

func (v *pageView) ShowError(msg gate.Message) { v.Error = v.text(msg) }

func (v *pageView) ShowAttemptInfo(attempts, max int) {
	v.Attempts, v.MaxAttempts = attempts, max
	if attempts == 0 {
		v.AttemptInfo = ""
		return
	}
	v.AttemptInfo = v.printer.Sprintf("gate.attempts", strconv.Itoa(attempts), strconv.Itoa(max))
}

func (v *pageView) RenderCards(cards []catalog.Card) {
	v.Cards = cards
	v.CardsLoaded = true
	v.LibraryError = ""
}

func (v *pageView) ShowLibraryError(msg gate.Message) {
	v.Cards = nil
	v.LibraryError = v.text(msg)
}

func (v *pageView) Navigate(url string) { v.Redirect = url }
