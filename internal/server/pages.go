package server

import (
	"html/template"
	"log/slog"
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sendrec/videogate/internal/i18n"
)

const pageHead = `{{define "head"}}<!DOCTYPE html>
<html lang="{{.Lang}}" dir="{{.Dir}}">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <meta name="robots" content="noindex, nofollow">
    <title>{{.P.Sprintf "page.title"}}</title>
    <link rel="stylesheet" href="/static/style.css" nonce="{{.Nonce}}">
</head>{{end}}`

var gatePageTemplate = template.Must(template.New("gate").Parse(pageHead + `{{template "head" .}}
<body>
    <div id="pin-overlay" class="overlay"{{if not .View.GateVisible}} hidden{{end}}>
        <form id="pin-form" class="gate" method="post" action="/unlock" autocomplete="off" data-network-error="{{.P.Sprintf "gate.network_error"}}">
            <h1>{{.P.Sprintf "gate.heading"}}</h1>
            <input id="pin-input" name="pin" type="password" inputmode="numeric" maxlength="64"
                   placeholder="{{.P.Sprintf "gate.placeholder"}}" autofocus>
            <button id="pin-submit" type="submit">{{.P.Sprintf "gate.submit"}}</button>
            <p id="pin-error" class="error" role="alert">{{.View.Error}}</p>
            <p id="attempt-info" class="info">{{.View.AttemptInfo}}</p>
        </form>
    </div>
    <main class="container">
        <div id="grid" class="grid" data-play-label="{{.P.Sprintf "card.play"}}">
            {{- if .View.LibraryError}}{{.View.LibraryError}}{{end}}
            {{- range .View.Cards}}
            <div class="card">
                <div class="thumb">▶</div>
                <div class="title">{{.Title}}</div>
                <a class="btn-play" href="{{.PlayURL}}">{{$.P.Sprintf "card.play"}}</a>
            </div>
            {{- end}}
        </div>
    </main>
    <script src="/static/gate.js" nonce="{{.Nonce}}"></script>
</body>
</html>`))

var playerPageTemplate = template.Must(template.New("player").Parse(pageHead + `{{template "head" .}}
<body>
    <main class="container">
        <video id="player" controls playsinline>
            <source src="{{.VideoURL}}"{{if .ContentType}} type="{{.ContentType}}"{{end}}>
        </video>
        <h1 class="player-title">{{.Title}}</h1>
        <a class="btn-back" href="/">{{.P.Sprintf "player.back"}}</a>
    </main>
</body>
</html>`))

var lockoutPageTemplate = template.Must(template.New("lockout").Parse(pageHead + `{{template "head" .}}
<body>
    <main class="container lockout">
        <h1>{{.P.Sprintf "lockout.heading"}}</h1>
        <p>{{.P.Sprintf "lockout.body"}}</p>
    </main>
</body>
</html>`))

type pageBase struct {
	Lang  string
	Dir   string
	Nonce string
	P     *message.Printer
}

func newPageBase(tag language.Tag, nonce string) pageBase {
	return pageBase{
		Lang:  tag.String(),
		Dir:   i18n.Direction(tag),
		Nonce: nonce,
		P:     i18n.Printer(tag),
	}
}

type gatePageData struct {
	pageBase
	View *pageView
}

type playerPageData struct {
	pageBase
	Title       string
	VideoURL    string
	ContentType string
}

type lockoutPageData struct {
	pageBase
}

func renderPage(w http.ResponseWriter, status int, tmpl *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.Execute(w, data); err != nil {
		slog.Error("server: failed to render page", "template", tmpl.Name(), "error", err)
	}
}
