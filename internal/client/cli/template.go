package cli

import (
	"text/template"
)

// statusView данные для statusTemplate
type statusView struct {
	LastSession *sessionView
	Mode        string
	Server      string
	Strategy    string
	AutoSync    string
	DeviceID    string
	LastSync    string
	Pending     int
	Capacity    int
	Conflicts   int
}

type sessionView struct {
	Outcome  string
	Started  string
	Error    string
	Pushed   int
	Pulled   int
	Resolved int
}

const statusTemplate = `
=== Sync Status ===

Mode:       {{.Mode}}
Server:     {{if .Server}}{{.Server}}{{else}}-{{end}}
Strategy:   {{.Strategy}}
Auto-sync:  {{.AutoSync}}
Device:     {{.DeviceID}}
Last sync:  {{.LastSync}}

Pending:    {{.Pending}} of {{.Capacity}} change(s)
Conflicts:  {{.Conflicts}}
{{- with .LastSession }}

Last session {{.Started}}: {{.Outcome}}, pushed {{.Pushed}}, pulled {{.Pulled}}
{{- if .Resolved }}, resolved {{.Resolved}}{{end}}
{{- if .Error }}
  error: {{.Error}}
{{- end}}
{{- end}}
`

const conflictTemplate = `
=== Conflict {{.ConflictID}} ===

Item:     {{.ItemType}}/{{.ItemID}}
{{- if .ItemName }}
Name:     {{.ItemName}}
{{- end}}
Change:   {{.ChangeID}}

Local  (v{{.LocalVersion}}, {{.LocalTimestamp.Format "2006-01-02 15:04:05"}}):
{{printf "%s" .LocalValue}}

Remote (v{{.RemoteVersion}}, {{.RemoteTimestamp.Format "2006-01-02 15:04:05"}}):
{{printf "%s" .RemoteValue}}

Resolve with: postboy resolve {{.ConflictID}} <local|remote|merged> [--value JSON]
`

var (
	statusTmpl   = template.Must(template.New("status").Parse(statusTemplate))
	conflictTmpl = template.Must(template.New("conflict").Parse(conflictTemplate))
)
