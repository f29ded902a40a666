package notifications

import (
	"bytes"
	"fmt"
	"html/template"
)

const layout = `{{define "layout"}}<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; color: #333; line-height: 1.6;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
<h2 style="color: #5a67d8;">{{.Title}}</h2>
{{template "body" .}}
<p style="margin-top: 30px;">Saludos,<br><strong>El equipo de Cuido</strong></p>
<p style="color: #999; font-size: 12px;">Este es un email automático, por favor no respondas a este mensaje.</p>
</div>
</body>
</html>{{end}}`

const welcomeBody = `{{define "body"}}
<p>Hola <strong>{{.Name}}</strong>,</p>
<p>Tu cuenta como <strong>{{.RoleLabel}}</strong> fue creada correctamente. Ya podés iniciar sesión para gestionar medicamentos, citas y documentos.</p>
{{if .AppURL}}<p><a href="{{.AppURL}}">Ir a Cuido</a></p>{{end}}
{{end}}`

const otpBody = `{{define "body"}}
<p>Hola <strong>{{.Name}}</strong>,</p>
<p>Recibimos un pedido para restablecer tu contraseña. Usá este código:</p>
<p style="font-size: 32px; font-weight: bold; letter-spacing: 8px; color: #5a67d8;">{{.Code}}</p>
<p>El código vence en {{.Minutes}} minutos y sólo puede usarse una vez. Si no lo pediste, ignorá este mensaje.</p>
{{end}}`

const passwordChangedBody = `{{define "body"}}
<p>Hola <strong>{{.Name}}</strong>,</p>
<p>Tu contraseña fue actualizada. Si no fuiste vos, contactanos de inmediato.</p>
{{end}}`

const invitationBody = `{{define "body"}}
<p>Hola <strong>{{.Name}}</strong>,</p>
<p><strong>{{.PatientName}}</strong> te invitó a ser su cuidador en Cuido. Iniciá sesión para aceptar o rechazar la invitación.</p>
{{if .AppURL}}<p><a href="{{.AppURL}}">Ver invitaciones</a></p>{{end}}
{{end}}`

func mustTemplate(name, body string) *template.Template {
	return template.Must(template.Must(template.New(name).Parse(layout)).Parse(body))
}

var (
	welcomeTemplate         = mustTemplate("welcome", welcomeBody)
	otpTemplate             = mustTemplate("otp", otpBody)
	passwordChangedTemplate = mustTemplate("password_changed", passwordChangedBody)
	invitationTemplate      = mustTemplate("invitation", invitationBody)
)

// emailData feeds every template; unused fields are ignored.
type emailData struct {
	Title       string
	Name        string
	RoleLabel   string
	Code        string
	Minutes     int
	PatientName string
	AppURL      string
}

func render(t *template.Template, data emailData) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", fmt.Errorf("while templating %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}
