package api

import (
	"html/template"
	"log"
	"net/http"
)

const baseLayout = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>{{.Title}}</title>
<style>
body{background:#0b0f14;color:#e6eef8;font-family:system-ui;margin:0}
.card{max-width:720px;margin:10vh auto;padding:24px;background:#111825;border:1px solid #1f2a3b;border-radius:14px}
h1{color:#cfe3ff;margin:0 0 12px}
label{display:block;margin:12px 0 4px;color:#9fb3cc}
input[type=text],input[type=password]{width:100%;padding:10px;border:1px solid #1f2a3b;border-radius:8px;background:#0b0f14;color:#e6eef8;box-sizing:border-box}
button{margin-top:16px;padding:10px 18px;border:0;border-radius:8px;background:#2563eb;color:#fff;cursor:pointer}
button.danger{background:#b91c1c}
.error{margin:12px 0;padding:10px;border:1px solid #7f1d1d;border-radius:8px;background:#1c1012;color:#fca5a5}
.muted{color:#9fb3cc}
code{background:#0b0f14;padding:2px 6px;border-radius:6px}
table{width:100%;border-collapse:collapse;margin-top:16px}
th,td{text-align:left;padding:8px;border-bottom:1px solid #1f2a3b;font-size:14px}
a{color:#93c5fd}
.badge{padding:2px 8px;border-radius:999px;font-size:12px}
.badge.live{background:#14532d;color:#86efac}
.badge.idle{background:#1f2a3b;color:#9fb3cc}
</style>
</head>
<body><div class="card">{{template "content" .}}</div></body>
</html>`

var (
	loginTmpl = mustPage(`{{define "content"}}
<h1>Sign in</h1>
{{if .Error}}<div class="error">{{.Error}}</div>{{end}}
<form method="post" action="/login">
<label for="username">Username</label>
<input type="text" id="username" name="username" autocomplete="username" autofocus>
<label for="password">Password</label>
<input type="password" id="password" name="password" autocomplete="current-password">
<button type="submit">Sign in</button>
</form>
{{end}}`)

	mfaVerifyTmpl = mustPage(`{{define "content"}}
<h1>Two-factor verification</h1>
<p class="muted">Signed in as <strong>{{.Username}}</strong>. Enter the 6-digit code from your authenticator app.</p>
{{if .Error}}<div class="error">{{.Error}}</div>{{end}}
<form method="post" action="/mfa">
<label for="code">Code</label>
<input type="text" id="code" name="code" inputmode="numeric" autocomplete="one-time-code" autofocus>
<button type="submit">Verify</button>
</form>
{{end}}`)

	homeTmpl = mustPage(`{{define "content"}}
<h1>Welcome</h1>
<p>You are logged in as <strong>{{.Username}}</strong>.</p>
<p class="muted">
<a href="/settings/mfa">Two-factor settings</a>
{{if .Superadmin}} &middot; <a href="/peers">VPN peers</a>{{end}}
</p>
<form method="post" action="/logout"><button type="submit">Sign out</button></form>
{{end}}`)

	mfaSettingsTmpl = mustPage(`{{define "content"}}
<h1>Two-factor settings</h1>
{{if .Error}}<div class="error">{{.Error}}</div>{{end}}
{{if .Enabled}}
<p>Two-factor authentication is <strong>enabled</strong>.</p>
<form method="post" action="/settings/mfa/disable">
<input type="hidden" name="user_id" value="{{.UserID}}">
<button type="submit" class="danger">Disable two-factor</button>
</form>
{{else}}
<p class="muted">Scan the QR code with your authenticator app, or enter the secret manually, then confirm with a code.</p>
<p><img src="/settings/mfa/qr.png" alt="QR code" width="220" height="220"></p>
<p>Secret: <code>{{.Secret}}</code></p>
<form method="post" action="/settings/mfa/confirm">
<label for="code">Code</label>
<input type="text" id="code" name="code" inputmode="numeric" autocomplete="one-time-code">
<button type="submit">Confirm</button>
</form>
{{end}}
<p class="muted"><a href="/">Back</a></p>
{{end}}`)

	peersTmpl = mustPage(`{{define "content"}}
<h1>VPN peers</h1>
{{if .Error}}<div class="error">{{.Error}}</div>{{end}}
<form method="post" action="/peers">
<label for="label">Label</label>
<input type="text" id="label" name="label" placeholder="laptop">
<label for="allowed_ips">Allowed IPs (client side)</label>
<input type="text" id="allowed_ips" name="allowed_ips" placeholder="0.0.0.0/0, ::/0">
<label for="keepalive">Persistent keepalive, seconds (optional)</label>
<input type="text" id="keepalive" name="keepalive" inputmode="numeric" placeholder="25">
<button type="submit">Add peer</button>
</form>
<table>
<tr><th>Label</th><th>Address</th><th>Public key</th><th>Status</th><th>Handshake</th><th></th></tr>
{{range .Peers}}
<tr>
<td>{{.Label}}</td>
<td><code>{{.AddressCIDR}}</code></td>
<td><code>{{printf "%.16s" .PublicKey}}&hellip;</code></td>
<td>{{if .Live}}<span class="badge live">live</span>{{else}}<span class="badge idle">inactive</span>{{end}}</td>
<td class="muted">{{if .LatestHandshake}}{{.LatestHandshake}}{{else}}&mdash;{{end}}</td>
<td><form method="post" action="/peers/{{.ID}}/delete"><button type="submit" class="danger">Delete</button></form></td>
</tr>
{{end}}
</table>
<p class="muted"><a href="/">Back</a></p>
{{end}}`)
)

func mustPage(content string) *template.Template {
	return template.Must(template.Must(template.New("page").Parse(baseLayout)).Parse(content))
}

func renderPage(w http.ResponseWriter, tmpl *template.Template, status int, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.Execute(w, data); err != nil {
		log.Printf("Failed to render page: %v", err)
	}
}
