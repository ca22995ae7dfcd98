package render

import (
	htmltemplate "html/template"
	texttemplate "text/template"
)

var businessHTML = htmltemplate.Must(htmltemplate.New("business_html").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #e0e0e0; border-radius: 5px;">
  <h1 style="color: #e67e22; border-bottom: 2px solid #e67e22; padding-bottom: 10px;">New Reservation Request - {{.Brand.Name}}</h1>
  <div style="margin: 20px 0;">
    <h2 style="color: #333;">Customer Information</h2>
    <p><strong>Name:</strong> {{.Name}}</p>
    <p><strong>Email:</strong> {{.Email}}</p>
    <p><strong>Phone:</strong> {{.Phone}}</p>
    {{- if .Company}}
    <p><strong>Company:</strong> {{.Company}}</p>
    {{- end}}
  </div>
  <div style="margin: 20px 0; padding: 15px; background-color: #f9f9f9; border-radius: 5px;">
    <h2 style="color: #333;">Reservation Details</h2>
    <p><strong>Date:</strong> {{.Date}}</p>
    <p><strong>Time:</strong> {{.Time}}</p>
    <p><strong>Number of Guests:</strong> {{.Guests}}</p>
    <p><strong>Special Requests:</strong> {{.Requests}}</p>
    <p><strong>Confirmation Code:</strong> {{.Code}}</p>
  </div>
  <div style="margin-top: 20px; font-size: 14px; color: #666; border-top: 1px solid #e0e0e0; padding-top: 10px;">
    <p>This reservation was submitted through the {{.Brand.Name}} website.</p>
  </div>
</div>
`))

var businessText = texttemplate.Must(texttemplate.New("business_text").Parse(`
New Reservation Request - {{.Brand.Name}}

Customer Information:
Name: {{.Name}}
Email: {{.Email}}
Phone: {{.Phone}}
{{- if .Company}}
Company: {{.Company}}
{{- end}}

Reservation Details:
Date: {{.Date}}
Time: {{.Time}}
Number of Guests: {{.Guests}}
Special Requests: {{.Requests}}
Confirmation Code: {{.Code}}

This reservation was submitted through the {{.Brand.Name}} website.
`))

var customerHTML = htmltemplate.Must(htmltemplate.New("customer_html").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #e0e0e0; border-radius: 5px;">
  <h1 style="color: #e67e22; border-bottom: 2px solid #e67e22; padding-bottom: 10px;">Reservation Confirmation - {{.Brand.Name}}</h1>
  <div style="margin: 20px 0;">
    <p>Dear {{.Name}},</p>
    <p>Thank you for choosing {{.Brand.Name}}. Your reservation has been received and is being processed.</p>
  </div>
  <div style="margin: 20px 0; padding: 15px; background-color: #f9f9f9; border-radius: 5px;">
    <h2 style="color: #333;">Your Reservation Details</h2>
    <p><strong>Date:</strong> {{.Date}}</p>
    <p><strong>Time:</strong> {{.Time}}</p>
    <p><strong>Number of Guests:</strong> {{.Guests}}</p>
    <p><strong>Confirmation Code:</strong> {{.Code}}</p>
  </div>
  <div style="margin: 20px 0;">
    <p>If you need to modify or cancel your reservation, please contact us at:</p>
    {{- if .Brand.Phone}}
    <p>Phone: {{.Brand.Phone}}</p>
    {{- end}}
    {{- if .Brand.Email}}
    <p>Email: {{.Brand.Email}}</p>
    {{- end}}
  </div>
  <div style="margin-top: 20px; font-size: 14px; color: #666; border-top: 1px solid #e0e0e0; padding-top: 10px;">
    <p>We look forward to serving you at {{.Brand.Name}}!</p>
  </div>
</div>
`))

var customerText = texttemplate.Must(texttemplate.New("customer_text").Parse(`
Reservation Confirmation - {{.Brand.Name}}

Dear {{.Name}},

Thank you for choosing {{.Brand.Name}}. Your reservation has been received and is being processed.

Your Reservation Details:
Date: {{.Date}}
Time: {{.Time}}
Number of Guests: {{.Guests}}
Confirmation Code: {{.Code}}

If you need to modify or cancel your reservation, please contact us at:
{{- if .Brand.Phone}}
Phone: {{.Brand.Phone}}
{{- end}}
{{- if .Brand.Email}}
Email: {{.Brand.Email}}
{{- end}}

We look forward to serving you at {{.Brand.Name}}!
`))

// Telegram accepts a small HTML subset; html/template escaping keeps user
// input from breaking out of it.
var broadcastHTML = htmltemplate.Must(htmltemplate.New("broadcast_html").Parse(`
🍽️ <b>New Reservation Received</b>

<b>👤 Name:</b> {{.Name}}
<b>📞 Phone:</b> {{.Phone}}
<b>✉️ Email:</b> {{.Email}}
{{- if .Company}}
<b>🏢 Company:</b> {{.Company}}
{{- end}}
<b>📅 Date:</b> {{.Date}}
<b>⏰ Time:</b> {{.Time}}
<b>👥 Guests:</b> {{.Guests}}
<b>📝 Requests:</b> {{.Requests}}
<b>🔑 Confirmation Code:</b> <code>{{.Code}}</code>

<em>Submitted via {{.Brand.Name}} website</em>
`))

var messagingText = texttemplate.Must(texttemplate.New("messaging_text").Parse(`
🍽️ *New Reservation Received*

👤 *Name:* {{.Name}}
📞 *Phone:* {{.Phone}}
✉️ *Email:* {{.Email}}
{{- if .Company}}
🏢 *Company:* {{.Company}}
{{- end}}

📅 *Date:* {{.Date}}
⏰ *Time:* {{.Time}}
👥 *Guests:* {{.Guests}}
📝 *Special Requests:* {{.Requests}}

🔑 *Confirmation Code:* {{.Code}}

_Submitted via {{.Brand.Name}} website_
`))
