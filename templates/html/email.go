package templates

import (
	"fmt"
	"html"
	"strings"
)

// Text escapes plain text for an email body and keeps its line breaks
func Text(plain string) string {
	return strings.ReplaceAll(html.EscapeString(plain), "\n", "<br>")
}

// Button renders a call to action link
func Button(label, href string) string {
	return fmt.Sprintf(`<p class="cta"><a href="%s">%s</a></p>`, html.EscapeString(href), html.EscapeString(label))
}

// RenderEmail wraps content, which must already be safe HTML, in the
// branded layout. The subject is escaped and shown in the header.
func RenderEmail(subject, content string) string {
	safeSubject := html.EscapeString(subject)

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>%s</title>
  <style type="text/css">
    body { font-family: Georgia, 'Times New Roman', serif; margin: 0; padding: 0; background-color: #f4f1ea; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background-color: #1f2a44; padding: 32px 28px; }
    .header h1 { color: #f4f1ea; margin: 0; font-size: 22px; font-weight: 600; }
    .content { padding: 32px 28px; color: #1f2937; line-height: 1.6; font-size: 15px; }
    .cta a { display: inline-block; padding: 10px 18px; background-color: #b08d57; color: #ffffff; text-decoration: none; border-radius: 4px; }
    .footer { padding: 24px 28px; color: #6b7280; font-size: 12px; border-top: 1px solid #e5e7eb; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>%s</h1>
    </div>
    <div class="content">
      %s
    </div>
    <div class="footer">
      <p>You are receiving this because you have an account on J.A.I. Replies to this address are not monitored.</p>
    </div>
  </div>
</body>
</html>`, safeSubject, safeSubject, content)
}
