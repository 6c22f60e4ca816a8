package templates

import (
	"fmt"
	"html"
)

// RenderVerificationEmail generates the HTML for the account verification
// email. The link must be a fully qualified URL pointing at the verify
// endpoint with the pending uid baked in.
func RenderVerificationEmail(firstName, link string) string {
	safeName := html.EscapeString(firstName)
	safeLink := html.EscapeString(link)

	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>Verify your account</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #0a0a0f; }
    .container { max-width: 600px; margin: 0 auto; background-color: #12121f; }
    .header { background: linear-gradient(135deg, #2563eb 0%%, #1e40af 100%%); padding: 40px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 24px; font-weight: 700; }
    .content { padding: 40px 30px; color: #e5e7eb; line-height: 1.6; font-size: 15px; }
    .cta-button { display: inline-block; background: linear-gradient(135deg, #2563eb 0%%, #1e40af 100%%); color: #fff; padding: 14px 28px; border-radius: 8px; text-decoration: none; font-weight: 700; margin-top: 20px; }
    .footer { padding: 30px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid rgba(255,255,255,0.1); }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Verify your account</h1>
    </div>
    <div class="content">
      <p>Hi %s,</p>
      <p>Thanks for signing up. Click the button below to verify your email
      address. Unverified accounts are removed after a few minutes, so do it
      soon.</p>
      <a class="cta-button" href="%s">Verify email</a>
    </div>
    <div class="footer">
      <p>If you did not create this account, you can ignore this email.</p>
    </div>
  </div>
</body>
</html>`, safeName, safeLink)
}
