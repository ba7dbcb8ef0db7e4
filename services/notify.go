package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"noteboard/models"
)

// Notifier собирает письмо модератору со ссылками approve/reject и отправляет
// его через Resend-совместимый API. Без ключа письмо не теряется: составленный
// текст уходит в лог для ручной обработки оператором.
type Notifier struct {
	APIKey        string
	APIURL        string
	FromEmail     string
	ToEmail       string
	PublicBaseURL string
	ApprovalToken string
	Client        *http.Client
}

func NewNotifier(apiKey, apiURL, fromEmail, toEmail, publicBaseURL, approvalToken string) *Notifier {
	if apiURL == "" {
		apiURL = "https://api.resend.com/emails"
	}
	return &Notifier{
		APIKey:        apiKey,
		APIURL:        apiURL,
		FromEmail:     fromEmail,
		ToEmail:       toEmail,
		PublicBaseURL: publicBaseURL,
		ApprovalToken: approvalToken,
		Client:        &http.Client{Timeout: 10 * time.Second},
	}
}

type approvalEmail struct {
	Subject  string
	TextBody string
	HTMLBody string
}

// ComposeApprovalEmail строит письмо: id, получатели, текст, цвет и две ссылки.
// Ссылки несут id и общий токен - модератор действует без залогиненной сессии.
func (n *Notifier) ComposeApprovalEmail(msg *models.Message) approvalEmail {
	approveURL := fmt.Sprintf("%s/moderation/approve?messageId=%d&token=%s", n.PublicBaseURL, msg.ID, n.ApprovalToken)
	rejectURL := fmt.Sprintf("%s/moderation/reject?messageId=%d&token=%s", n.PublicBaseURL, msg.ID, n.ApprovalToken)

	textBody := fmt.Sprintf(`A new message on the board requires your approval:

Message ID: %d
To: %s
Message: %s
Color: %s

TO APPROVE: %s
TO REJECT: %s
`, msg.ID, msg.Recipients, msg.Body, msg.Color, approveURL, rejectURL)

	htmlBody := fmt.Sprintf(`<h2>Message Approval Required</h2>
<p>A new message on the board requires your approval:</p>
<ul>
	<li><strong>Message ID:</strong> %d</li>
	<li><strong>To:</strong> %s</li>
	<li><strong>Message:</strong> %s</li>
	<li><strong>Color:</strong> %s</li>
</ul>
<p>
	<a href="%s">Approve</a> | <a href="%s">Reject</a>
</p>`, msg.ID, msg.Recipients, msg.Body, msg.Color, approveURL, rejectURL)

	return approvalEmail{
		Subject:  fmt.Sprintf("Message Approval Required - ID: %d", msg.ID),
		TextBody: textBody,
		HTMLBody: htmlBody,
	}
}

// Notify отправляет письмо модератору. Ошибки здесь никогда не доходят
// до автора записки - запись уже в базе со статусом pending.
func (n *Notifier) Notify(ctx context.Context, msg *models.Message) error {
	email := n.ComposeApprovalEmail(msg)

	if n.APIKey == "" {
		// Деградация для операторов: письмо некому отправить, пишем в лог
		log.Printf("=== APPROVAL EMAIL (email service not configured) ===")
		log.Printf("To: %s", n.ToEmail)
		log.Printf("Subject: %s", email.Subject)
		log.Printf("Body:\n%s", email.TextBody)
		RecordNotification("logged")
		return nil
	}

	payload, err := json.Marshal(map[string]string{
		"from":    n.FromEmail,
		"to":      n.ToEmail,
		"subject": email.Subject,
		"text":    email.TextBody,
		"html":    email.HTMLBody,
	})
	if err != nil {
		RecordNotification("error")
		return fmt.Errorf("marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.APIURL, bytes.NewReader(payload))
	if err != nil {
		RecordNotification("error")
		return err
	}
	req.Header.Set("Authorization", "Bearer "+n.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.Client.Do(req)
	if err != nil {
		RecordNotification("error")
		return fmt.Errorf("send approval email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		RecordNotification("error")
		return fmt.Errorf("email provider status %d: %s", resp.StatusCode, body)
	}

	RecordNotification("sent")
	log.Printf("Approval email sent for message %d to %s", msg.ID, n.ToEmail)
	return nil
}
