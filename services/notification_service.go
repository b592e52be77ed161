package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kendall-kelly/maintenance-orders-api/models"
	"github.com/kendall-kelly/maintenance-orders-api/utils"
)

// Notifier tells a customer their order was signed
type Notifier interface {
	NotifySigned(ctx context.Context, order *models.Order, email string) error
}

// EmailMessage is the payload posted to the mail webhook
type EmailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// EmailNotifier sends signed-order emails through an HTTP mail webhook
type EmailNotifier struct {
	webhookURL string
	httpClient *http.Client
}

// NewEmailNotifier creates a notifier posting to webhookURL. Every request is
// bounded by timeout.
func NewEmailNotifier(webhookURL string, timeout time.Duration) *EmailNotifier {
	return &EmailNotifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NotifySigned posts the signed-order email for order to email
func (n *EmailNotifier) NotifySigned(ctx context.Context, order *models.Order, email string) error {
	payload, err := json.Marshal(SignedOrderEmail(order, email))
	if err != nil {
		return fmt.Errorf("failed to encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call mail webhook: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("mail webhook returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// SignedOrderEmail builds the confirmation email sent after signing
func SignedOrderEmail(order *models.Order, email string) EmailMessage {
	signedAt := ""
	if order.SignedAt != nil {
		signedAt = utils.FormatDateDisplay(order.SignedAt.Format(models.DateLayout))
	}

	var body strings.Builder
	body.WriteString("親愛的客戶，您好：\n\n")
	body.WriteString("您的維修單已完成簽名確認，詳細資訊如下：\n\n")
	fmt.Fprintf(&body, "維修單號：%s\n", order.OrderNumber)
	fmt.Fprintf(&body, "日期：%s\n", order.FormattedDate())
	fmt.Fprintf(&body, "案場：%s\n", order.Site)
	fmt.Fprintf(&body, "位置：%s\n", order.Location())
	fmt.Fprintf(&body, "工務人員：%s\n", order.Staff)
	fmt.Fprintf(&body, "維修原因：%s\n", order.Reason)
	fmt.Fprintf(&body, "金額：%s\n", order.FormattedAmount())
	fmt.Fprintf(&body, "簽名時間：%s\n\n", signedAt)
	body.WriteString("感謝您的配合！\n\n")
	body.WriteString("此為系統自動發送的郵件，請勿回覆。\n")

	return EmailMessage{
		To:      email,
		Subject: fmt.Sprintf("維修單簽名確認 - %s", order.OrderNumber),
		Body:    body.String(),
	}
}
