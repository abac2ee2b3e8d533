package email

import (
	"strings"
	"testing"
	"time"
)

func TestBuildMessage(t *testing.T) {
	sent := time.Date(2026, 9, 1, 12, 30, 0, 0, time.UTC)
	body := buildMessage(Message{
		FromName:  "Todo App",
		FromEmail: "no-reply@localhost",
		ToEmail:   "amy@x.com",
		Subject:   "Verify your email",
		TextBody:  "Your code is 042137",
	}, sent)

	if !strings.HasPrefix(body, "From: Todo App <no-reply@localhost>\r\n") {
		t.Fatalf("unexpected from header: %q", body)
	}
	if !strings.Contains(body, "To: amy@x.com\r\n") {
		t.Fatalf("missing to header: %q", body)
	}
	if !strings.Contains(body, "Subject: Verify your email\r\n") {
		t.Fatalf("missing subject header: %q", body)
	}
	if !strings.Contains(body, "Date: "+sent.Format(time.RFC1123Z)+"\r\n") {
		t.Fatalf("missing date header: %q", body)
	}
	if !strings.HasSuffix(body, "\r\n\r\nYour code is 042137") {
		t.Fatalf("body not separated from headers: %q", body)
	}
}

func TestBuildMessageWithoutFromName(t *testing.T) {
	body := buildMessage(Message{
		FromEmail: "no-reply@localhost",
		ToEmail:   "amy@x.com",
		Subject:   "x",
		TextBody:  "y",
	}, time.Now())

	if !strings.HasPrefix(body, "From: no-reply@localhost\r\n") {
		t.Fatalf("expected bare address without display name: %q", body)
	}
}
