package services_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"go.uber.org/zap"

	"scholarmate/cache"
	"scholarmate/services"
)

type fakeMailer struct {
	sent []sentMail
	err  error
}

type sentMail struct {
	To      []string
	Subject string
	Body    string
}

func (f *fakeMailer) Send(to []string, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func newCodeService(t *testing.T) (*services.CodeService, *cache.Memory, *fakeMailer) {
	t.Helper()
	mem := cache.NewMemory()
	mail := &fakeMailer{}
	return services.NewCodeService(mem, mail, zap.NewNop()), mem, mail
}

var codeRe = regexp.MustCompile(`\d{6}`)

func TestSendVerifyCodeStoresSixDigitCode(t *testing.T) {
	svc, mem, mail := newCodeService(t)
	ctx := context.Background()

	if err := svc.SendVerifyCode(ctx, "user@example.com"); err != nil {
		t.Fatalf("SendVerifyCode: %v", err)
	}

	code, err := mem.Get(ctx, "email_verify:code:user@example.com")
	if err != nil {
		t.Fatalf("code not stored: %v", err)
	}
	if len(code) != 6 || !codeRe.MatchString(code) {
		t.Errorf("code = %q, want 6 digits", code)
	}
	if len(mail.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(mail.sent))
	}
	if got := codeRe.FindString(mail.sent[0].Body); got != code {
		t.Errorf("mailed code %q differs from stored code %q", got, code)
	}
}

func TestSendVerifyCodeCooldown(t *testing.T) {
	svc, _, _ := newCodeService(t)
	ctx := context.Background()

	if err := svc.SendVerifyCode(ctx, "user@example.com"); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if err := svc.SendVerifyCode(ctx, "user@example.com"); !errors.Is(err, services.ErrCooldown) {
		t.Errorf("second send = %v, want ErrCooldown", err)
	}
}

func TestSendVerifyCodeNormalizesEmail(t *testing.T) {
	svc, mem, _ := newCodeService(t)
	ctx := context.Background()

	if err := svc.SendVerifyCode(ctx, " User@Example.COM "); err != nil {
		t.Fatalf("SendVerifyCode: %v", err)
	}
	if _, err := mem.Get(ctx, "email_verify:code:user@example.com"); err != nil {
		t.Errorf("code not stored under lowercased key: %v", err)
	}
}

func TestVerifyEmailIsSingleUse(t *testing.T) {
	svc, mem, _ := newCodeService(t)
	ctx := context.Background()

	if err := svc.SendVerifyCode(ctx, "user@example.com"); err != nil {
		t.Fatalf("SendVerifyCode: %v", err)
	}
	code, _ := mem.Get(ctx, "email_verify:code:user@example.com")

	if err := svc.VerifyEmail(ctx, "user@example.com", code); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	if err := svc.VerifyEmail(ctx, "user@example.com", code); !errors.Is(err, services.ErrCodeInvalid) {
		t.Errorf("replayed code = %v, want ErrCodeInvalid", err)
	}

	ok, err := svc.ConsumeVerified(ctx, "user@example.com")
	if err != nil || !ok {
		t.Fatalf("ConsumeVerified = %v, %v, want true", ok, err)
	}
	ok, err = svc.ConsumeVerified(ctx, "user@example.com")
	if err != nil || ok {
		t.Errorf("second ConsumeVerified = %v, %v, want false", ok, err)
	}
}

func TestVerifyEmailWrongCode(t *testing.T) {
	svc, _, _ := newCodeService(t)
	ctx := context.Background()

	if err := svc.SendVerifyCode(ctx, "user@example.com"); err != nil {
		t.Fatalf("SendVerifyCode: %v", err)
	}
	if err := svc.VerifyEmail(ctx, "user@example.com", "000000x"); !errors.Is(err, services.ErrCodeInvalid) {
		t.Errorf("wrong code = %v, want ErrCodeInvalid", err)
	}
	if err := svc.VerifyEmail(ctx, "other@example.com", "123456"); !errors.Is(err, services.ErrCodeInvalid) {
		t.Errorf("unknown address = %v, want ErrCodeInvalid", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	svc, mem, _ := newCodeService(t)
	ctx := context.Background()

	if err := svc.SendResetCode(ctx, "user@example.com", "hong"); err != nil {
		t.Fatalf("SendResetCode: %v", err)
	}
	code, err := mem.Get(ctx, "pw_reset:code:user@example.com|hong")
	if err != nil {
		t.Fatalf("reset code not stored under composite key: %v", err)
	}

	token, err := svc.VerifyResetCode(ctx, "user@example.com", "hong", code)
	if err != nil {
		t.Fatalf("VerifyResetCode: %v", err)
	}
	if token == "" {
		t.Fatal("empty reset session token")
	}

	ok, err := svc.ConsumeResetSession(ctx, "user@example.com", "hong", "not-the-token")
	if err != nil || ok {
		t.Fatalf("wrong token consumed: %v, %v", ok, err)
	}
	ok, err = svc.ConsumeResetSession(ctx, "user@example.com", "hong", token)
	if err != nil || !ok {
		t.Fatalf("ConsumeResetSession = %v, %v, want true", ok, err)
	}
	ok, _ = svc.ConsumeResetSession(ctx, "user@example.com", "hong", token)
	if ok {
		t.Error("reset session token should be single use")
	}
}

func TestResetCodesScopedByUsername(t *testing.T) {
	svc, mem, _ := newCodeService(t)
	ctx := context.Background()

	if err := svc.SendResetCode(ctx, "shared@example.com", "alpha"); err != nil {
		t.Fatalf("SendResetCode: %v", err)
	}
	code, _ := mem.Get(ctx, "pw_reset:code:shared@example.com|alpha")

	if _, err := svc.VerifyResetCode(ctx, "shared@example.com", "beta", code); !errors.Is(err, services.ErrCodeInvalid) {
		t.Errorf("code leaked across accounts on a shared mailbox: %v", err)
	}
}

func TestSendCodeMailFailure(t *testing.T) {
	mem := cache.NewMemory()
	mail := &fakeMailer{err: errors.New("smtp down")}
	svc := services.NewCodeService(mem, mail, zap.NewNop())
	ctx := context.Background()

	err := svc.SendVerifyCode(ctx, "user@example.com")
	if err == nil || errors.Is(err, services.ErrCooldown) {
		t.Fatalf("mail failure should surface as an error, got %v", err)
	}
	// The code stays cached; a retry after the cooldown can still succeed.
	if _, err := mem.Get(ctx, "email_verify:code:user@example.com"); err != nil {
		t.Errorf("code should remain stored after mail failure: %v", err)
	}
}

func TestLookupCooldown(t *testing.T) {
	svc, _, _ := newCodeService(t)
	ctx := context.Background()

	if err := svc.LookupCooldown(ctx, "user@example.com"); err != nil {
		t.Fatalf("first lookup: %v", err)
	}
	if err := svc.LookupCooldown(ctx, "user@example.com"); !errors.Is(err, services.ErrCooldown) {
		t.Errorf("second lookup = %v, want ErrCooldown", err)
	}
	if err := svc.LookupCooldown(ctx, "other@example.com"); err != nil {
		t.Errorf("different address should not share the cooldown: %v", err)
	}
}
