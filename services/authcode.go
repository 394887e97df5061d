package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"scholarmate/cache"
	"scholarmate/mailer"
)

// Cache key namespaces for the one-time code flows. Everything is
// ephemeral; the relational store never sees a code.
const (
	keyVerifyCode     = "email_verify:code:"
	keyVerifyCooldown = "email_verify:cooldown:"
	keyVerifiedFlag   = "email_verify:verified:"

	keyResetCode     = "pw_reset:code:"
	keyResetCooldown = "pw_reset:cooldown:"
	keyResetSession  = "pw_reset:session:"

	keyLookupCooldown = "lookup_username:cooldown:"
)

const (
	codeTTLDefault     = 120 * time.Second
	cooldownTTLDefault = 60 * time.Second
	verifiedTTLDefault = 600 * time.Second
)

var (
	// ErrCooldown means a code or lookup was requested again too soon.
	ErrCooldown = errors.New("request repeated within cooldown window")
	// ErrCodeInvalid covers missing, expired and mismatched codes alike so
	// callers cannot distinguish "wrong code" from "no code requested".
	ErrCodeInvalid = errors.New("verification code invalid or expired")
)

// CodeService implements the email verification, password reset and
// username lookup flows on top of an expiring key-value cache.
type CodeService struct {
	Cache  cache.Cache
	Mailer mailer.Mailer
	Logger *zap.Logger

	CodeTTL     time.Duration
	CooldownTTL time.Duration
	VerifiedTTL time.Duration
}

func NewCodeService(c cache.Cache, m mailer.Mailer, logger *zap.Logger) *CodeService {
	return &CodeService{
		Cache:       c,
		Mailer:      m,
		Logger:      logger,
		CodeTTL:     codeTTLDefault,
		CooldownTTL: cooldownTTLDefault,
		VerifiedTTL: verifiedTTLDefault,
	}
}

// SendVerifyCode emails a signup verification code, subject to the
// per-address cooldown. A fresh code always invalidates a previously
// completed verification.
func (s *CodeService) SendVerifyCode(ctx context.Context, email string) error {
	addr := normalizeEmail(email)
	if err := s.sendCode(ctx, addr, keyVerifyCode+addr, keyVerifyCooldown+addr,
		"[ScholarMate] 이메일 인증 코드",
		"회원가입 이메일 인증 코드는 %s 입니다.\n인증 코드는 2분간 유효합니다."); err != nil {
		return err
	}
	return s.Cache.Delete(ctx, keyVerifiedFlag+addr)
}

// VerifyEmail consumes the signup code and marks the address verified for
// a limited window in which registration must complete.
func (s *CodeService) VerifyEmail(ctx context.Context, email, code string) error {
	addr := normalizeEmail(email)
	if err := s.consumeCode(ctx, keyVerifyCode+addr, code); err != nil {
		return err
	}
	return s.Cache.Set(ctx, keyVerifiedFlag+addr, "1", s.VerifiedTTL)
}

// ConsumeVerified reports whether the address completed verification and
// burns the flag, so one verification admits exactly one registration.
func (s *CodeService) ConsumeVerified(ctx context.Context, email string) (bool, error) {
	addr := normalizeEmail(email)
	_, err := s.Cache.Get(ctx, keyVerifiedFlag+addr)
	if errors.Is(err, cache.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := s.Cache.Delete(ctx, keyVerifiedFlag+addr); err != nil {
		return false, err
	}
	return true, nil
}

// SendResetCode emails a password reset code for one account, subject to
// the per-account cooldown. Keys are scoped by address and username so a
// shared mailbox cannot cross-authorize resets.
func (s *CodeService) SendResetCode(ctx context.Context, email, username string) error {
	addr := normalizeEmail(email)
	scope := addr + "|" + username
	return s.sendCode(ctx, addr, keyResetCode+scope, keyResetCooldown+scope,
		"[ScholarMate] 비밀번호 재설정 코드",
		"비밀번호 재설정 인증 코드는 %s 입니다.\n인증 코드는 2분간 유효합니다.")
}

// VerifyResetCode consumes the reset code and returns an opaque session
// token that authorizes exactly one password change.
func (s *CodeService) VerifyResetCode(ctx context.Context, email, username, code string) (string, error) {
	scope := normalizeEmail(email) + "|" + username
	if err := s.consumeCode(ctx, keyResetCode+scope, code); err != nil {
		return "", err
	}
	token := uuid.NewString()
	if err := s.Cache.Set(ctx, keyResetSession+scope, token, s.VerifiedTTL); err != nil {
		return "", err
	}
	return token, nil
}

// ConsumeResetSession burns the reset session token if it matches.
func (s *CodeService) ConsumeResetSession(ctx context.Context, email, username, token string) (bool, error) {
	scope := normalizeEmail(email) + "|" + username
	stored, err := s.Cache.Get(ctx, keyResetSession+scope)
	if errors.Is(err, cache.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if token == "" || stored != token {
		return false, nil
	}
	if err := s.Cache.Delete(ctx, keyResetSession+scope); err != nil {
		return false, err
	}
	return true, nil
}

// LookupCooldown enforces the username lookup rate limit for one address.
func (s *CodeService) LookupCooldown(ctx context.Context, email string) error {
	key := keyLookupCooldown + normalizeEmail(email)
	if s.onCooldown(ctx, key) {
		return ErrCooldown
	}
	return s.Cache.Set(ctx, key, "1", s.CooldownTTL)
}

func (s *CodeService) sendCode(ctx context.Context, email, codeKey, cooldownKey, subject, bodyFormat string) error {
	if s.onCooldown(ctx, cooldownKey) {
		return ErrCooldown
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generating verification code: %w", err)
	}
	if err := s.Cache.Set(ctx, codeKey, code, s.CodeTTL); err != nil {
		return err
	}
	if err := s.Cache.Set(ctx, cooldownKey, "1", s.CooldownTTL); err != nil {
		return err
	}

	if err := s.Mailer.Send([]string{email}, subject, fmt.Sprintf(bodyFormat, code)); err != nil {
		s.Logger.Error("Failed to send verification code", zap.Error(err))
		return fmt.Errorf("sending verification code: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// consumeCode compares and deletes in one step: a code is single-use even
// when the subsequent step fails.
func (s *CodeService) consumeCode(ctx context.Context, key, code string) error {
	stored, err := s.Cache.Get(ctx, key)
	if errors.Is(err, cache.ErrNotFound) {
		return ErrCodeInvalid
	}
	if err != nil {
		return err
	}
	if code == "" || stored != code {
		return ErrCodeInvalid
	}
	return s.Cache.Delete(ctx, key)
}

func (s *CodeService) onCooldown(ctx context.Context, key string) bool {
	_, err := s.Cache.Get(ctx, key)
	return err == nil
}

// generateCode draws a 6-digit zero-padded numeric code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
