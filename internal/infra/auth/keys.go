package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"

	"go.uber.org/zap"

	"github.com/xela07ax/hotel-guard/internal/infra"
)

// NewTokenServiceFromConfig собирает TokenService из PEM ключей конфигурации.
// Без ключей генерируется временная пара: токены не переживут рестарт (dev-режим).
func NewTokenServiceFromConfig(cfg infra.AuthConfig, logger *zap.Logger) (*TokenService, error) {
	var (
		pub  *rsa.PublicKey
		priv *rsa.PrivateKey
		err  error
	)
	if len(cfg.PrivateKey) > 0 {
		if priv, err = ParseRSAPrivateKey(cfg.PrivateKey); err != nil {
			return nil, err
		}
	}
	if len(cfg.PublicKey) > 0 {
		if pub, err = ParseRSAPublicKey(cfg.PublicKey); err != nil {
			return nil, err
		}
	}

	if priv == nil && pub == nil {
		logger.Warn("no RSA keys configured, generating an ephemeral key pair")
		if priv, err = rsa.GenerateKey(rand.Reader, 2048); err != nil {
			return nil, fmt.Errorf("auth: generate key: %w", err)
		}
	}
	if priv == nil {
		logger.Warn("private key is not configured, login is disabled")
	}
	return NewTokenService(pub, priv, cfg.Issuer, cfg.TokenTTL)
}
