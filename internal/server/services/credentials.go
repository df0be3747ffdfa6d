// Package services contains the server-side business logic. This file
// implements CredentialService, which runs the credential-exchange
// protocol: key leasing, registration, login, TFA verification and the
// login-token to access-token upgrade.
package services

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"github.com/dmitrijs2005/clipher/internal/common"
	"github.com/dmitrijs2005/clipher/internal/cryptox"
	"github.com/dmitrijs2005/clipher/internal/logging"
	"github.com/dmitrijs2005/clipher/internal/server/auth"
	"github.com/dmitrijs2005/clipher/internal/server/config"
	"github.com/dmitrijs2005/clipher/internal/server/models"
	"github.com/dmitrijs2005/clipher/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/clipher/internal/workerpool"
	"github.com/jonboulle/clockwork"
)

// KeyLease is what a client learns from RequestEncryptionKey.
type KeyLease struct {
	PublicKey string
	ExpiresAt time.Time
}

// Registration is returned once an account is created. PublicKey is the
// account's long-lived relay key for future logins.
type Registration struct {
	EncryptedTfaSecret string
	TfaIV              string
	TfaSalt            string
	PublicKey          string
}

type LoginResult struct {
	LoginToken string
	ExpiresAt  time.Time
}

type AccessGrant struct {
	AccessToken string
	ExpiresAt   time.Time
}

type CredentialService struct {
	repomanager repomanager.RepositoryManager
	crypto      Crypto
	signer      *auth.Signer
	pool        *workerpool.Pool
	cache       *decryptCache
	clock       clockwork.Clock
	log         logging.Logger

	keyLeaseTTL       time.Duration
	loginTokenTTL     time.Duration
	accessTokenTTL    time.Duration
	maxPasswordLength int
}

func NewCredentialService(
	m repomanager.RepositoryManager,
	crypto Crypto,
	signer *auth.Signer,
	pool *workerpool.Pool,
	clock clockwork.Clock,
	cfg *config.Config,
	log logging.Logger,
) *CredentialService {
	cacheTTL := min(cfg.DecryptCacheTTL, cfg.LoginTokenTTL)

	return &CredentialService{
		repomanager:       m,
		crypto:            crypto,
		signer:            signer,
		pool:              pool,
		cache:             newDecryptCache(crypto, pool, cfg.DecryptCacheSize, cacheTTL),
		clock:             clock,
		log:               log.With("module", "credentials"),
		keyLeaseTTL:       cfg.KeyLeaseTTL,
		loginTokenTTL:     cfg.LoginTokenTTL,
		accessTokenTTL:    cfg.AccessTokenTTL,
		maxPasswordLength: cfg.MaxPasswordLength,
	}
}

// RequestEncryptionKey leases an RSA key pair to userName for ip. A repeat
// request from the same IP gets the live lease back.
func (s *CredentialService) RequestEncryptionKey(ctx context.Context, userName, ip string) (*KeyLease, error) {
	exists, err := s.repomanager.Users().Exists(ctx, userName)
	if err != nil {
		return nil, s.internal(ctx, "check user", err)
	}
	if exists {
		return nil, common.ErrUserExists
	}

	now := s.clock.Now()

	current, err := s.repomanager.Leases().Get(ctx, userName)
	switch {
	case err == nil && !current.Expired(now):
		if current.IP != ip {
			return nil, common.ErrRequestedFromOtherIP
		}
		return &KeyLease{PublicKey: current.PublicKey, ExpiresAt: current.ExpiresAt}, nil
	case err != nil && !errors.Is(err, common.ErrorNotFound):
		return nil, s.internal(ctx, "get lease", err)
	}

	kp, err := workerpool.Do(ctx, s.pool, s.crypto.GenerateKeyPair)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.log.Error(ctx, "key generation failed", "username", userName, "error", err)
		return nil, common.ErrKeyGeneration
	}

	stored, err := s.repomanager.Leases().Add(ctx, &models.Lease{
		UserName:   userName,
		PublicKey:  kp.PublicPEM,
		PrivateKey: kp.PrivatePEM,
		IP:         ip,
		ExpiresAt:  now.Add(s.keyLeaseTTL),
		CreatedAt:  now,
	}, now)
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrRequestedFromOtherIP
		}
		return nil, s.internal(ctx, "add lease", err)
	}

	return &KeyLease{PublicKey: stored.PublicKey, ExpiresAt: stored.ExpiresAt}, nil
}

// Register creates the account for userName from a password encrypted
// under the leased public key.
func (s *CredentialService) Register(ctx context.Context, userName, encryptedPasswordHex string) (*Registration, error) {
	now := s.clock.Now()

	lease, err := s.repomanager.Leases().Get(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrTokenNotFound
		}
		return nil, s.internal(ctx, "get lease", err)
	}
	if lease.Expired(now) {
		return nil, common.ErrTokenNotFound
	}

	exists, err := s.repomanager.Users().Exists(ctx, userName)
	if err != nil {
		return nil, s.internal(ctx, "check user", err)
	}
	if exists {
		return nil, common.ErrUserExists
	}

	password, err := s.cache.Decrypt(ctx, encryptedPasswordHex, lease.PrivateKey)
	if err != nil {
		return nil, s.decryptError(ctx, err, common.ErrCantDecryptPassword)
	}
	defer common.WipeByteArray(password)
	s.cache.Evict(encryptedPasswordHex, lease.PrivateKey)

	if len(password) > s.maxPasswordLength {
		return nil, common.ErrPasswordTooLong
	}

	hash, err := runWithSecret(ctx, s.pool, password, func(p []byte) (string, error) {
		return s.crypto.PasswordHash(p)
	})
	if err != nil {
		return nil, s.cryptoError(ctx, "hash password", err)
	}

	kp, err := workerpool.Do(ctx, s.pool, s.crypto.GenerateKeyPair)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.log.Error(ctx, "key generation failed", "username", userName, "error", err)
		return nil, common.ErrKeyGeneration
	}

	secret, err := s.crypto.OtpGenerateSecret(userName)
	if err != nil {
		return nil, s.internal(ctx, "generate tfa secret", err)
	}
	secretBytes := []byte(secret)
	defer common.WipeByteArray(secretBytes)

	salt, iv := cryptox.NewSaltAndNonce()
	encSecret, err := runWithSecret(ctx, s.pool, password, func(p []byte) ([]byte, error) {
		return s.crypto.SymmetricEncrypt(secretBytes, p, salt, iv)
	})
	if err != nil {
		return nil, s.cryptoError(ctx, "encrypt tfa secret", err)
	}

	user := &models.User{
		UserName:           userName,
		HashedPassword:     hash,
		PublicKey:          kp.PublicPEM,
		PrivateKey:         kp.PrivatePEM,
		EncryptedTfaSecret: hex.EncodeToString(encSecret),
		TfaIV:              hex.EncodeToString(iv),
		TfaSalt:            hex.EncodeToString(salt),
		TfaVerified:        false,
		CreatedAt:          now,
	}
	if err := s.repomanager.Users().Add(ctx, user); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrUserExists
		}
		return nil, s.internal(ctx, "add user", err)
	}

	// The sweeper removes the lease on expiry if this fails.
	if _, err := s.repomanager.Leases().Remove(ctx, userName); err != nil {
		s.log.Warn(ctx, "could not remove used lease", "username", userName, "error", err)
	}

	s.log.Info(ctx, "user registered", "username", userName)

	return &Registration{
		EncryptedTfaSecret: user.EncryptedTfaSecret,
		TfaIV:              user.TfaIV,
		TfaSalt:            user.TfaSalt,
		PublicKey:          user.PublicKey,
	}, nil
}

// Login checks the password and issues a single-use login token for the
// TFA step. Unknown users and wrong passwords are indistinguishable.
func (s *CredentialService) Login(ctx context.Context, userName, encryptedPasswordHex string) (*LoginResult, error) {
	user, err := s.repomanager.Users().Get(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, s.internal(ctx, "get user", err)
	}

	password, err := s.cache.Decrypt(ctx, encryptedPasswordHex, user.PrivateKey)
	if err != nil {
		return nil, s.decryptError(ctx, err, common.ErrCantDecryptPassword)
	}
	defer common.WipeByteArray(password)

	ok, err := s.verifyPassword(ctx, user.HashedPassword, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.cache.Evict(encryptedPasswordHex, user.PrivateKey)
		return nil, common.ErrInvalidCredentials
	}

	token, err := s.crypto.SecureRandomToken()
	if err != nil {
		return nil, s.internal(ctx, "generate login token", err)
	}

	lt := &models.LoginToken{
		Token:                token,
		UserName:             userName,
		EncryptedPasswordHex: encryptedPasswordHex,
		ExpiresAt:            s.clock.Now().Add(s.loginTokenTTL),
	}
	if err := s.repomanager.LoginTokens().Add(ctx, lt); err != nil {
		return nil, s.internal(ctx, "add login token", err)
	}

	return &LoginResult{LoginToken: lt.Token, ExpiresAt: lt.ExpiresAt}, nil
}

// VerifyTfa confirms, once per account, that the user's authenticator
// produces valid codes for the stored secret.
func (s *CredentialService) VerifyTfa(ctx context.Context, userName, encryptedPasswordHex, code string) error {
	user, err := s.repomanager.Users().Get(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidCredentials
		}
		return s.internal(ctx, "get user", err)
	}
	if user.TfaVerified {
		return common.ErrTfaAlreadyVerified
	}

	password, err := s.cache.Decrypt(ctx, encryptedPasswordHex, user.PrivateKey)
	if err != nil {
		return s.decryptError(ctx, err, common.ErrCantDecryptPassword)
	}
	defer common.WipeByteArray(password)
	s.cache.Evict(encryptedPasswordHex, user.PrivateKey)

	ok, err := s.verifyPassword(ctx, user.HashedPassword, password)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrInvalidCredentials
	}

	secret, err := s.decryptTfaSecret(ctx, user, password)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(secret)

	if !s.crypto.OtpVerify(string(secret), code, s.clock.Now()) {
		return common.ErrWrongTfaCode
	}

	flipped, err := s.repomanager.Users().SetTfaVerified(ctx, userName)
	if err != nil {
		return s.internal(ctx, "set tfa verified", err)
	}
	if !flipped {
		return common.ErrTfaAlreadyVerified
	}

	s.log.Info(ctx, "tfa verified", "username", userName)
	return nil
}

// CheckTfa exchanges a login token and a valid OTP for an access token.
// The login token is consumed on success and on terminal failures; a
// wrong OTP leaves it in place for another attempt.
func (s *CredentialService) CheckTfa(ctx context.Context, loginToken, otp string) (*AccessGrant, error) {
	now := s.clock.Now()

	lt, err := s.repomanager.LoginTokens().Get(ctx, loginToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidLoginToken
		}
		return nil, s.internal(ctx, "get login token", err)
	}
	if lt.Expired(now) {
		s.discardLoginToken(ctx, lt, "")
		return nil, common.ErrInvalidLoginToken
	}

	user, err := s.repomanager.Users().Get(ctx, lt.UserName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.discardLoginToken(ctx, lt, "")
			return nil, common.ErrLoginTokenUserNotFound
		}
		return nil, s.internal(ctx, "get user", err)
	}

	password, err := s.cache.Decrypt(ctx, lt.EncryptedPasswordHex, user.PrivateKey)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.discardLoginToken(ctx, lt, user.PrivateKey)
		return nil, common.ErrEncryptionConflictCheckTfa
	}
	defer common.WipeByteArray(password)

	ok, err := s.verifyPassword(ctx, user.HashedPassword, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.discardLoginToken(ctx, lt, user.PrivateKey)
		return nil, common.ErrEncryptionConflictCheckTfa
	}

	secret, err := s.decryptTfaSecret(ctx, user, password)
	if err != nil {
		if errors.Is(err, common.ErrCantDecryptTfaSecret) {
			s.discardLoginToken(ctx, lt, user.PrivateKey)
		}
		return nil, err
	}
	defer common.WipeByteArray(secret)

	if !s.crypto.OtpVerify(string(secret), otp, s.clock.Now()) {
		return nil, common.ErrWrongTfaCode
	}

	expiresAt := s.clock.Now().Add(s.accessTokenTTL)
	token, err := s.signer.GenerateToken(expiresAt)
	if err != nil {
		return nil, s.internal(ctx, "sign access token", err)
	}

	err = s.repomanager.WithTx(ctx, func(ctx context.Context, tx repomanager.RepositoryManager) error {
		removed, err := tx.LoginTokens().Remove(ctx, lt.Token)
		if err != nil {
			return err
		}
		if !removed {
			return common.ErrInvalidLoginToken
		}
		return tx.AccessTokens().Add(ctx, &models.AccessToken{Token: token, UserName: user.UserName, ExpiresAt: expiresAt})
	})
	if err != nil {
		if errors.Is(err, common.ErrInvalidLoginToken) {
			return nil, err
		}
		return nil, s.internal(ctx, "issue access token", err)
	}
	s.cache.Evict(lt.EncryptedPasswordHex, user.PrivateKey)

	s.log.Info(ctx, "access granted", "username", user.UserName)
	return &AccessGrant{AccessToken: token, ExpiresAt: expiresAt}, nil
}

// Authenticate resolves a live access token to its account. The token's
// signature is checked first; the stored record names the account.
func (s *CredentialService) Authenticate(ctx context.Context, accessToken string) (string, error) {
	if err := s.signer.Verify(accessToken); err != nil {
		return "", common.ErrorUnauthorized
	}

	at, err := s.repomanager.AccessTokens().Get(ctx, accessToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", s.internal(ctx, "get access token", err)
	}
	if at.Expired(s.clock.Now()) {
		return "", common.ErrorUnauthorized
	}

	return at.UserName, nil
}

// Logout revokes an access token.
func (s *CredentialService) Logout(ctx context.Context, accessToken string) error {
	userName, err := s.Authenticate(ctx, accessToken)
	if err != nil {
		return err
	}

	removed, err := s.repomanager.AccessTokens().Remove(ctx, accessToken)
	if err != nil {
		return s.internal(ctx, "remove access token", err)
	}
	if !removed {
		return common.ErrorUnauthorized
	}

	s.log.Info(ctx, "logged out", "username", userName)
	return nil
}

// --- helpers below ---

func (s *CredentialService) verifyPassword(ctx context.Context, hash string, password []byte) (bool, error) {
	ok, err := runWithSecret(ctx, s.pool, password, func(p []byte) (bool, error) {
		return s.crypto.PasswordVerify(hash, p), nil
	})
	if err != nil {
		return false, ctx.Err()
	}
	return ok, nil
}

func (s *CredentialService) decryptTfaSecret(ctx context.Context, user *models.User, password []byte) ([]byte, error) {
	enc, err1 := hex.DecodeString(user.EncryptedTfaSecret)
	iv, err2 := hex.DecodeString(user.TfaIV)
	salt, err3 := hex.DecodeString(user.TfaSalt)
	if err := errors.Join(err1, err2, err3); err != nil {
		s.log.Error(ctx, "stored tfa secret is malformed", "username", user.UserName, "error", err)
		return nil, common.ErrCantDecryptTfaSecret
	}

	secret, err := runWithSecret(ctx, s.pool, password, func(p []byte) ([]byte, error) {
		return s.crypto.SymmetricDecrypt(enc, p, salt, iv)
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, common.ErrCantDecryptTfaSecret
	}
	return secret, nil
}

// discardLoginToken removes a login token that can never succeed.
func (s *CredentialService) discardLoginToken(ctx context.Context, lt *models.LoginToken, privatePEM string) {
	if privatePEM != "" {
		s.cache.Evict(lt.EncryptedPasswordHex, privatePEM)
	}
	if _, err := s.repomanager.LoginTokens().Remove(ctx, lt.Token); err != nil {
		s.log.Warn(ctx, "could not remove login token", "username", lt.UserName, "error", err)
	}
}

func (s *CredentialService) decryptError(ctx context.Context, err error, kind error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, cryptox.ErrDecrypt) {
		return kind
	}
	return s.internal(ctx, "decrypt", err)
}

func (s *CredentialService) cryptoError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return s.internal(ctx, op, err)
}

func (s *CredentialService) internal(ctx context.Context, op string, err error) error {
	s.log.Error(ctx, "credential operation failed", "op", op, "error", err)
	return common.ErrorInternal
}
