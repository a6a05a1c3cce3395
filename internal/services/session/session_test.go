// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package session_test

import (
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codeberg.org/oliverandrich/votelink/internal/config"
	"codeberg.org/oliverandrich/votelink/internal/services/session"
	"github.com/gorilla/securecookie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	hashKey      = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	otherHashKey = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	blockKey     = "fedcba9876543210fedcba9876543210fedcba9876543210fedcba9876543210"
	cookieName   = "votelink_session"
)

func sessionConfig(hash, block string, maxAge int) *config.SessionConfig {
	return &config.SessionConfig{
		CookieName: cookieName,
		MaxAge:     maxAge,
		HashKey:    hash,
		BlockKey:   block,
	}
}

func newManager(t *testing.T, cfg *config.SessionConfig) *session.Manager {
	t.Helper()
	mgr, err := session.NewManager(cfg, true)
	require.NoError(t, err)
	return mgr
}

// accountCookie builds a cookie the way the account service issues it.
func accountCookie(t *testing.T, hash, block string, data session.Data) *http.Cookie {
	t.Helper()
	h, err := hex.DecodeString(hash)
	require.NoError(t, err)
	var b []byte
	if block != "" {
		b, err = hex.DecodeString(block)
		require.NoError(t, err)
	}
	codec := securecookie.New(h, b)
	codec.SetSerializer(securecookie.JSONEncoder{})
	value, err := codec.Encode(cookieName, data)
	require.NoError(t, err)
	return &http.Cookie{Name: cookieName, Value: value}
}

func parse(t *testing.T, mgr *session.Manager, cookies ...*http.Cookie) *session.Data {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	data, err := mgr.Parse(req)
	require.NoError(t, err)
	return data
}

func TestNewManager_KeyValidation(t *testing.T) {
	tests := []struct {
		name    string
		hash    string
		block   string
		wantErr string
	}{
		{"signed only", hashKey, "", ""},
		{"signed and encrypted", hashKey, blockKey, ""},
		{"generated hash key", "", "", ""},
		{"hash key not hex", "zz", "", "invalid session hash key"},
		{"hash key too short", hashKey[:32], "", "must be 32 bytes, got 16"},
		{"block key not hex", hashKey, "zz", "invalid session block key"},
		{"block key too long", hashKey, blockKey + "00", "must be 32 bytes, got 33"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr, err := session.NewManager(sessionConfig(tt.hash, tt.block, 3600), false)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.NotNil(t, mgr)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCreate_VoterSession(t *testing.T) {
	mgr := newManager(t, sessionConfig(hashKey, blockKey, 3600))
	before := time.Now().UTC()

	cookie, err := mgr.Create("voter-1")
	require.NoError(t, err)

	assert.Equal(t, cookieName, cookie.Name)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, 3600, cookie.MaxAge)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	data := parse(t, mgr, cookie)
	require.NotNil(t, data)
	assert.Equal(t, "voter-1", data.VoterID)
	assert.WithinDuration(t, before.Add(time.Hour), data.ExpiresAt, 2*time.Second)
}

func TestCreate_RequiresVoterID(t *testing.T) {
	mgr := newManager(t, sessionConfig(hashKey, "", 3600))

	_, err := mgr.Create("")
	assert.Error(t, err)
}

func TestParse_AccountServiceCookie(t *testing.T) {
	mgr := newManager(t, sessionConfig(hashKey, blockKey, 3600))
	cookie := accountCookie(t, hashKey, blockKey, session.Data{
		VoterID:   "voter-7",
		ExpiresAt: time.Now().Add(time.Hour),
	})

	data := parse(t, mgr, cookie)

	require.NotNil(t, data)
	assert.Equal(t, "voter-7", data.VoterID)
}

func TestParse_NoSession(t *testing.T) {
	mgr := newManager(t, sessionConfig(hashKey, "", 3600))

	assert.Nil(t, parse(t, mgr))
	assert.Nil(t, parse(t, mgr, &http.Cookie{Name: "other", Value: "voter-1"}))
	assert.Nil(t, parse(t, mgr, &http.Cookie{Name: cookieName, Value: "voter-1"}))
}

func TestParse_ExpiredSession(t *testing.T) {
	mgr := newManager(t, sessionConfig(hashKey, "", 3600))
	cookie := accountCookie(t, hashKey, "", session.Data{
		VoterID:   "voter-1",
		ExpiresAt: time.Now().Add(-time.Minute),
	})

	assert.Nil(t, parse(t, mgr, cookie))
}

func TestParse_SessionOlderThanMaxAge(t *testing.T) {
	mgr := newManager(t, sessionConfig(hashKey, "", 1))
	cookie := accountCookie(t, hashKey, "", session.Data{
		VoterID:   "voter-1",
		ExpiresAt: time.Now().Add(24 * time.Hour),
	})
	require.NotNil(t, parse(t, mgr, cookie))

	// The signed timestamp has second resolution.
	time.Sleep(2100 * time.Millisecond)

	assert.Nil(t, parse(t, mgr, cookie))
}

func TestParse_SessionWithoutVoter(t *testing.T) {
	mgr := newManager(t, sessionConfig(hashKey, "", 3600))
	cookie := accountCookie(t, hashKey, "", session.Data{ExpiresAt: time.Now().Add(time.Hour)})

	assert.Nil(t, parse(t, mgr, cookie))
}

func TestParse_ForeignHashKey(t *testing.T) {
	mgr := newManager(t, sessionConfig(hashKey, blockKey, 3600))
	cookie := accountCookie(t, otherHashKey, blockKey, session.Data{
		VoterID:   "voter-1",
		ExpiresAt: time.Now().Add(time.Hour),
	})

	assert.Nil(t, parse(t, mgr, cookie))
}

func TestParse_TamperedSession(t *testing.T) {
	mgr := newManager(t, sessionConfig(hashKey, "", 3600))
	cookie, err := mgr.Create("voter-1")
	require.NoError(t, err)

	cookie.Value = cookie.Value[:len(cookie.Value)-4] + "AAAA"

	assert.Nil(t, parse(t, mgr, cookie))
}

func TestParse_EncryptedSessionNeedsBlockKey(t *testing.T) {
	encrypted := newManager(t, sessionConfig(hashKey, blockKey, 3600))
	signedOnly := newManager(t, sessionConfig(hashKey, "", 3600))

	cookie, err := encrypted.Create("voter-1")
	require.NoError(t, err)

	assert.NotContains(t, cookie.Value, "voter-1")
	assert.Nil(t, parse(t, signedOnly, cookie))
	assert.NotNil(t, parse(t, encrypted, cookie))
}

func TestParse_GeneratedKeysAreNotShared(t *testing.T) {
	first := newManager(t, sessionConfig("", "", 3600))
	second := newManager(t, sessionConfig("", "", 3600))

	cookie, err := first.Create("voter-1")
	require.NoError(t, err)

	assert.NotNil(t, parse(t, first, cookie))
	assert.Nil(t, parse(t, second, cookie))
}

func TestClear(t *testing.T) {
	mgr := newManager(t, sessionConfig(hashKey, "", 3600))

	cookie := mgr.Clear()

	assert.Equal(t, cookieName, cookie.Name)
	assert.Empty(t, cookie.Value)
	assert.Equal(t, -1, cookie.MaxAge)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
}
