package handler

import (
	"net/http"
	"regexp"
	"testing"

	"github.com/crm/backend/internal/application/identity"
	"github.com/crm/backend/internal/domain/crm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_LoginPageUsesTenantLanguage(t *testing.T) {
	env := newTestEnv(t)
	tenant := env.createTenant("acme", "en")

	rec := env.do(http.MethodGet, "/auth/login", nil, withHost("acme.crm.test"))
	rec2 := env.do(http.MethodGet, "/auth/login", nil, withTenant(tenant.ID))

	for _, r := range []int{rec.Code, rec2.Code} {
		assert.Equal(t, http.StatusOK, r)
	}
	var page identity.FormPage
	decode(t, rec2, &page)
	assert.Equal(t, "en", page.Lang)
	assert.Equal(t, "Sign in", page.Labels["title"])
}

func TestAuth_LoginFlow(t *testing.T) {
	env := newTestEnv(t)
	tenant := env.createTenant("acme", "ru")
	user := env.createUser(tenant.ID, "manager", false)
	sp := env.createSalesPerson(tenant.ID, user.ID, crm.SalesRoleManager, "en")

	rec := env.do(http.MethodPost, "/auth/login",
		LoginRequest{Username: "manager", Password: "secret123"}, withTenant(tenant.ID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var login LoginResponse
	decode(t, rec, &login)
	assert.NotEmpty(t, login.Token.AccessToken)
	assert.Equal(t, "Bearer", login.Token.TokenType)
	assert.Equal(t, "en", login.User.Lang, "the sales person language wins over the tenant")
	require.NotNil(t, login.User.SalesPersonID)
	assert.Equal(t, sp.ID, *login.User.SalesPersonID)

	me := env.do(http.MethodGet, "/auth/me", nil, withToken(login.Token.AccessToken))
	require.Equal(t, http.StatusOK, me.Code)
	var meResult identity.MeResult
	decode(t, me, &meResult)
	assert.Equal(t, "manager", meResult.User.Username)
	assert.NotEmpty(t, meResult.Card)
	assert.Equal(t, "en", me.Header().Get("Content-Language"))

	out := env.do(http.MethodPost, "/auth/logout", nil, withToken(login.Token.AccessToken))
	require.Equal(t, http.StatusOK, out.Code)
	var msg MessageResponse
	decode(t, out, &msg)
	assert.Equal(t, "You have been signed out", msg.Message)

	again := env.do(http.MethodGet, "/auth/me", nil, withToken(login.Token.AccessToken))
	assert.Equal(t, http.StatusUnauthorized, again.Code)
	assert.Equal(t, "TOKEN_REVOKED", decode(t, again, nil).Error.Code)
}

func TestAuth_LoginFailures(t *testing.T) {
	env := newTestEnv(t)
	tenant := env.createTenant("acme", "ru")
	env.createUser(tenant.ID, "orphan", false)

	t.Run("wrong password", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/auth/login",
			LoginRequest{Username: "orphan", Password: "nope"}, withTenant(tenant.ID))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		body := decode(t, rec, nil)
		assert.Equal(t, "INVALID_CREDENTIALS", body.Error.Code)
		assert.Equal(t, "Неверный логин или пароль", body.Error.Message)
	})

	t.Run("no sales person", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/auth/login",
			LoginRequest{Username: "orphan", Password: "secret123"}, withTenant(tenant.ID))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		body := decode(t, rec, nil)
		assert.Equal(t, "SALESPERSON_REQUIRED", body.Error.Code)
		assert.Empty(t, body.Data)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/auth/login", map[string]string{"username": "orphan"}, withTenant(tenant.ID))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decode(t, rec, nil)
		require.Len(t, body.Error.Details, 1)
		assert.Equal(t, "password", body.Error.Details[0].Field)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/auth/login",
			LoginRequest{Username: "orphan", Password: "secret123"}, withHost("ghost.crm.test"))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAuth_RefreshRotatesTokens(t *testing.T) {
	env := newTestEnv(t)
	tenant := env.createTenant("acme", "ru")
	env.createUser(tenant.ID, "boss", true)

	rec := env.do(http.MethodPost, "/auth/login",
		LoginRequest{Username: "boss", Password: "secret123"}, withTenant(tenant.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	var login LoginResponse
	decode(t, rec, &login)

	refreshed := env.do(http.MethodPost, "/auth/refresh", RefreshTokenRequest{RefreshToken: login.Token.RefreshToken})
	require.Equal(t, http.StatusOK, refreshed.Code, refreshed.Body.String())
	var pair RefreshTokenResponse
	decode(t, refreshed, &pair)
	assert.NotEmpty(t, pair.Token.AccessToken)

	reused := env.do(http.MethodPost, "/auth/refresh", RefreshTokenRequest{RefreshToken: login.Token.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, reused.Code)
}

var activationKey = regexp.MustCompile(`/activate/([A-Za-z0-9_-]+)`)

func TestAuth_RegisterAndActivate(t *testing.T) {
	env := newTestEnv(t)
	tenant := env.createTenant("acme", "en")

	mismatch := env.do(http.MethodPost, "/auth/register", RegisterRequest{
		Username: "newbie", Email: "newbie@example.com", Password1: "secret123", Password2: "secret124",
	}, withTenant(tenant.ID))
	assert.Equal(t, http.StatusBadRequest, mismatch.Code)
	body := decode(t, mismatch, nil)
	assert.Equal(t, "PASSWORD_MISMATCH", body.Error.Code)
	assert.Equal(t, "The passwords do not match", body.Error.Message)

	rec := env.do(http.MethodPost, "/auth/register", RegisterRequest{
		Username: "newbie", Email: "newbie@example.com", Password1: "secret123", Password2: "secret123",
	}, withTenant(tenant.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var registered identity.RegisterResult
	decode(t, rec, &registered)
	assert.True(t, registered.ActivationMailSent)

	taken := env.do(http.MethodPost, "/auth/register", RegisterRequest{
		Username: "newbie", Email: "other@example.com", Password1: "secret123", Password2: "secret123",
	}, withTenant(tenant.ID))
	assert.Equal(t, http.StatusConflict, taken.Code)

	sent := env.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "newbie@example.com", sent[0].ToAddress)
	match := activationKey.FindStringSubmatch(sent[0].Text)
	require.Len(t, match, 2)

	activated := env.do(http.MethodPost, "/auth/activate", ActivateRequest{Key: match[1]})
	require.Equal(t, http.StatusOK, activated.Code, activated.Body.String())
	var user identity.UserDTO
	decode(t, activated, &user)
	assert.Equal(t, "active", user.Status)

	replay := env.do(http.MethodPost, "/auth/activate", ActivateRequest{Key: match[1]})
	assert.Equal(t, http.StatusBadRequest, replay.Code)
}
