package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kendall-kelly/home-therapy-api/models"
	"github.com/kendall-kelly/home-therapy-api/tests/testutil"
)

// stubUserInfo answers GetUserInfo with a fixed profile or error
type stubUserInfo struct {
	info  *Auth0UserInfo
	err   error
	calls int
}

func (s *stubUserInfo) GetUserInfo(context.Context, string) (*Auth0UserInfo, error) {
	s.calls++
	return s.info, s.err
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	svc := NewUserService(env.store, nil, env.log)
	ctx := t.Context()

	user, err := svc.Register(ctx, "auth0|new", "", RegisterInput{Username: "Mei", Phone: "13811112222", Email: "mei@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Mei", user.Username)
	assert.Equal(t, models.RoleUser, user.Role)

	_, err = svc.Register(ctx, "auth0|new", "", RegisterInput{Phone: "13811113333"})
	requireConflict(t, err, "user already registered")

	_, err = svc.Register(ctx, "auth0|other", "", RegisterInput{Phone: "13811112222"})
	requireConflict(t, err, "phone number already in use")

	_, err = svc.Register(ctx, "auth0|nophone", "", RegisterInput{Username: "x"})
	requireValidation(t, err, "phone is required")

	_, err = svc.Register(ctx, "auth0|bademail", "", RegisterInput{Phone: "13811114444", Email: "not-an-email"})
	requireValidation(t, err, "invalid email")
}

func TestRegister_FillsFromUserInfo(t *testing.T) {
	env := newTestEnv(t)
	info := &stubUserInfo{info: &Auth0UserInfo{Sub: "auth0|filled", Name: "Filled Name", Email: "filled@example.com"}}
	svc := NewUserService(env.store, info, env.log)

	user, err := svc.Register(t.Context(), "auth0|filled", "token", RegisterInput{Phone: "13822223333"})
	require.NoError(t, err)
	assert.Equal(t, 1, info.calls)
	assert.Equal(t, "Filled Name", user.Username)
	assert.Equal(t, "filled@example.com", user.Email)
}

func TestRegister_UserInfoFailureFallsBackToPhone(t *testing.T) {
	env := newTestEnv(t)
	info := &stubUserInfo{err: assert.AnError}
	svc := NewUserService(env.store, info, env.log)

	user, err := svc.Register(t.Context(), "auth0|fallback", "token", RegisterInput{Phone: "13833334444"})
	require.NoError(t, err)
	assert.Equal(t, "13833334444", user.Username)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "auth0|profile")
	other := testutil.CreateUser(t, env.db, "auth0|other")
	svc := NewUserService(env.store, nil, env.log)
	ctx := t.Context()

	name := "Renamed"
	updated, err := svc.UpdateProfile(ctx, user.ID, ProfileUpdate{Username: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Username)
	assert.Equal(t, user.Phone, updated.Phone)

	_, err = svc.UpdateProfile(ctx, user.ID, ProfileUpdate{Phone: &other.Phone})
	requireConflict(t, err, "phone number already in use")

	blank := " "
	_, err = svc.UpdateProfile(ctx, user.ID, ProfileUpdate{Username: &blank})
	requireValidation(t, err, "username")

	_, err = svc.UpdateProfile(ctx, user.ID, ProfileUpdate{})
	requireValidation(t, err, "nothing to update")

	_, err = svc.UpdateProfile(ctx, 9999, ProfileUpdate{Username: &name})
	requireNotFound(t, err, "user not found")

	_, err = svc.GetProfile(ctx, 9999)
	requireNotFound(t, err, "user not found")
}

func TestResolveActor(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "auth0|customer")
	admin := testutil.CreateAdmin(t, env.db, "auth0|admin")
	own := testutil.CreateTherapist(t, env.db, "Own", models.TherapistStatusActive)
	linkedUser := testutil.CreateUser(t, env.db, "auth0|linked")
	linked := testutil.CreateTherapist(t, env.db, "Linked", models.TherapistStatusActive)
	require.NoError(t, env.db.Model(linked).Updates(map[string]any{"auth_subject": nil, "user_id": linkedUser.ID}).Error)
	suspended := testutil.CreateTherapist(t, env.db, "Suspended", models.TherapistStatusSuspended)
	svc := NewUserService(env.store, nil, env.log)
	ctx := t.Context()

	resolve := func(subject string, role models.Role) (models.Actor, bool) {
		t.Helper()
		actor, ok, err := svc.ResolveActor(ctx, subject, role)
		require.NoError(t, err)
		return actor, ok
	}

	actor, ok := resolve("auth0|customer", models.RoleUser)
	require.True(t, ok)
	assert.Equal(t, models.Actor{ID: user.ID, Role: models.RoleUser}, actor)

	actor, ok = resolve("auth0|admin", models.RoleUser)
	require.True(t, ok)
	assert.Equal(t, models.Actor{ID: admin.ID, Role: models.RoleAdmin}, actor)

	actor, ok = resolve(*own.AuthSubject, models.RoleTherapist)
	require.True(t, ok)
	assert.Equal(t, models.Actor{ID: own.ID, Role: models.RoleTherapist}, actor)

	actor, ok = resolve("auth0|linked", models.RoleTherapist)
	require.True(t, ok)
	assert.Equal(t, models.Actor{ID: linked.ID, Role: models.RoleTherapist}, actor)

	_, ok = resolve(*suspended.AuthSubject, models.RoleTherapist)
	assert.False(t, ok)

	// a customer account without a linked profile is not a therapist
	_, ok = resolve("auth0|customer", models.RoleTherapist)
	assert.False(t, ok)

	_, ok = resolve("auth0|nobody", models.RoleUser)
	assert.False(t, ok)
}
