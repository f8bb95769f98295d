package service

import (
	"testing"

	"github.com/Code-Vida/apistock/internal/apierror"
	"github.com/Code-Vida/apistock/internal/config"
	"github.com/Code-Vida/apistock/internal/dto"
	"github.com/Code-Vida/apistock/internal/tenant"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthService(env *testEnv) *authService {
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpirationHours: 1, JWTRefreshHours: 24}
	return &authService{repos: env.repos, uow: env.uow, cfg: cfg, cost: bcrypt.MinCost}
}

func signUp(t *testing.T, svc *authService, env *testEnv) *dto.LoginResponse {
	t.Helper()
	res, err := svc.SignUp(env.ctx(tenant.Principal{}), dto.SignUpRequest{
		StoreName: "Sapataria Bela", Name: "Ana", Email: "Ana@Loja.com", Password: "segredo1",
	})
	require.NoError(t, err)
	return res
}

func TestAuthService_SignUpLoginRefresh(t *testing.T) {
	env := newTestEnv()
	svc := newTestAuthService(env)

	res := signUp(t, svc, env)
	assert.Equal(t, tenant.RoleAdmin, res.User.Role)
	assert.Equal(t, "bearer", res.TokenType)
	assert.Equal(t, 3600, res.ExpiresIn)

	claims, err := ParseToken("test-secret", res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, TokenAccess, claims.Kind)
	p, err := claims.Principal()
	require.NoError(t, err)
	assert.Equal(t, res.User.StoreID, p.StoreID.String())

	login, err := svc.Login(env.ctx(tenant.Principal{}), dto.LoginRequest{Email: "ana@loja.com", Password: "segredo1"})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)

	refreshed, err := svc.Refresh(env.ctx(tenant.Principal{}), login.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, refreshed.User.ID)

	_, err = svc.Refresh(env.ctx(tenant.Principal{}), login.AccessToken)
	assert.Equal(t, apierror.KindAuthorization, apierror.KindOf(err), "access token is not a refresh token")
}

func TestAuthService_LoginWrongPassword(t *testing.T) {
	env := newTestEnv()
	svc := newTestAuthService(env)
	signUp(t, svc, env)

	_, err := svc.Login(env.ctx(tenant.Principal{}), dto.LoginRequest{Email: "ana@loja.com", Password: "errada123"})
	assert.ErrorIs(t, err, errInvalidCredentials)

	_, err = svc.Login(env.ctx(tenant.Principal{}), dto.LoginRequest{Email: "ninguem@loja.com", Password: "segredo1"})
	assert.ErrorIs(t, err, errInvalidCredentials)
}

func TestAuthService_SignUpDuplicateEmailRollsBackStore(t *testing.T) {
	env := newTestEnv()
	svc := newTestAuthService(env)
	signUp(t, svc, env)
	stores := len(env.db.stores)

	_, err := svc.SignUp(env.ctx(tenant.Principal{}), dto.SignUpRequest{
		StoreName: "Outra Loja", Name: "Bia", Email: "ana@loja.com", Password: "segredo2",
	})

	assert.Equal(t, apierror.KindConflict, apierror.KindOf(err))
	assert.Len(t, env.db.stores, stores)
}

func TestAuthService_ManagerPin(t *testing.T) {
	env := newTestEnv()
	svc := newTestAuthService(env)
	res := signUp(t, svc, env)
	adminID := uuid.MustParse(res.User.ID)
	storeID := uuid.MustParse(res.User.StoreID)
	admin := env.ctx(tenant.Principal{UserID: adminID, StoreID: storeID, Role: tenant.RoleAdmin})
	seller := env.ctx(tenant.Principal{UserID: uuid.New(), StoreID: storeID, Role: tenant.RoleSeller})

	err := svc.SetManagerPin(seller, "1234")
	assert.Equal(t, apierror.KindAuthorization, apierror.KindOf(err))

	err = svc.SetManagerPin(admin, "12a4")
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))

	require.NoError(t, svc.SetManagerPin(admin, "4321"))

	ok, err := svc.AuthorizeAction(seller, "4321")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.AuthorizeAction(seller, "0000")
	assert.False(t, ok)
	assert.Equal(t, apierror.KindAuthorization, apierror.KindOf(err))
}

func TestAuthService_UsersAreManagedByAdmins(t *testing.T) {
	env := newTestEnv()
	svc := newTestAuthService(env)
	res := signUp(t, svc, env)
	admin := tenant.Principal{UserID: uuid.MustParse(res.User.ID), StoreID: uuid.MustParse(res.User.StoreID), Role: tenant.RoleAdmin}
	req := dto.CreateUserRequest{Name: "Caio", Email: "caio@loja.com", Password: "segredo3", Role: tenant.RoleSeller}

	_, err := svc.CreateUser(env.ctx(tenant.Principal{UserID: uuid.New(), StoreID: admin.StoreID, Role: tenant.RoleSeller}), req)
	assert.ErrorIs(t, err, apierror.ErrForbidden)

	user, err := svc.CreateUser(env.ctx(admin), req)
	require.NoError(t, err)
	assert.Equal(t, admin.StoreID, user.StoreID)

	users, err := svc.ListUsers(env.ctx(admin))
	require.NoError(t, err)
	assert.Len(t, users, 2)

	err = svc.DeleteUser(env.ctx(admin), admin.UserID)
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))

	require.NoError(t, svc.DeleteUser(env.ctx(admin), user.ID))
	users, err = svc.ListUsers(env.ctx(admin))
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
