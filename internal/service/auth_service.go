package service

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/Code-Vida/apistock/internal/apierror"
	"github.com/Code-Vida/apistock/internal/config"
	"github.com/Code-Vida/apistock/internal/dto"
	"github.com/Code-Vida/apistock/internal/model"
	"github.com/Code-Vida/apistock/internal/repository"
	"github.com/Code-Vida/apistock/internal/tenant"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Token kinds carried in the "kind" claim.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

var pinPattern = regexp.MustCompile(`^\d{4}$`)

var errInvalidCredentials = apierror.Authorization("credenciais inválidas")

type AuthService interface {
	SignUp(ctx context.Context, req dto.SignUpRequest) (*dto.LoginResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	Me(ctx context.Context) (*model.User, error)
	CreateUser(ctx context.Context, req dto.CreateUserRequest) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	SetManagerPin(ctx context.Context, pin string) error
	// AuthorizeAction reports whether pin matches the manager PIN of any
	// admin of the caller's store.
	AuthorizeAction(ctx context.Context, pin string) (bool, error)
}

type authService struct {
	repos repository.Factory
	uow   repository.UnitOfWork
	cfg   *config.Config
	cost  int
}

func NewAuthService(repos repository.Factory, uow repository.UnitOfWork, cfg *config.Config) AuthService {
	return &authService{repos: repos, uow: uow, cfg: cfg, cost: 12}
}

// ── SignUp ────────────────────────────────────────────────────────────────────
// The store and its first admin are created together.

func (s *authService) SignUp(ctx context.Context, req dto.SignUpRequest) (*dto.LoginResponse, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, err
	}

	store := &model.Store{ID: uuid.New(), Name: req.StoreName}
	user := &model.User{
		ID:           uuid.New(),
		StoreID:      store.ID,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         tenant.RoleAdmin,
		Active:       true,
	}
	err = s.uow.Run(ctx, func(ctx context.Context, tx *gorm.DB) error {
		repos := s.repos.For(ctx)
		if err := repos.Stores.Create(ctx, tx, store); err != nil {
			return err
		}
		return repos.Users.Create(ctx, tx, user)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("store_id", store.ID.String()).Str("user_id", user.ID.String()).Msg("loja cadastrada")
	return s.issue(user)
}

// ── Login / Refresh ───────────────────────────────────────────────────────────

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	user, err := s.repos.For(ctx).Users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errInvalidCredentials
	}
	return s.issue(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	claims, err := ParseToken(s.cfg.JWTSecret, refreshToken)
	if err != nil || claims.Kind != TokenRefresh {
		return nil, apierror.Authorization("refresh token inválido ou expirado")
	}
	uid, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, apierror.Authorization("token mal formado")
	}
	user, err := s.repos.For(ctx).Users.FindByID(ctx, uid)
	if err != nil || !user.Active {
		return nil, apierror.Authorization("usuário não encontrado ou inativo")
	}
	return s.issue(user)
}

func (s *authService) issue(user *model.User) (*dto.LoginResponse, error) {
	access, err := s.generateToken(user, TokenAccess, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refresh, err := s.generateToken(user, TokenRefresh, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         UserResponse(user),
	}, nil
}

// Claims are the custom claims embedded in every token.
type Claims struct {
	UserID  string `json:"user_id"`
	StoreID string `json:"store_id"`
	Role    string `json:"role"`
	Kind    string `json:"kind"`
	jwt.RegisteredClaims
}

// Principal converts validated claims into the request principal.
func (c *Claims) Principal() (tenant.Principal, error) {
	uid, err := uuid.Parse(c.UserID)
	if err != nil {
		return tenant.Principal{}, err
	}
	sid, err := uuid.Parse(c.StoreID)
	if err != nil {
		return tenant.Principal{}, err
	}
	return tenant.Principal{UserID: uid, StoreID: sid, Role: c.Role}, nil
}

func (s *authService) generateToken(user *model.User, kind string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:  user.ID.String(),
		StoreID: user.StoreID.String(),
		Role:    user.Role,
		Kind:    kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// ParseToken validates an HS256 token signed with secret.
func ParseToken(secret, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// ── Users ─────────────────────────────────────────────────────────────────────

func (s *authService) Me(ctx context.Context) (*model.User, error) {
	p, ok := tenant.FromContext(ctx)
	if !ok {
		return nil, apierror.ErrUnauthenticated
	}
	return s.repos.For(ctx).Users.FindByID(ctx, p.UserID)
}

func (s *authService) CreateUser(ctx context.Context, req dto.CreateUserRequest) (*model.User, error) {
	p, err := adminPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		ID:           uuid.New(),
		StoreID:      p.StoreID,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		MonthlyGoal:  req.MonthlyGoal,
		Active:       true,
	}
	if err := s.repos.For(ctx).Users.Create(ctx, nil, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) ListUsers(ctx context.Context) ([]model.User, error) {
	p, err := storePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	return s.repos.For(ctx).Users.ListByStore(ctx, p.StoreID)
}

func (s *authService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	p, err := adminPrincipal(ctx)
	if err != nil {
		return err
	}
	if id == p.UserID {
		return apierror.Validation("não é possível remover o próprio usuário", nil)
	}
	return s.repos.For(ctx).Users.Delete(ctx, p.StoreID, id)
}

// ── Manager PIN ───────────────────────────────────────────────────────────────

func (s *authService) SetManagerPin(ctx context.Context, pin string) error {
	p, err := adminPrincipal(ctx)
	if err != nil {
		return apierror.Authorization("apenas administradores podem definir um PIN", err)
	}
	if !pinPattern.MatchString(pin) {
		return apierror.Validation("o PIN deve conter exatamente 4 dígitos numéricos", map[string]string{"pin": "len"})
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), s.cost)
	if err != nil {
		return err
	}
	return s.repos.For(ctx).Users.SetManagerPin(ctx, p.UserID, string(hash))
}

func (s *authService) AuthorizeAction(ctx context.Context, pin string) (bool, error) {
	p, err := storePrincipal(ctx)
	if err != nil {
		return false, err
	}
	if !pinPattern.MatchString(pin) {
		return false, apierror.Validation("o PIN deve conter exatamente 4 dígitos numéricos", map[string]string{"pin": "len"})
	}
	admins, err := s.repos.For(ctx).Users.ListAdmins(ctx, p.StoreID)
	if err != nil {
		return false, err
	}
	if len(admins) == 0 {
		return false, apierror.Precondition("nenhum administrador encontrado para esta loja")
	}
	for _, admin := range admins {
		if admin.ManagerPinHash == nil {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(*admin.ManagerPinHash), []byte(pin)) == nil {
			return true, nil
		}
	}
	return false, apierror.Authorization("PIN de administrador inválido")
}

// UserResponse maps a user to its public shape.
func UserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:            u.ID.String(),
		StoreID:       u.StoreID.String(),
		Name:          u.Name,
		Email:         u.Email,
		Role:          u.Role,
		MonthlyGoal:   u.MonthlyGoal,
		HasManagerPin: u.ManagerPinHash != nil,
	}
}
