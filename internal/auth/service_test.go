package auth_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/frahmantamala/separation-management/internal"
	"github.com/frahmantamala/separation-management/internal/auth"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

type mockAuthRepository struct {
	credentials map[string]*auth.Credentials
	actors      map[int64]*auth.Actor
	lastLogin   map[int64]time.Time
}

func newMockAuthRepository() *mockAuthRepository {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	return &mockAuthRepository{
		credentials: map[string]*auth.Credentials{
			"emp@example.com":  {UserID: 1, Email: "emp@example.com", Role: auth.RoleEmployee, PasswordHash: string(hash), IsActive: true},
			"gone@example.com": {UserID: 2, Email: "gone@example.com", Role: auth.RoleEmployee, PasswordHash: string(hash), IsActive: false},
		},
		actors: map[int64]*auth.Actor{
			1: {ID: 1, Email: "emp@example.com", Role: auth.RoleEmployee, IsActive: true},
			2: {ID: 2, Email: "gone@example.com", Role: auth.RoleEmployee, IsActive: false},
		},
		lastLogin: map[int64]time.Time{},
	}
}

func (m *mockAuthRepository) GetCredentials(_ context.Context, email string) (*auth.Credentials, error) {
	if c, ok := m.credentials[email]; ok {
		return c, nil
	}
	return nil, internal.ErrUserNotFound
}

func (m *mockAuthRepository) GetActor(_ context.Context, userID int64) (*auth.Actor, error) {
	if a, ok := m.actors[userID]; ok {
		return a, nil
	}
	return nil, internal.ErrUserNotFound
}

func (m *mockAuthRepository) TouchLastLogin(_ context.Context, userID int64, at time.Time) error {
	m.lastLogin[userID] = at
	return nil
}

func (m *mockAuthRepository) GetCredentialsByID(_ context.Context, userID int64) (*auth.Credentials, error) {
	for _, c := range m.credentials {
		if c.UserID == userID {
			return c, nil
		}
	}
	return nil, internal.ErrUserNotFound
}

func (m *mockAuthRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	c, err := m.GetCredentialsByID(ctx, userID)
	if err != nil {
		return err
	}
	c.PasswordHash = passwordHash
	return nil
}

func (m *mockAuthRepository) UpdateProfile(_ context.Context, userID int64, name string) error {
	a, ok := m.actors[userID]
	if !ok {
		return internal.ErrUserNotFound
	}
	a.Name = name
	return nil
}

var _ = Describe("Auth Service", func() {
	var (
		repo     *mockAuthRepository
		tokenGen *auth.JWTTokenGenerator
		service  *auth.Service
		ctx      context.Context
	)

	BeforeEach(func() {
		repo = newMockAuthRepository()
		tokenGen = auth.NewJWTTokenGenerator("access-secret-access-secret-0123", "refresh-secret-refresh-secret-01", time.Hour, 24*time.Hour)
		service = auth.NewService(repo, tokenGen, bcrypt.MinCost, slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
		ctx = context.Background()
	})

	Describe("Authenticate", func() {
		It("issues tokens for valid credentials", func() {
			tokens, err := service.Authenticate(ctx, auth.LoginDTO{Email: "emp@example.com", Password: "password123"})

			Expect(err).NotTo(HaveOccurred())
			Expect(tokens.AccessToken).NotTo(BeEmpty())
			Expect(tokens.RefreshToken).NotTo(BeEmpty())
			Expect(tokens.User).NotTo(BeNil())
			Expect(tokens.User.Role).To(Equal(auth.RoleEmployee))
			Expect(repo.lastLogin).To(HaveKey(int64(1)))

			claims, err := service.ValidateAccessToken(tokens.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.Role).To(Equal(auth.RoleEmployee))
			Expect(claims.Email).To(Equal("emp@example.com"))
		})

		It("rejects a wrong password", func() {
			_, err := service.Authenticate(ctx, auth.LoginDTO{Email: "emp@example.com", Password: "nope"})
			Expect(err).To(Equal(internal.ErrInvalidCredentials))
		})

		It("rejects an unknown email with the same error", func() {
			_, err := service.Authenticate(ctx, auth.LoginDTO{Email: "ghost@example.com", Password: "password123"})
			Expect(err).To(Equal(internal.ErrInvalidCredentials))
		})

		It("rejects inactive users", func() {
			_, err := service.Authenticate(ctx, auth.LoginDTO{Email: "gone@example.com", Password: "password123"})
			Expect(err).To(Equal(internal.ErrUserInactive))
		})

		It("validates the payload", func() {
			_, err := service.Authenticate(ctx, auth.LoginDTO{Email: "not-an-email"})
			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})
	})

	Describe("tokens", func() {
		It("refuses a refresh token where an access token is expected", func() {
			tokens, err := service.Authenticate(ctx, auth.LoginDTO{Email: "emp@example.com", Password: "password123"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.ValidateAccessToken(tokens.RefreshToken)
			Expect(err).To(Equal(internal.ErrInvalidToken))
		})

		It("refreshes a valid refresh token", func() {
			tokens, err := service.Authenticate(ctx, auth.LoginDTO{Email: "emp@example.com", Password: "password123"})
			Expect(err).NotTo(HaveOccurred())

			refreshed, err := service.RefreshTokens(ctx, tokens.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(refreshed.AccessToken).NotTo(BeEmpty())
		})

		It("reports expired access tokens", func() {
			tokenGen.Now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
			token, _, err := tokenGen.GenerateAccessToken(1, "emp@example.com", auth.RoleEmployee)
			Expect(err).NotTo(HaveOccurred())
			tokenGen.Now = time.Now

			_, err = service.ValidateAccessToken(token)
			Expect(err).To(Equal(internal.ErrTokenExpired))
		})

		It("does not load inactive actors", func() {
			_, err := service.LoadActor(ctx, 2)
			Expect(err).To(Equal(internal.ErrUserInactive))
		})
	})

	Describe("ChangePassword", func() {
		var actor *auth.Actor

		BeforeEach(func() {
			actor = &auth.Actor{ID: 1, Email: "emp@example.com", Role: auth.RoleEmployee, IsActive: true}
		})

		It("replaces the password used to log in", func() {
			err := service.ChangePassword(ctx, actor, auth.ChangePasswordDTO{CurrentPassword: "password123", NewPassword: "correct-horse"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Authenticate(ctx, auth.LoginDTO{Email: "emp@example.com", Password: "password123"})
			Expect(err).To(Equal(internal.ErrInvalidCredentials))

			_, err = service.Authenticate(ctx, auth.LoginDTO{Email: "emp@example.com", Password: "correct-horse"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects a wrong current password as a field error", func() {
			err := service.ChangePassword(ctx, actor, auth.ChangePasswordDTO{CurrentPassword: "guess", NewPassword: "correct-horse"})
			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
			Expect(err.Error()).To(Equal("current password is incorrect"))
		})

		It("requires at least eight characters", func() {
			err := service.ChangePassword(ctx, actor, auth.ChangePasswordDTO{CurrentPassword: "password123", NewPassword: "short"})
			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())

			_, err = service.Authenticate(ctx, auth.LoginDTO{Email: "emp@example.com", Password: "password123"})
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("UpdateProfile", func() {
		It("renames the actor", func() {
			updated, err := service.UpdateProfile(ctx, &auth.Actor{ID: 1}, auth.UpdateProfileDTO{Name: "  Emma Ployee "})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Name).To(Equal("Emma Ployee"))
			Expect(repo.actors[1].Name).To(Equal("Emma Ployee"))
		})

		It("requires a name", func() {
			_, err := service.UpdateProfile(ctx, &auth.Actor{ID: 1}, auth.UpdateProfileDTO{Name: " "})
			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})
	})
})
