package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"burger-storefront/models"
	"burger-storefront/services"

	"github.com/golang/mock/gomock"
)

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name string
		body any
		msg  string
	}{
		{"not json", "{", msgBadJSON},
		{"missing nombre", map[string]any{"correo": "ana@example.com", "contrasena": "secreto1"}, "Nombre, correo y contraseña son obligatorios"},
		{"missing correo", map[string]any{"nombre": "Ana", "contrasena": "secreto1"}, "Nombre, correo y contraseña son obligatorios"},
		{"missing contrasena", map[string]any{"nombre": "Ana", "correo": "ana@example.com"}, "Nombre, correo y contraseña son obligatorios"},
		{"bad email", map[string]any{"nombre": "Ana", "correo": "ana@", "contrasena": "secreto1"}, "Correo inválido"},
		{"short password", map[string]any{"nombre": "Ana", "correo": "ana@example.com", "contrasena": "123"}, "La contraseña debe tener al menos 6 caracteres"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Options{})
			w := f.do(t, http.MethodPost, "/api/auth/register", tt.body)
			wantStatus(t, w, http.StatusBadRequest)
			wantMessage(t, w, tt.msg)
		})
	}
}

func TestRegister(t *testing.T) {
	f := newFixture(t, Options{})
	f.store.EXPECT().CreateAccount(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, acc models.NewAccount, hash string) (int64, error) {
			if acc.Correo != "ana@example.com" || acc.Rol != models.RoleCustomer {
				t.Errorf("account = %+v", acc)
			}
			p := acc.Profile
			if p.Nombre != "Ana" || p.Celular != 573001234567 || p.Departamento != "..." || p.Municipio != "Envigado" || p.Barrio != "..." {
				t.Errorf("profile = %+v", p)
			}
			if hash == "secreto1" || !services.CheckPassword(hash, "secreto1") {
				t.Errorf("password not stored as bcrypt hash: %q", hash)
			}
			return 12, nil
		})

	w := f.do(t, http.MethodPost, "/api/auth/register", map[string]any{
		"nombre":     "Ana",
		"correo":     " Ana@Example.com ",
		"contrasena": "secreto1",
		"celular":    "+57 300 123 4567",
		"Municipio":  "Envigado",
	})
	wantStatus(t, w, http.StatusCreated)
	body := decode(t, w)
	if body["message"] != "Registro exitoso" || body["userId"] != float64(12) {
		t.Errorf("body = %v", body)
	}
}

func TestRegister_NumericCelular(t *testing.T) {
	f := newFixture(t, Options{})
	f.store.EXPECT().CreateAccount(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, acc models.NewAccount, _ string) (int64, error) {
			if acc.Profile.Celular != 3001234567 {
				t.Errorf("Celular = %d, want 3001234567", acc.Profile.Celular)
			}
			return 1, nil
		})
	w := f.do(t, http.MethodPost, "/api/auth/register", `{"nombre":"Ana","correo":"ana@example.com","contrasena":"secreto1","celular":3001234567}`)
	wantStatus(t, w, http.StatusCreated)
}

func TestRegister_Duplicate(t *testing.T) {
	f := newFixture(t, Options{})
	f.store.EXPECT().CreateAccount(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), services.ErrEmailTaken)
	w := f.do(t, http.MethodPost, "/api/auth/register", map[string]any{"nombre": "Ana", "correo": "ana@example.com", "contrasena": "secreto1"})
	wantStatus(t, w, http.StatusBadRequest)
	wantMessage(t, w, "El correo ya está registrado")
}

func loginBody(password string) map[string]any {
	return map[string]any{"correo": "ana@example.com", "contrasena": password}
}

func TestLogin(t *testing.T) {
	hash, err := services.HashPassword("secreto1")
	if err != nil {
		t.Fatal(err)
	}
	user := &models.User{ID: 7, Correo: "ana@example.com", PasswordHash: hash, Rol: "0"}

	t.Run("missing fields", func(t *testing.T) {
		f := newFixture(t, Options{})
		w := f.do(t, http.MethodPost, "/api/auth/login", map[string]any{"correo": "ana@example.com"})
		wantStatus(t, w, http.StatusBadRequest)
		wantMessage(t, w, "Correo y contraseña son obligatorios")
	})

	t.Run("throttled", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.throttle.EXPECT().Wait(gomock.Any(), "ana@example.com").Return(3500*time.Millisecond, nil)
		w := f.do(t, http.MethodPost, "/api/auth/login", loginBody("secreto1"))
		wantStatus(t, w, http.StatusTooManyRequests)
		if got := w.Header().Get("Retry-After"); got != "4" {
			t.Errorf("Retry-After = %q, want 4", got)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.throttle.EXPECT().Wait(gomock.Any(), "ana@example.com").Return(time.Duration(0), nil)
		f.store.EXPECT().UserByEmail(gomock.Any(), "ana@example.com").Return(nil, services.ErrNotFound)
		f.throttle.EXPECT().Failed(gomock.Any(), "ana@example.com").Return(nil)
		w := f.do(t, http.MethodPost, "/api/auth/login", loginBody("secreto1"))
		wantStatus(t, w, http.StatusUnauthorized)
		wantMessage(t, w, "Credenciales inválidas")
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.throttle.EXPECT().Wait(gomock.Any(), gomock.Any()).Return(time.Duration(0), nil)
		f.store.EXPECT().UserByEmail(gomock.Any(), "ana@example.com").Return(user, nil)
		f.throttle.EXPECT().Failed(gomock.Any(), "ana@example.com").Return(nil)
		w := f.do(t, http.MethodPost, "/api/auth/login", loginBody("secreto2"))
		wantStatus(t, w, http.StatusUnauthorized)
		wantMessage(t, w, "Credenciales inválidas")
	})

	t.Run("throttle down fails open", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.throttle.EXPECT().Wait(gomock.Any(), gomock.Any()).Return(time.Duration(0), errors.New("redis down"))
		f.store.EXPECT().UserByEmail(gomock.Any(), gomock.Any()).Return(user, nil)
		f.throttle.EXPECT().Succeeded(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))
		f.store.EXPECT().ProfileByEmail(gomock.Any(), gomock.Any()).Return(nil, services.ErrNotFound)
		w := f.do(t, http.MethodPost, "/api/auth/login", loginBody("secreto1"))
		wantStatus(t, w, http.StatusOK)
		if body := decode(t, w); body["perfil"] != nil {
			t.Errorf("perfil = %v, want null", body["perfil"])
		}
	})

	t.Run("success", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.throttle.EXPECT().Wait(gomock.Any(), gomock.Any()).Return(time.Duration(0), nil)
		f.store.EXPECT().UserByEmail(gomock.Any(), "ana@example.com").Return(user, nil)
		f.throttle.EXPECT().Succeeded(gomock.Any(), "ana@example.com").Return(nil)
		f.store.EXPECT().ProfileByEmail(gomock.Any(), "ana@example.com").Return(&models.Profile{Nombre: "Ana", Celular: 3001234567}, nil)

		w := f.do(t, http.MethodPost, "/api/auth/login", map[string]any{"correo": "ANA@example.com", "contrasena": "secreto1"})
		wantStatus(t, w, http.StatusOK)
		body := decode(t, w)
		if body["userId"] != float64(7) || body["rol"] != "0" || body["correo"] != "ana@example.com" {
			t.Errorf("body = %v", body)
		}
		perfil, _ := body["perfil"].(map[string]any)
		if perfil["nombre"] != "Ana" {
			t.Errorf("perfil = %v", body["perfil"])
		}
		tok, _ := body["token"].(string)
		claims, err := f.tokens.Parse(tok)
		if err != nil {
			t.Fatalf("token does not parse: %v", err)
		}
		if claims.UserID() != 7 || claims.Email != "ana@example.com" {
			t.Errorf("claims = %+v", claims)
		}
	})
}

func TestRecover(t *testing.T) {
	t.Run("missing correo", func(t *testing.T) {
		f := newFixture(t, Options{})
		w := f.do(t, http.MethodPost, "/api/auth/recover", map[string]any{})
		wantStatus(t, w, http.StatusBadRequest)
		wantMessage(t, w, "Correo es obligatorio")
	})

	t.Run("unknown account gets the generic answer", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.store.EXPECT().UserByEmail(gomock.Any(), "nadie@example.com").Return(nil, services.ErrNotFound)
		w := f.do(t, http.MethodPost, "/api/auth/recover", map[string]any{"correo": "nadie@example.com"})
		wantStatus(t, w, http.StatusOK)
		wantMessage(t, w, msgRecoverGeneric)
	})

	t.Run("known account gets a mailed code", func(t *testing.T) {
		f := newFixture(t, Options{RecoveryTTL: 10 * time.Minute})
		var savedHash string
		f.store.EXPECT().UserByEmail(gomock.Any(), "ana@example.com").Return(&models.User{ID: 1, Correo: "ana@example.com"}, nil)
		f.store.EXPECT().SaveRecoveryCode(gomock.Any(), "ana@example.com", gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, hash string, exp time.Time) error {
				savedHash = hash
				if d := time.Until(exp); d < 9*time.Minute || d > 10*time.Minute {
					t.Errorf("expiry in %v, want ~10m", d)
				}
				return nil
			})
		f.mailer.EXPECT().SendRecoveryCode(gomock.Any(), "ana@example.com", gomock.Any(), 10*time.Minute).
			DoAndReturn(func(_ context.Context, _, code string, _ time.Duration) error {
				if len(code) != 6 || !services.CheckPassword(savedHash, code) {
					t.Errorf("mailed code %q does not match stored hash", code)
				}
				return errors.New("smtp down")
			})
		w := f.do(t, http.MethodPost, "/api/auth/recover", map[string]any{"correo": "ana@example.com"})
		wantStatus(t, w, http.StatusOK)
		wantMessage(t, w, msgRecoverGeneric)
		f.srv.Wait()
	})

	t.Run("store failure still gets the generic answer", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.store.EXPECT().UserByEmail(gomock.Any(), "ana@example.com").Return(&models.User{ID: 1, Correo: "ana@example.com"}, nil)
		f.store.EXPECT().SaveRecoveryCode(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("db down"))
		w := f.do(t, http.MethodPost, "/api/auth/recover", map[string]any{"correo": "ana@example.com"})
		wantStatus(t, w, http.StatusOK)
		wantMessage(t, w, msgRecoverGeneric)
	})
}

func TestRecover_DoesNotWaitForMail(t *testing.T) {
	f := newFixture(t, Options{})
	release := make(chan struct{})
	unblock := sync.OnceFunc(func() { close(release) })
	t.Cleanup(unblock)
	mailed := make(chan struct{})
	f.store.EXPECT().UserByEmail(gomock.Any(), "ana@example.com").Return(&models.User{ID: 1, Correo: "ana@example.com"}, nil)
	f.store.EXPECT().SaveRecoveryCode(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.mailer.EXPECT().SendRecoveryCode(gomock.Any(), "ana@example.com", gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, string, time.Duration) error {
			<-release
			close(mailed)
			return nil
		})

	done := make(chan int, 1)
	go func() {
		w := f.do(t, http.MethodPost, "/api/auth/recover", map[string]any{"correo": "ana@example.com"})
		done <- w.Code
	}()
	select {
	case code := <-done:
		if code != http.StatusOK {
			t.Errorf("status = %d, want 200", code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("recover waited for the mailer")
	}

	unblock()
	f.srv.Wait()
	select {
	case <-mailed:
	default:
		t.Error("recovery code was never mailed")
	}
}

func TestResetPassword(t *testing.T) {
	codeHash, err := services.HashPassword("123456")
	if err != nil {
		t.Fatal(err)
	}
	body := func(code string) map[string]any {
		return map[string]any{"correo": "ana@example.com", "codigo": code, "contrasena": "nueva123"}
	}

	t.Run("missing code", func(t *testing.T) {
		f := newFixture(t, Options{})
		w := f.do(t, http.MethodPost, "/api/auth/reset", body(""))
		wantStatus(t, w, http.StatusBadRequest)
	})

	t.Run("throttled", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.throttle.EXPECT().Wait(gomock.Any(), "ana@example.com").Return(8*time.Second, nil)
		w := f.do(t, http.MethodPost, "/api/auth/reset", body("123456"))
		wantStatus(t, w, http.StatusTooManyRequests)
		if got := w.Header().Get("Retry-After"); got != "8" {
			t.Errorf("Retry-After = %q, want 8", got)
		}
	})

	t.Run("no usable code", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.throttle.EXPECT().Wait(gomock.Any(), gomock.Any()).Return(time.Duration(0), nil)
		f.store.EXPECT().ReserveRecoveryAttempt(gomock.Any(), "ana@example.com", maxRecoveryAttempts).Return("", services.ErrNotFound)
		f.throttle.EXPECT().Failed(gomock.Any(), "ana@example.com").Return(nil)
		w := f.do(t, http.MethodPost, "/api/auth/reset", body("123456"))
		wantStatus(t, w, http.StatusBadRequest)
		wantMessage(t, w, msgBadCode)
	})

	t.Run("wrong code", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.throttle.EXPECT().Wait(gomock.Any(), gomock.Any()).Return(time.Duration(0), nil)
		f.store.EXPECT().ReserveRecoveryAttempt(gomock.Any(), gomock.Any(), gomock.Any()).Return(codeHash, nil)
		f.throttle.EXPECT().Failed(gomock.Any(), "ana@example.com").Return(nil)
		w := f.do(t, http.MethodPost, "/api/auth/reset", body("654321"))
		wantStatus(t, w, http.StatusBadRequest)
		wantMessage(t, w, msgBadCode)
	})

	t.Run("store error", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.throttle.EXPECT().Wait(gomock.Any(), gomock.Any()).Return(time.Duration(0), nil)
		f.store.EXPECT().ReserveRecoveryAttempt(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("db down"))
		w := f.do(t, http.MethodPost, "/api/auth/reset", body("123456"))
		wantStatus(t, w, http.StatusInternalServerError)
	})

	t.Run("success", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.throttle.EXPECT().Wait(gomock.Any(), gomock.Any()).Return(time.Duration(0), nil)
		f.store.EXPECT().ReserveRecoveryAttempt(gomock.Any(), "ana@example.com", maxRecoveryAttempts).Return(codeHash, nil)
		f.store.EXPECT().UpdatePasswordHash(gomock.Any(), "ana@example.com", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, hash string) error {
				if !services.CheckPassword(hash, "nueva123") {
					t.Error("new password not stored as its hash")
				}
				return nil
			})
		f.store.EXPECT().DeleteRecoveryCode(gomock.Any(), "ana@example.com").Return(nil)
		f.throttle.EXPECT().Succeeded(gomock.Any(), "ana@example.com").Return(nil)
		w := f.do(t, http.MethodPost, "/api/auth/reset", body(" 123456 "))
		wantStatus(t, w, http.StatusOK)
		wantMessage(t, w, "Contraseña actualizada")
	})
}

// Concurrent guesses each spend an attempt before comparing, so only as many
// compares run as the store grants.
func TestResetPassword_ConcurrentGuessesSpendAttempts(t *testing.T) {
	codeHash, err := services.HashPassword("123456")
	if err != nil {
		t.Fatal(err)
	}
	f := newFixture(t, Options{})
	var (
		mu       sync.Mutex
		reserved int
	)
	f.throttle.EXPECT().Wait(gomock.Any(), gomock.Any()).Return(time.Duration(0), nil).AnyTimes()
	f.throttle.EXPECT().Failed(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.store.EXPECT().ReserveRecoveryAttempt(gomock.Any(), "ana@example.com", maxRecoveryAttempts).
		DoAndReturn(func(context.Context, string, int) (string, error) {
			mu.Lock()
			defer mu.Unlock()
			if reserved == maxRecoveryAttempts {
				return "", services.ErrNotFound
			}
			reserved++
			return codeHash, nil
		}).Times(3 * maxRecoveryAttempts)

	var wg sync.WaitGroup
	for i := 0; i < 3*maxRecoveryAttempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := f.do(t, http.MethodPost, "/api/auth/reset", map[string]any{"correo": "ana@example.com", "codigo": "000000", "contrasena": "nueva123"})
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		}()
	}
	wg.Wait()
	if reserved != maxRecoveryAttempts {
		t.Errorf("reserved = %d, want %d", reserved, maxRecoveryAttempts)
	}
}

func TestCurrentUser(t *testing.T) {
	newToken := func(f *fixture, email string) string {
		tok, err := f.tokens.Issue(7, email, "0")
		if err != nil {
			t.Fatal(err)
		}
		return "Bearer " + tok
	}

	t.Run("no token", func(t *testing.T) {
		f := newFixture(t, Options{})
		w := f.do(t, http.MethodGet, "/api/auth/user?correo=ana@example.com", nil)
		wantStatus(t, w, http.StatusUnauthorized)
	})

	t.Run("bad token", func(t *testing.T) {
		f := newFixture(t, Options{})
		w := f.do(t, http.MethodGet, "/api/auth/user", nil, "Authorization", "Bearer nope")
		wantStatus(t, w, http.StatusUnauthorized)
	})

	t.Run("other account", func(t *testing.T) {
		f := newFixture(t, Options{})
		w := f.do(t, http.MethodGet, "/api/auth/user?correo=otro@example.com", nil, "Authorization", newToken(f, "ana@example.com"))
		wantStatus(t, w, http.StatusForbidden)
	})

	t.Run("deleted account", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.store.EXPECT().UserByEmail(gomock.Any(), "ana@example.com").Return(nil, services.ErrNotFound)
		w := f.do(t, http.MethodGet, "/api/auth/user", nil, "Authorization", newToken(f, "ana@example.com"))
		wantStatus(t, w, http.StatusNotFound)
	})

	t.Run("own account", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.store.EXPECT().UserByEmail(gomock.Any(), "ana@example.com").Return(&models.User{ID: 7, Correo: "ana@example.com", Rol: "0"}, nil)
		f.store.EXPECT().ProfileByEmail(gomock.Any(), "ana@example.com").Return(&models.Profile{Nombre: "Ana", DireccionEntrega: "Calle 1"}, nil)
		w := f.do(t, http.MethodGet, "/api/auth/user?correo=Ana@Example.com", nil, "Authorization", newToken(f, "ana@example.com"))
		wantStatus(t, w, http.StatusOK)
		body := decode(t, w)
		perfil, _ := body["perfil"].(map[string]any)
		if body["correo"] != "ana@example.com" || perfil["direccionentrega"] != "Calle 1" {
			t.Errorf("body = %v", body)
		}
		if _, ok := body["PasswordHash"]; ok {
			t.Error("response leaks the password hash")
		}
	})
}
