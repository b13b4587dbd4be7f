package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"burger-storefront/models"
	"burger-storefront/services"

	"github.com/gin-gonic/gin"
)

const (
	maxRecoveryAttempts = 5
	recoveryWorkTimeout = time.Minute
	profileDefault      = "..."
	msgRecoverGeneric   = "Si el correo existe, te enviaremos instrucciones."
	msgBadCredentials   = "Credenciales inválidas"
	msgBadCode          = "Código inválido o vencido"
)

// dummyHash keeps timing similar when there is no stored hash to compare with.
var dummyHash, _ = services.HashPassword("no-such-user-password")

var nonDigits = regexp.MustCompile(`\D`)

// phoneNumber accepts a JSON number or a string; formatting characters are dropped.
type phoneNumber int64

func (p *phoneNumber) UnmarshalJSON(b []byte) error {
	s := string(bytes.TrimSpace(b))
	if s == "null" {
		*p = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	digits := nonDigits.ReplaceAllString(s, "")
	if digits == "" {
		*p = 0
		return nil
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return fmt.Errorf("celular inválido")
	}
	*p = phoneNumber(n)
	return nil
}

func normEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func orProfileDefault(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return profileDefault
	}
	return s
}

type registerRequest struct {
	Nombre           string      `json:"nombre"`
	Correo           string      `json:"correo"`
	Contrasena       string      `json:"contrasena"`
	TipoDocumento    string      `json:"tipodocumento"`
	Documento        string      `json:"documento"`
	Celular          phoneNumber `json:"celular"`
	DireccionEntrega string      `json:"direccionentrega"`
	Departamento     string      `json:"Departamento"`
	Municipio        string      `json:"Municipio"`
	Barrio           string      `json:"Barrio"`
}

// POST /api/auth/register
func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, msgBadJSON)
		return
	}
	correo := normEmail(req.Correo)
	nombre := strings.TrimSpace(req.Nombre)
	if nombre == "" || correo == "" || req.Contrasena == "" {
		respondMessage(c, http.StatusBadRequest, "Nombre, correo y contraseña son obligatorios")
		return
	}
	if !services.ValidEmail(correo) {
		respondMessage(c, http.StatusBadRequest, "Correo inválido")
		return
	}
	if len([]rune(req.Contrasena)) < services.MinPasswordLen {
		respondMessage(c, http.StatusBadRequest, fmt.Sprintf("La contraseña debe tener al menos %d caracteres", services.MinPasswordLen))
		return
	}

	hash, err := services.HashPassword(req.Contrasena)
	if err != nil {
		respondInternal(c, "POST /api/auth/register", err)
		return
	}
	acc := models.NewAccount{
		Correo: correo,
		Rol:    models.RoleCustomer,
		Profile: models.Profile{
			Nombre:           nombre,
			TipoDocumento:    strings.TrimSpace(req.TipoDocumento),
			Documento:        strings.TrimSpace(req.Documento),
			Celular:          int64(req.Celular),
			DireccionEntrega: strings.TrimSpace(req.DireccionEntrega),
			Departamento:     orProfileDefault(req.Departamento),
			Municipio:        orProfileDefault(req.Municipio),
			Barrio:           orProfileDefault(req.Barrio),
		},
	}
	id, err := s.store.CreateAccount(c.Request.Context(), acc, hash)
	if errors.Is(err, services.ErrEmailTaken) {
		respondMessage(c, http.StatusBadRequest, "El correo ya está registrado")
		return
	}
	if err != nil {
		respondInternal(c, "POST /api/auth/register", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Registro exitoso", "userId": id})
}

type loginRequest struct {
	Correo     string `json:"correo"`
	Contrasena string `json:"contrasena"`
}

// POST /api/auth/login
func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, msgBadJSON)
		return
	}
	correo := normEmail(req.Correo)
	if correo == "" || req.Contrasena == "" {
		respondMessage(c, http.StatusBadRequest, "Correo y contraseña son obligatorios")
		return
	}
	ctx := c.Request.Context()
	log := loggerFrom(c)

	if s.throttled(c, correo) {
		return
	}

	user, err := s.store.UserByEmail(ctx, correo)
	if err != nil && !errors.Is(err, services.ErrNotFound) {
		respondInternal(c, "POST /api/auth/login", err)
		return
	}
	if user == nil {
		services.CheckPassword(dummyHash, req.Contrasena)
	}
	if user == nil || !services.CheckPassword(user.PasswordHash, req.Contrasena) {
		if err := s.throttle.Failed(ctx, correo); err != nil {
			log.WithError(err).Warn("record failed login")
		}
		respondMessage(c, http.StatusUnauthorized, msgBadCredentials)
		return
	}
	if err := s.throttle.Succeeded(ctx, correo); err != nil {
		log.WithError(err).Warn("reset login throttle")
	}

	perfil, err := s.store.ProfileByEmail(ctx, correo)
	if err != nil && !errors.Is(err, services.ErrNotFound) {
		log.WithError(err).Error("load profile on login")
	}
	token, err := s.tokens.Issue(user.ID, user.Correo, user.Rol)
	if err != nil {
		respondInternal(c, "POST /api/auth/login", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"userId": user.ID,
		"correo": user.Correo,
		"rol":    user.Rol,
		"perfil": perfil,
		"token":  token,
	})
}

type recoverRequest struct {
	Correo string `json:"correo"`
}

// POST /api/auth/recover answers the same message, right away, whether or not
// the account exists. The lookup and the mailing of a single-use code happen
// after the response.
func (s *Server) recoverAccount(c *gin.Context) {
	var req recoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, msgBadJSON)
		return
	}
	correo := normEmail(req.Correo)
	if correo == "" {
		respondMessage(c, http.StatusBadRequest, "Correo es obligatorio")
		return
	}

	log := loggerFrom(c).WithField("route", "POST /api/auth/recover")
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), recoveryWorkTimeout)
		defer cancel()
		if err := s.issueRecoveryCode(ctx, correo); err != nil {
			log.WithError(err).Error("issue recovery code")
		}
	}()
	respondMessage(c, http.StatusOK, msgRecoverGeneric)
}

// issueRecoveryCode stores a fresh code for an existing account and mails it.
// Unknown emails are a no-op.
func (s *Server) issueRecoveryCode(ctx context.Context, correo string) error {
	_, err := s.store.UserByEmail(ctx, correo)
	if errors.Is(err, services.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	code, err := services.GenerateRecoveryCode()
	if err != nil {
		return err
	}
	hash, err := services.HashPassword(code)
	if err != nil {
		return err
	}
	if err := s.store.SaveRecoveryCode(ctx, correo, hash, time.Now().Add(s.opt.RecoveryTTL)); err != nil {
		return err
	}
	return s.mailer.SendRecoveryCode(ctx, correo, code, s.opt.RecoveryTTL)
}

// throttled answers 429 when email is cooling down after failed attempts.
// An unavailable throttle lets the request through.
func (s *Server) throttled(c *gin.Context, email string) bool {
	wait, err := s.throttle.Wait(c.Request.Context(), email)
	if err != nil {
		loggerFrom(c).WithError(err).Warn("login throttle unavailable")
	}
	if wait <= 0 {
		return false
	}
	secs := int(math.Ceil(wait.Seconds()))
	c.Header("Retry-After", strconv.Itoa(secs))
	respondMessage(c, http.StatusTooManyRequests, fmt.Sprintf("Demasiados intentos. Intenta de nuevo en %d segundos.", secs))
	return true
}

type resetRequest struct {
	Correo     string `json:"correo"`
	Codigo     string `json:"codigo"`
	Contrasena string `json:"contrasena"`
}

// POST /api/auth/reset. Every compare spends one of the code's attempts
// before bcrypt runs, and wrong codes feed the same throttle as logins.
func (s *Server) resetPassword(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, msgBadJSON)
		return
	}
	correo := normEmail(req.Correo)
	codigo := strings.TrimSpace(req.Codigo)
	if correo == "" || codigo == "" || req.Contrasena == "" {
		respondMessage(c, http.StatusBadRequest, "Correo, código y contraseña son obligatorios")
		return
	}
	if len([]rune(req.Contrasena)) < services.MinPasswordLen {
		respondMessage(c, http.StatusBadRequest, fmt.Sprintf("La contraseña debe tener al menos %d caracteres", services.MinPasswordLen))
		return
	}
	if s.throttled(c, correo) {
		return
	}
	ctx := c.Request.Context()
	log := loggerFrom(c)

	codeHash, err := s.store.ReserveRecoveryAttempt(ctx, correo, maxRecoveryAttempts)
	if err != nil && !errors.Is(err, services.ErrNotFound) {
		respondInternal(c, "POST /api/auth/reset", err)
		return
	}
	if err != nil {
		codeHash = dummyHash
	}
	if !services.CheckPassword(codeHash, codigo) || err != nil {
		if err := s.throttle.Failed(ctx, correo); err != nil {
			log.WithError(err).Warn("record failed reset")
		}
		respondMessage(c, http.StatusBadRequest, msgBadCode)
		return
	}

	hash, err := services.HashPassword(req.Contrasena)
	if err != nil {
		respondInternal(c, "POST /api/auth/reset", err)
		return
	}
	if err := s.store.UpdatePasswordHash(ctx, correo, hash); err != nil {
		respondInternal(c, "POST /api/auth/reset", err)
		return
	}
	if err := s.store.DeleteRecoveryCode(ctx, correo); err != nil {
		log.WithError(err).Warn("delete used recovery code")
	}
	if err := s.throttle.Succeeded(ctx, correo); err != nil {
		log.WithError(err).Warn("reset login throttle")
	}
	respondMessage(c, http.StatusOK, "Contraseña actualizada")
}

// GET /api/auth/user?correo= returns the signed-in account. correo defaults
// to the token's email and must match it.
func (s *Server) currentUser(c *gin.Context) {
	claims := claimsFrom(c)
	correo := normEmail(c.Query("correo"))
	if correo == "" {
		correo = normEmail(claims.Email)
	}
	if correo != normEmail(claims.Email) {
		respondMessage(c, http.StatusForbidden, "No autorizado para ver este usuario")
		return
	}
	ctx := c.Request.Context()
	user, err := s.store.UserByEmail(ctx, correo)
	if errors.Is(err, services.ErrNotFound) {
		respondMessage(c, http.StatusNotFound, "Usuario no encontrado")
		return
	}
	if err != nil {
		respondInternal(c, "GET /api/auth/user", err)
		return
	}
	perfil, err := s.store.ProfileByEmail(ctx, correo)
	if err != nil && !errors.Is(err, services.ErrNotFound) {
		respondInternal(c, "GET /api/auth/user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"userId": user.ID,
		"correo": user.Correo,
		"rol":    user.Rol,
		"perfil": perfil,
	})
}
