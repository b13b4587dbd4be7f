package services

import (
	"context"
	"time"

	"burger-storefront/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

const pgUniqueViolation = "23505"

// CreateAccount writes the usuarios row and its formulario profile in one
// transaction. passwordHash must already be a bcrypt hash.
func (s *Store) CreateAccount(ctx context.Context, acc models.NewAccount, passwordHash string) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "begin create account")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	rol := acc.Rol
	if rol == "" {
		rol = models.RoleCustomer
	}
	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO usuarios (correo, "Contrasena", "Rol") VALUES ($1, $2, $3)
		RETURNING id`,
		acc.Correo, passwordHash, rol,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return 0, ErrEmailTaken
		}
		return 0, errors.Wrap(err, "insert usuario")
	}

	p := acc.Profile
	_, err = tx.Exec(ctx, `
		INSERT INTO formulario (correo, nombre, tipodocumento, documento, celular, direccionentrega, "Departamento", "Municipio", "Barrio")
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		acc.Correo, p.Nombre, p.TipoDocumento, p.Documento, p.Celular, p.DireccionEntrega,
		p.Departamento, p.Municipio, p.Barrio,
	)
	if err != nil {
		return 0, errors.Wrap(err, "insert formulario")
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, errors.Wrap(err, "commit create account")
	}
	return id, nil
}

func (s *Store) UserByEmail(ctx context.Context, correo string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, `
		SELECT id, correo, "Contrasena", "Rol" FROM usuarios WHERE correo = $1`,
		correo,
	).Scan(&u.ID, &u.Correo, &u.PasswordHash, &u.Rol)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "user by email")
	}
	return &u, nil
}

// ProfileByEmail returns ErrNotFound when the account has no formulario row.
func (s *Store) ProfileByEmail(ctx context.Context, correo string) (*models.Profile, error) {
	var p models.Profile
	err := s.pool.QueryRow(ctx, `
		SELECT nombre, COALESCE(tipodocumento, ''), COALESCE(documento, ''), COALESCE(celular, 0),
			COALESCE(direccionentrega, ''), COALESCE("Departamento", ''), COALESCE("Municipio", ''), COALESCE("Barrio", '')
		FROM formulario WHERE correo = $1`,
		correo,
	).Scan(&p.Nombre, &p.TipoDocumento, &p.Documento, &p.Celular, &p.DireccionEntrega,
		&p.Departamento, &p.Municipio, &p.Barrio)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "profile by email")
	}
	return &p, nil
}

func (s *Store) UpdatePasswordHash(ctx context.Context, correo, passwordHash string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE usuarios SET "Contrasena" = $1 WHERE correo = $2`, passwordHash, correo)
	if err != nil {
		return errors.Wrap(err, "update password")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveRecoveryCode replaces any pending code for the email and resets attempts.
func (s *Store) SaveRecoveryCode(ctx context.Context, correo, codeHash string, expiresAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO recuperaciones (correo, codigo_hash, expira, intentos, created_at)
		VALUES ($1, $2, $3, 0, now())
		ON CONFLICT (correo) DO UPDATE SET
			codigo_hash = $2,
			expira = $3,
			intentos = 0,
			created_at = now()`,
		correo, codeHash, expiresAt,
	)
	return errors.Wrap(err, "save recovery code")
}

// ReserveRecoveryAttempt spends one attempt on the pending code and returns
// its hash. ErrNotFound means there is no usable code: none was issued, it
// expired or maxAttempts are used up. The check and the increment are one
// statement, so concurrent guesses never get more than maxAttempts compares.
func (s *Store) ReserveRecoveryAttempt(ctx context.Context, correo string, maxAttempts int) (string, error) {
	var codeHash string
	err := s.pool.QueryRow(ctx, `
		UPDATE recuperaciones SET intentos = intentos + 1
		WHERE correo = $1 AND intentos < $2 AND expira > now()
		RETURNING codigo_hash`,
		correo, maxAttempts,
	).Scan(&codeHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", errors.Wrap(err, "reserve recovery attempt")
	}
	return codeHash, nil
}

func (s *Store) DeleteRecoveryCode(ctx context.Context, correo string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM recuperaciones WHERE correo = $1`, correo)
	return errors.Wrap(err, "delete recovery code")
}
