package api

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=api

import (
	"context"
	"time"

	"burger-storefront/models"
)

// Store is the persistence the handlers need; services.Store implements it.
type Store interface {
	ListMenu(ctx context.Context, tipo *int) ([]models.MenuItem, error)
	GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error)
	MenuItemsByID(ctx context.Context, ids []int64) (map[int64]models.MenuItem, error)

	CreateAccount(ctx context.Context, acc models.NewAccount, passwordHash string) (int64, error)
	UserByEmail(ctx context.Context, correo string) (*models.User, error)
	ProfileByEmail(ctx context.Context, correo string) (*models.Profile, error)
	UpdatePasswordHash(ctx context.Context, correo, passwordHash string) error

	SaveRecoveryCode(ctx context.Context, correo, codeHash string, expiresAt time.Time) error
	ReserveRecoveryAttempt(ctx context.Context, correo string, maxAttempts int) (string, error)
	DeleteRecoveryCode(ctx context.Context, correo string) error

	ListLocations(ctx context.Context) ([]models.Location, error)
	LocationByID(ctx context.Context, id int64) (*models.Location, error)

	CreateOrder(ctx context.Context, o models.Order) (int64, error)
}

// Throttle tracks failed logins per email.
type Throttle interface {
	Wait(ctx context.Context, email string) (time.Duration, error)
	Failed(ctx context.Context, email string) error
	Succeeded(ctx context.Context, email string) error
}

type Notifier interface {
	NotifyOrder(ctx context.Context, o models.Order) error
}

type Mailer interface {
	SendRecoveryCode(ctx context.Context, to, code string, ttl time.Duration) error
}
