package api

import (
	"sync"
	"time"

	"burger-storefront/auth"
	"burger-storefront/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Deps are the collaborators of the HTTP layer. Notifier may be nil.
type Deps struct {
	Store    Store
	Throttle Throttle
	Notifier Notifier
	Mailer   Mailer
	Tokens   *auth.Issuer
	Log      logrus.FieldLogger
}

type Options struct {
	DeliveryFee    int64
	PriceZone      string
	PublicDir      string
	AllowedOrigins []string
	RecoveryTTL    time.Duration
}

type Server struct {
	store    Store
	throttle Throttle
	notifier Notifier
	mailer   Mailer
	tokens   *auth.Issuer
	log      logrus.FieldLogger
	opt      Options

	background sync.WaitGroup // recovery codes being issued
}

func NewServer(d Deps, opt Options) *Server {
	if d.Throttle == nil {
		d.Throttle = services.NopThrottle{}
	}
	if opt.RecoveryTTL <= 0 {
		opt.RecoveryTTL = 15 * time.Minute
	}
	return &Server{
		store:    d.Store,
		throttle: d.Throttle,
		notifier: d.Notifier,
		mailer:   d.Mailer,
		tokens:   d.Tokens,
		log:      d.Log,
		opt:      opt,
	}
}

// Wait blocks until work started by handlers after responding has finished.
func (s *Server) Wait() {
	s.background.Wait()
}

// Routes builds the gin engine with every API route and, when PublicDir is
// set, the storefront pages.
func (s *Server) Routes() *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(s.log), recovery())
	r.Use(cors.New(corsConfig(s.opt.AllowedOrigins)))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	api := r.Group("/api")
	{
		api.GET("/menu", s.listMenu)
		api.GET("/menu/item/:id", s.getMenuItem)

		api.POST("/auth/register", s.register)
		api.POST("/auth/login", s.login)
		api.POST("/auth/recover", s.recoverAccount)
		api.POST("/auth/reset", s.resetPassword)
		api.GET("/auth/user", requireAuth(s.tokens), s.currentUser)

		api.GET("/puntos-venta", s.listLocations)
		api.GET("/puntos-venta/cercano", s.nearestLocation)

		api.POST("/pedidos", s.createOrder)
		api.POST("/carrito/cotizar", s.quoteCart)
		api.POST("/checkout", s.checkout)
	}

	s.mountPages(r)
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader, "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
