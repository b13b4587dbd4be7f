package bot

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf16"

	"burger-storefront/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	queueSize      = 64
	maxMessageLen  = 4096 // Telegram text limit, in UTF-16 code units
	truncateMarker = "\n…"
)

var ErrQueueFull = errors.New("order notification queue full")

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier posts every recorded order to the staff chat. NotifyOrder only
// queues; Run does the sending so requests never wait on Telegram.
type Notifier struct {
	api    sender
	chatID int64
	queue  chan models.Order
	log    logrus.FieldLogger
}

func NewNotifier(token string, chatID int64, log logrus.FieldLogger) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "telegram bot")
	}
	log.WithField("bot", api.Self.UserName).Info("telegram notifier authorized")
	return newNotifier(api, chatID, log), nil
}

func newNotifier(api sender, chatID int64, log logrus.FieldLogger) *Notifier {
	return &Notifier{
		api:    api,
		chatID: chatID,
		queue:  make(chan models.Order, queueSize),
		log:    log.WithField("component", "telegram"),
	}
}

// NotifyOrder queues o for delivery. It does not block when the queue is full.
func (n *Notifier) NotifyOrder(ctx context.Context, o models.Order) error {
	select {
	case n.queue <- o:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Run sends queued orders until ctx is cancelled, then flushes what is left.
func (n *Notifier) Run(ctx context.Context) {
	for {
		select {
		case o := <-n.queue:
			n.send(o)
		case <-ctx.Done():
			for {
				select {
				case o := <-n.queue:
					n.send(o)
				default:
					return
				}
			}
		}
	}
}

func (n *Notifier) send(o models.Order) {
	msg := tgbotapi.NewMessage(n.chatID, FormatOrderMessage(o))
	msg.DisableWebPagePreview = true
	if _, err := n.api.Send(msg); err != nil {
		n.log.WithError(err).WithField("order_id", o.ID).Error("send order notification")
	}
}

// FormatOrderMessage is the plain-text staff message for an order.
func FormatOrderMessage(o models.Order) string {
	var b strings.Builder
	if o.ID > 0 {
		fmt.Fprintf(&b, "🆕 Pedido #%d", o.ID)
	} else {
		b.WriteString("🆕 Pedido (sin registrar)")
	}
	if o.PuntoVenta != "" {
		b.WriteString(" · " + o.PuntoVenta)
	}
	b.WriteString("\n")
	if o.NombreCliente != "" {
		b.WriteString("Cliente: " + o.NombreCliente + "\n")
	}
	if o.CelularCliente != "" {
		b.WriteString("Celular: " + o.CelularCliente + "\n")
	}
	if o.DireccionCliente != "" {
		b.WriteString("Dirección: " + o.DireccionCliente + "\n")
	}
	b.WriteString("\n" + o.ResumenPedido)
	return truncate(b.String(), maxMessageLen)
}

// utf16Len is the length Telegram measures: emoji outside the BMP count twice.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// truncate cuts s on a rune boundary so that it fits in max UTF-16 units,
// marker included.
func truncate(s string, max int) string {
	if utf16Len(s) <= max {
		return s
	}
	budget := max - utf16Len(truncateMarker)
	n := 0
	for i, r := range s {
		l := utf16.RuneLen(r)
		if n+l > budget {
			return s[:i] + truncateMarker
		}
		n += l
	}
	return s
}
