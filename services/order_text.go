package services

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"burger-storefront/models"
)

const (
	textSeparator = "────────────────────────────"
	notSpecified  = "No especificado"
)

var (
	phonePattern = regexp.MustCompile(`^\+57\d{10}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nonDigits    = regexp.MustCompile(`\D`)
)

// FormatCOP renders pesos the way the storefront shows them: $12.500.
func FormatCOP(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	var b strings.Builder
	b.WriteString(sign + "$")
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizePhone turns a stored phone number into +57 form.
func NormalizePhone(raw string) string {
	p := strings.TrimSpace(raw)
	switch {
	case p == "":
		return ""
	case strings.HasPrefix(p, "+57"):
		return p
	case strings.HasPrefix(p, "57"):
		return "+" + p
	default:
		return "+57" + nonDigits.ReplaceAllString(p, "")
	}
}

func ValidPhone(s string) bool {
	return phonePattern.MatchString(strings.TrimSpace(s))
}

func ValidEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

func orDefault(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return notSpecified
	}
	return s
}

// BuildOrderText assembles the order summary sent to the store over WhatsApp
// and recorded as resumen_pedido. loc may be nil.
func BuildOrderText(c models.Customer, cart Cart, loc *models.Location, mode string, fee int64) string {
	lines := []string{
		"🧾 *NUEVO PEDIDO*",
		textSeparator,
		"👤 *Datos del cliente:*",
		"• Nombre: " + orDefault(c.Nombre),
		"• Teléfono: " + orDefault(c.Celular),
		"• Email: " + orDefault(c.Correo),
		"• Dirección: " + orDefault(c.Direccion),
		textSeparator,
		"🛒 *Pedido completo:*",
	}

	for _, it := range cart.Items {
		name := it.Nombre
		if name == "" {
			name = "Producto"
		}
		lines = append(lines, fmt.Sprintf("• %dx %s - %s", it.Quantity, name, FormatCOP(it.Total)))
		if len(it.Extras) > 0 {
			parts := make([]string, len(it.Extras))
			for i, ex := range it.Extras {
				parts[i] = fmt.Sprintf("%s (%s)", ex.Nombre, FormatCOP(ex.Precio))
			}
			lines = append(lines, "   → Adiciones: "+strings.Join(parts, ", "))
		}
		if len(it.Modifications) > 0 {
			lines = append(lines, "   → Personalización: "+strings.Join(it.Modifications, ", "))
		}
		if models.HasCookingTerm(it.Tipo) {
			lines = append(lines, "   → Término: "+CookingLabel(it.Cooking))
		}
	}

	lines = append(lines, textSeparator, "💵 *Subtotal:* "+FormatCOP(cart.Subtotal()))
	if mode == models.DeliveryModeDelivery {
		lines = append(lines,
			"🛵 *Domicilio:* "+FormatCOP(cart.DeliveryFee(mode, fee)),
			"🛵 *Total con envío:* "+FormatCOP(cart.Total(mode, fee)),
		)
	} else {
		lines = append(lines, "🏃 *Total (recoge en tienda):* "+FormatCOP(cart.Total(mode, fee)))
	}
	lines = append(lines, textSeparator)

	if loc != nil {
		lines = append(lines,
			"🏬 *Punto de venta:* "+loc.DisplayName(),
			fmt.Sprintf("📍 %s - %s", loc.Direccion, loc.Municipio),
		)
		if loc.NumWhatsapp != "" {
			lines = append(lines, "📞 WhatsApp: "+loc.NumWhatsapp)
		}
		lines = append(lines, textSeparator)
	}
	return strings.Join(lines, "\n")
}

// WhatsAppURL builds the wa.me link that opens a chat with text pre-filled.
// It returns "" when number has no digits.
func WhatsAppURL(number, text string) string {
	digits := nonDigits.ReplaceAllString(number, "")
	if digits == "" {
		return ""
	}
	return "https://wa.me/" + digits + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}
