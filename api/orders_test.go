package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"burger-storefront/models"

	"github.com/golang/mock/gomock"
)

func orderBody() map[string]any {
	return map[string]any{
		"nombre_cliente":    "ana@example.com",
		"resumen_pedido":    "🧾 *NUEVO PEDIDO*",
		"direccion_cliente": "Calle 1 # 2-3",
		"celular_cliente":   "+573001234567",
		"puntoventa":        "El Poblado",
	}
}

func TestCreateOrder(t *testing.T) {
	f := newFixture(t, Options{})
	f.store.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, o models.Order) (int64, error) {
			if o.NombreCliente != "ana@example.com" || o.PuntoVenta != "El Poblado" || o.Estado != models.OrderStatusReceived {
				t.Errorf("order = %+v", o)
			}
			return 31, nil
		})
	f.notifier.EXPECT().NotifyOrder(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, o models.Order) error {
			if o.ID != 31 {
				t.Errorf("notified order id = %d, want 31", o.ID)
			}
			return nil
		})

	w := f.do(t, http.MethodPost, "/api/pedidos", orderBody())
	wantStatus(t, w, http.StatusCreated)
	if body := decode(t, w); body["id"] != float64(31) {
		t.Errorf("body = %v", body)
	}
}

func TestCreateOrder_Validation(t *testing.T) {
	for _, missing := range []string{"nombre_cliente", "resumen_pedido"} {
		f := newFixture(t, Options{})
		b := orderBody()
		b[missing] = "  "
		w := f.do(t, http.MethodPost, "/api/pedidos", b)
		wantStatus(t, w, http.StatusBadRequest)
	}

	f := newFixture(t, Options{})
	b := orderBody()
	b["resumen_pedido"] = strings.Repeat("x", maxSummaryLen+1)
	w := f.do(t, http.MethodPost, "/api/pedidos", b)
	wantStatus(t, w, http.StatusBadRequest)
}

func TestCreateOrder_Failures(t *testing.T) {
	t.Run("store error is a 500 and nobody is notified", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.store.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(int64(0), errors.New("insert failed"))
		w := f.do(t, http.MethodPost, "/api/pedidos", orderBody())
		wantStatus(t, w, http.StatusInternalServerError)
		wantMessage(t, w, msgInternal)
	})

	t.Run("notifier error does not fail the order", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.store.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(int64(5), nil)
		f.notifier.EXPECT().NotifyOrder(gomock.Any(), gomock.Any()).Return(errors.New("queue full"))
		w := f.do(t, http.MethodPost, "/api/pedidos", orderBody())
		wantStatus(t, w, http.StatusCreated)
	})
}
