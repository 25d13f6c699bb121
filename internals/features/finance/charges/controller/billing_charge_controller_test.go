package controller_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"horseclub_backend/internals/constants"
	"horseclub_backend/internals/features/finance/charges/controller"
	chargeModel "horseclub_backend/internals/features/finance/charges/model"
	chargeService "horseclub_backend/internals/features/finance/charges/service"
	helper "horseclub_backend/internals/helpers"
	"horseclub_backend/internals/testutil/fakes"
	"horseclub_backend/internals/testutil/memstore"
)

type markPaidBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		Charge     chargeModel.BillingCharge `json:"charge"`
		Idempotent bool                      `json:"idempotent"`
	} `json:"data"`
}

func newApp(t *testing.T) (*fiber.App, *memstore.DB, *fakes.Auditor) {
	t.Helper()
	db := memstore.New()
	audit := &fakes.Auditor{}
	ctl := controller.NewBillingChargeController(nil, chargeService.New(db.ChargeStore(), audit, &fakes.Publisher{}))

	app := fiber.New(fiber.Config{
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
		ErrorHandler: helper.FiberErrorHandler,
	})
	app.Post("/billing-charges/:id/mark-paid", ctl.MarkPaid)
	app.Post("/billing-charges-mark-paid", ctl.MarkPaid)
	return app, db, audit
}

func post(t *testing.T, app *fiber.App, target, body string) (int, markPaidBody) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(fiber.MethodPost, target, r)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out markPaidBody
	require.NoError(t, sonic.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

func TestMarkPaid_StateBeforeMethod(t *testing.T) {
	method := "card"

	t.Run("void charge without method is a conflict", func(t *testing.T) {
		app, db, audit := newApp(t)
		c := db.AddCharge(chargeModel.BillingCharge{AmountCents: 4500, Currency: "EUR", Status: constants.ChargeVoid})

		status, body := post(t, app, "/billing-charges/"+c.ID.String()+"/mark-paid", `{}`)
		assert.Equal(t, fiber.StatusConflict, status)
		assert.Equal(t, chargeService.ErrPayVoidedCharge.Error(), body.Error)
		assert.Zero(t, audit.Len())
	})

	t.Run("paid charge retry is idempotent", func(t *testing.T) {
		app, db, audit := newApp(t)
		c := db.AddCharge(chargeModel.BillingCharge{
			AmountCents: 4500, Currency: "EUR", Status: constants.ChargePaid, PaidMethod: &method,
		})

		for _, body := range []string{`{}`, ""} {
			status, out := post(t, app, "/billing-charges/"+c.ID.String()+"/mark-paid", body)
			require.Equal(t, fiber.StatusOK, status, "body %q", body)
			assert.True(t, out.Data.Idempotent)
			assert.Equal(t, constants.ChargePaid, out.Data.Charge.Status)
			require.NotNil(t, out.Data.Charge.PaidMethod)
			assert.Equal(t, "card", *out.Data.Charge.PaidMethod)
		}
		assert.Zero(t, audit.Len())
	})

	t.Run("unpaid charge still needs a method", func(t *testing.T) {
		app, db, _ := newApp(t)
		c := db.AddCharge(chargeModel.BillingCharge{AmountCents: 4500, Currency: "EUR", Status: constants.ChargeUnpaid})

		status, body := post(t, app, "/billing-charges-mark-paid?id="+c.ID.String(), `{}`)
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, chargeService.ErrInvalidPaidMethod.Error(), body.Error)

		stored, _ := db.Charge(c.ID)
		assert.Equal(t, constants.ChargeUnpaid, stored.Status)
	})

	t.Run("unpaid charge is settled", func(t *testing.T) {
		app, db, audit := newApp(t)
		c := db.AddCharge(chargeModel.BillingCharge{AmountCents: 4500, Currency: "EUR", Status: constants.ChargeUnpaid})

		status, body := post(t, app, "/billing-charges/"+c.ID.String()+"/mark-paid", `{"paid_method":"Cash"}`)
		require.Equal(t, fiber.StatusOK, status)
		assert.False(t, body.Data.Idempotent)
		assert.Equal(t, constants.ChargePaid, body.Data.Charge.Status)
		assert.Equal(t, 1, audit.Len())
	})
}
