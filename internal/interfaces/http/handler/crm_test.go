package handler

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"
	"time"

	crmapp "github.com/crm/backend/internal/application/crm"
	"github.com/crm/backend/internal/domain/crm"
	domainidentity "github.com/crm/backend/internal/domain/identity"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// crmFixture is a tenant with an administrator and two managers
type crmFixture struct {
	env      *testEnv
	tenant   *domainidentity.Tenant
	admin    string
	manager  string
	other    string
	managerP *crm.SalesPerson
}

func newCRMFixture(t *testing.T) *crmFixture {
	env := newTestEnv(t)
	tenant := env.createTenant("acme", "en")

	admin := env.createUser(tenant.ID, "boss", true)
	adminSP := env.createSalesPerson(tenant.ID, admin.ID, crm.SalesRoleDirector, "en")
	manager := env.createUser(tenant.ID, "manager", false)
	managerSP := env.createSalesPerson(tenant.ID, manager.ID, crm.SalesRoleManager, "en")
	other := env.createUser(tenant.ID, "other", false)
	otherSP := env.createSalesPerson(tenant.ID, other.ID, crm.SalesRoleManager, "en")

	return &crmFixture{
		env:      env,
		tenant:   tenant,
		admin:    env.token(admin, adminSP, "en"),
		manager:  env.token(manager, managerSP, "en"),
		other:    env.token(other, otherSP, "en"),
		managerP: managerSP,
	}
}

func (f *crmFixture) createProduct(t *testing.T, sku int64, price string) crmapp.ProductResponse {
	t.Helper()
	rec := f.env.do(http.MethodPost, "/products", crmapp.ProductRequest{
		SKU:         sku,
		Description: fmt.Sprintf("Product %d", sku),
		Price:       decimal.RequireFromString(price),
	}, withToken(f.admin))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p crmapp.ProductResponse
	decode(t, rec, &p)
	return p
}

func (f *crmFixture) createDeal(t *testing.T, token string, ident int64, date string) crmapp.DealResponse {
	t.Helper()
	rec := f.env.do(http.MethodPost, "/deals", crmapp.DealRequest{
		Ident:       ident,
		Description: "Supply contract",
		DealDate:    date,
	}, withToken(token))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var d crmapp.DealResponse
	decode(t, rec, &d)
	return d
}

func TestProducts_DuplicateSKU(t *testing.T) {
	f := newCRMFixture(t)
	f.createProduct(t, 100, "10.50")

	rec := f.env.do(http.MethodPost, "/products", crmapp.ProductRequest{
		SKU: 100, Description: "Another", Price: decimal.NewFromInt(1),
	}, withToken(f.admin))

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decode(t, rec, nil)
	assert.Equal(t, "SKU_TAKEN", body.Error.Code)
	require.Len(t, body.Error.Details, 1)
	assert.Equal(t, "sku", body.Error.Details[0].Field)
}

func TestProducts_EmptyListText(t *testing.T) {
	f := newCRMFixture(t)

	rec := f.env.do(http.MethodGet, "/products", nil, withToken(f.manager))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec, nil)
	assert.JSONEq(t, `[]`, string(body.Data))
	require.NotNil(t, body.Meta)
	assert.Equal(t, "There are no products yet. Use the corresponding menu item to add one", body.Meta.EmptyText)
}

func TestDeals_LinesAndStatusHistory(t *testing.T) {
	f := newCRMFixture(t)
	chair := f.createProduct(t, 1, "100")
	desk := f.createProduct(t, 2, "250.50")
	deal := f.createDeal(t, f.manager, 7001, "2026-03-01")

	assert.Equal(t, string(crm.DealStatusFirstContact), deal.Status.Code)
	assert.Equal(t, "First contact", deal.Status.Label)
	assert.Equal(t, f.managerP.ID, deal.SalesPersonID)

	rec := f.env.do(http.MethodPost, "/deals/"+deal.ID.String()+"/products",
		crmapp.AddDealProductRequest{ProductID: chair.ID, Qty: 3}, withToken(f.manager))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = f.env.do(http.MethodPost, "/deals/"+deal.ID.String()+"/products",
		crmapp.AddDealProductRequest{ProductID: desk.ID, Qty: 2}, withToken(f.manager))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &deal)
	require.Len(t, deal.Products, 2)
	assert.True(t, decimal.RequireFromString("801").Equal(deal.Price), deal.Price.String())

	rec = f.env.do(http.MethodPut, "/deals/"+deal.ID.String()+"/products/"+desk.ID.String(),
		SetDealProductQtyRequest{Qty: 1}, withToken(f.manager))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &deal)
	assert.True(t, decimal.RequireFromString("550.5").Equal(deal.Price), deal.Price.String())

	rec = f.env.do(http.MethodPost, "/deals/"+deal.ID.String()+"/status", crmapp.ChangeDealStatusRequest{
		Status: string(crm.DealStatusDecisionMaking), Date: "2026-03-05", Time: "10:30", Comment: "Sent the offer",
	}, withToken(f.manager))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.env.do(http.MethodGet, "/deals/"+deal.ID.String()+"/history", nil, withToken(f.manager))
	require.Equal(t, http.StatusOK, rec.Code)
	var history []crmapp.DealStatusResponse
	decode(t, rec, &history)
	require.Len(t, history, 2)
	assert.Equal(t, string(crm.DealStatusFirstContact), history[0].Status.Code)
	assert.Equal(t, "D", history[1].Status.Code)
	assert.Equal(t, "2026-03-05", history[1].Date)
	assert.Equal(t, "Sent the offer", history[1].Comment)

	rec = f.env.do(http.MethodDelete, "/products/"+chair.ID.String(), nil, withToken(f.admin))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "PRODUCT_IN_USE", decode(t, rec, nil).Error.Code)
}

func TestDeals_ListFiltersAndScope(t *testing.T) {
	f := newCRMFixture(t)
	f.createDeal(t, f.manager, 1, "2026-01-10")
	f.createDeal(t, f.manager, 2, "2026-02-10")
	foreign := f.createDeal(t, f.other, 3, "2026-02-11")

	var page []crmapp.DealResponse
	rec := f.env.do(http.MethodGet, "/deals", nil, withToken(f.manager))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec, &page)
	assert.Len(t, page, 2)
	assert.Equal(t, int64(2), body.Meta.Total)
	assert.Empty(t, body.Meta.EmptyText)

	rec = f.env.do(http.MethodGet, "/deals?date_from=2026-02-01", nil, withToken(f.manager))
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &page)
	require.Len(t, page, 1)
	assert.Equal(t, int64(2), page[0].Ident)

	rec = f.env.do(http.MethodGet, "/deals", nil, withToken(f.admin))
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &page)
	assert.Len(t, page, 3)

	t.Run("foreign deal is hidden", func(t *testing.T) {
		rec := f.env.do(http.MethodGet, "/deals/"+foreign.ID.String(), nil, withToken(f.manager))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad date filter", func(t *testing.T) {
		rec := f.env.do(http.MethodGet, "/deals?date_from=01.02.2026", nil, withToken(f.manager))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decode(t, rec, nil)
		require.Len(t, body.Error.Details, 1)
		assert.Equal(t, "date_from", body.Error.Details[0].Field)
	})

	t.Run("unknown status filter", func(t *testing.T) {
		rec := f.env.do(http.MethodGet, "/deals?status=Z", nil, withToken(f.manager))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate ident", func(t *testing.T) {
		rec := f.env.do(http.MethodPost, "/deals", crmapp.DealRequest{
			Ident: 1, Description: "Again", DealDate: "2026-01-10",
		}, withToken(f.manager))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestTodos_CompleteAndFilter(t *testing.T) {
	f := newCRMFixture(t)
	due := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)

	var todo crmapp.TodoResponse
	for _, desc := range []string{"Call back", "Send the price list"} {
		rec := f.env.do(http.MethodPost, "/todos", crmapp.TodoRequest{
			Action:            string(crm.TodoActionPhone),
			ActionDescription: desc,
			DueAt:             due,
		}, withToken(f.manager))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		decode(t, rec, &todo)
	}
	assert.Equal(t, "Phone call", todo.Action.Label)
	assert.False(t, todo.Done)

	rec := f.env.do(http.MethodPost, "/todos/"+todo.ID.String()+"/complete", nil, withToken(f.manager))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &todo)
	assert.True(t, todo.Done)
	assert.NotNil(t, todo.DoneAt)

	var page []crmapp.TodoResponse
	rec = f.env.do(http.MethodGet, "/todos?done=true", nil, withToken(f.manager))
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &page)
	require.Len(t, page, 1)
	assert.Equal(t, todo.ID, page[0].ID)

	rec = f.env.do(http.MethodGet, "/todos?done=false", nil, withToken(f.manager))
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &page)
	assert.Len(t, page, 1)

	rec = f.env.do(http.MethodPost, "/todos/"+todo.ID.String()+"/reopen", nil, withToken(f.manager))
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &todo)
	assert.False(t, todo.Done)

	rec = f.env.do(http.MethodGet, "/todos?done=maybe", nil, withToken(f.manager))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "done", decode(t, rec, nil).Error.Details[0].Field)

	rec = f.env.do(http.MethodGet, "/todos", nil, withToken(f.other))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec, &page)
	assert.Empty(t, page)
	assert.Equal(t, "There are no planned actions yet. Use the corresponding menu item to add one", body.Meta.EmptyText)
}

func TestTodos_CannotAssignToAnotherSalesPerson(t *testing.T) {
	f := newCRMFixture(t)

	rec := f.env.do(http.MethodPost, "/todos", crmapp.TodoRequest{
		SalesPersonID:     uuid.New(),
		Action:            string(crm.TodoActionEmail),
		ActionDescription: "Write",
		DueAt:             time.Now().Add(time.Hour),
	}, withToken(f.manager))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// pngHeader is enough for content sniffing to report image/png
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func multipartAvatar(t *testing.T, contentType string, data []byte) (string, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="avatar"; filename="me.png"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.String(), w.FormDataContentType()
}

func TestCustomers_CreateAndUploadAvatar(t *testing.T) {
	f := newCRMFixture(t)

	rec := f.env.do(http.MethodPost, "/customers", crmapp.CustomerRequest{
		FirstName:  "Petrov",
		SecondName: "Petr",
		Company:    "Horns and Hooves",
		Email:      "petr@example.com",
		Status:     string(crm.CustomerStatusPurchased),
	}, withToken(f.manager))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var customer crmapp.CustomerResponse
	decode(t, rec, &customer)
	assert.Equal(t, f.managerP.ID, customer.SalesPersonID)
	assert.Empty(t, customer.AvatarURL)

	body, contentType := multipartAvatar(t, "image/png", pngHeader)
	rec = f.env.do(http.MethodPost, "/customers/"+customer.ID.String()+"/avatar", body,
		withToken(f.manager), withHeader("Content-Type", contentType))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &customer)
	assert.Contains(t, customer.AvatarURL, "http://media.test/crm/")
	assert.Contains(t, customer.AvatarURL, ".png")

	t.Run("not an image", func(t *testing.T) {
		body, contentType := multipartAvatar(t, "image/png", []byte("<svg onload=alert(1)>"))
		rec := f.env.do(http.MethodPost, "/customers/"+customer.ID.String()+"/avatar", body,
			withToken(f.manager), withHeader("Content-Type", contentType))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_AVATAR", decode(t, rec, nil).Error.Code)
	})

	t.Run("missing file", func(t *testing.T) {
		rec := f.env.do(http.MethodPost, "/customers/"+customer.ID.String()+"/avatar", "",
			withToken(f.manager), withHeader("Content-Type", "multipart/form-data; boundary=x"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("foreign customer", func(t *testing.T) {
		rec := f.env.do(http.MethodGet, "/customers/"+customer.ID.String(), nil, withToken(f.other))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid status", func(t *testing.T) {
		rec := f.env.do(http.MethodPost, "/customers", map[string]string{
			"first_name": "A", "second_name": "B", "status": "X",
		}, withToken(f.manager))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		details := decode(t, rec, nil).Error.Details
		require.Len(t, details, 1)
		assert.Equal(t, "status", details[0].Field)
	})
}

func TestSalesPersons_ListAndCard(t *testing.T) {
	f := newCRMFixture(t)

	var page []crmapp.SalesPersonResponse
	rec := f.env.do(http.MethodGet, "/sales-persons?role=M", nil, withToken(f.admin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &page)
	assert.Len(t, page, 2)
	for _, sp := range page {
		assert.Equal(t, "Manager", sp.Role.Label)
	}

	rec = f.env.do(http.MethodGet, "/sales-persons/"+f.managerP.ID.String()+"/card", nil, withToken(f.manager))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var card crmapp.SalesPersonCard
	decode(t, rec, &card)
	assert.Equal(t, f.managerP.ID, card.ID)
	assert.NotEmpty(t, card.Fields)

	rec = f.env.do(http.MethodGet, "/sales-persons?role=Q", nil, withToken(f.admin))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
