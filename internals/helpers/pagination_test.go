package helper

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseWith(t *testing.T, query string, opt Options) Params {
	t.Helper()
	var got Params
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		got = ParseFiber(c, "created_at", "desc", opt)
		return c.SendStatus(fiber.StatusNoContent)
	})
	resp, err := app.Test(httptest.NewRequest("GET", "/"+query, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	return got
}

func TestParseFiber(t *testing.T) {
	p := parseWith(t, "?page=3&per_page=500&sort_by=Name&order=ASC", DefaultOpts)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 200, p.PerPage)
	assert.Equal(t, 400, p.Offset())
	assert.Equal(t, "asc", p.SortOrder)
	assert.Equal(t, "h.name ASC", p.OrderClause(map[string]string{"name": "h.name", "created_at": "h.created_at"}, "created_at"))

	p = parseWith(t, "?page=-1&limit=abc&order=sideways", DefaultOpts)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 25, p.PerPage)
	assert.Equal(t, "desc", p.SortOrder)
	assert.Equal(t, "h.created_at DESC", p.OrderClause(map[string]string{"created_at": "h.created_at"}, "created_at"))

	p = parseWith(t, "?page=4&per_page=all", ExportOpts)
	assert.True(t, p.All)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10_000, p.PerPage)
}

func TestBuildMeta(t *testing.T) {
	m := BuildMeta(51, Params{Page: 2, PerPage: 25})
	assert.Equal(t, 3, m.TotalPages)
	assert.True(t, m.HasNext)
	assert.True(t, m.HasPrev)
	require.NotNil(t, m.NextPage)
	assert.Equal(t, 3, *m.NextPage)
	assert.Equal(t, 1, *m.PrevPage)

	m = BuildMeta(0, Params{Page: 1, PerPage: 25})
	assert.Equal(t, 0, m.TotalPages)
	assert.False(t, m.HasNext)
	assert.Nil(t, m.PrevPage)
}

func TestResolveID(t *testing.T) {
	app := fiber.New()
	h := func(c *fiber.Ctx) error {
		id, err := ResolveID(c)
		if err != nil {
			return WriteFiberError(c, err)
		}
		return c.SendString(id.String())
	}
	app.Get("/horses/:id", h)
	app.Get("/horses-id", h)

	const id = "0b5c2f4e-6d1a-4c8e-9f3b-2a7d5e1c9b40"
	for _, target := range []string{"/horses/" + id, "/horses-id?id=" + id} {
		resp, err := app.Test(httptest.NewRequest("GET", target, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, target)
	}

	for _, target := range []string{"/horses/not-a-uuid", "/horses-id"} {
		resp, err := app.Test(httptest.NewRequest("GET", target, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, target)
	}
}
