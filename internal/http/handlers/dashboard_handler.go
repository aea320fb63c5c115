package handlers

import (
	"github.com/gofiber/fiber/v2"

	"shopadmin/internal/domain"
	"shopadmin/internal/services"
)

type DashboardHandler struct {
	Auth    *services.AuthService
	Catalog *services.CatalogService
}

// Home shows catalog totals. A backend failure still renders the page with the error.
func (h *DashboardHandler) Home(c *fiber.Ctx) error {
	tok, err := h.Auth.Token(c.UserContext(), clientID(c))
	var products []domain.Product
	if err == nil {
		products, err = h.Catalog.List(c.UserContext(), tok)
	}
	data := fiber.Map{"Outcome": domain.Idle()}
	if err != nil {
		logFailure(c, "dashboard.load", err, nil)
		data["Outcome"] = domain.Failed(domain.Describe("fetch products", err))
	}
	var hot, bids int
	for _, p := range products {
		if p.Hot {
			hot++
		}
		if p.BidProduct {
			bids++
		}
	}
	data["Total"] = len(products)
	data["Hot"] = hot
	data["Bids"] = bids
	data["Recent"] = recent(products, 5)
	return render(c, "dashboard", data)
}

func recent(ps []domain.Product, n int) []domain.Product {
	if len(ps) <= n {
		return ps
	}
	return ps[:n]
}

// Placeholder renders the pages that exist for routing but have no content yet.
func Placeholder(title string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return render(c, "placeholder", fiber.Map{"Title": title})
	}
}
