package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"shopadmin/internal/domain"
	"shopadmin/internal/log"
	"shopadmin/internal/media"
	"shopadmin/internal/productform"
	"shopadmin/internal/services"
	"shopadmin/internal/validate"
)

type ProductHandler struct {
	Auth      *services.AuthService
	Catalog   *services.CatalogService
	Forms     *productform.Registry
	MaxUpload int64
}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	return h.renderList(c, fiber.StatusOK, domain.Idle())
}

func (h *ProductHandler) renderList(c *fiber.Ctx, status int, out domain.Outcome) error {
	data := fiber.Map{"Outcome": out}
	tok, err := h.Auth.Token(c.UserContext(), clientID(c))
	if err == nil {
		var ps []domain.Product
		ps, err = h.Catalog.List(c.UserContext(), tok)
		data["Products"] = ps
	}
	if err != nil {
		logFailure(c, "product.list", err, nil)
		data["Error"] = domain.Describe("fetch products", err)
		if status == fiber.StatusOK {
			status = statusFor(err)
		}
	}
	return c.Status(status).Render("products", withCommon(c, data))
}

func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("productId"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "productId"})
		return notFound(c, "Product not found.")
	}
	tok, err := h.Auth.Token(c.UserContext(), clientID(c))
	var msg string
	if err == nil {
		msg, err = h.Catalog.Delete(c.UserContext(), tok, id)
	}
	if err != nil {
		logFailure(c, "product.delete", err, map[string]any{"product": id})
		return h.renderList(c, statusFor(err), domain.Failed(domain.Describe("delete product", err)))
	}
	log.Audit(c, "product.delete", map[string]any{"product": id})
	return h.renderList(c, fiber.StatusOK, domain.Succeeded(msg))
}

func (h *ProductHandler) NewForm(c *fiber.Ctx) error {
	form := h.Forms.Create(clientID(c))
	form.Reset()
	return h.renderForm(c, form, fiber.StatusOK, nil)
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	form := h.Forms.Create(clientID(c))
	return h.submit(c, form, "product.create")
}

func (h *ProductHandler) EditForm(c *fiber.Ctx) error {
	form := h.Forms.Edit(clientID(c))
	status := fiber.StatusOK
	if err := form.Mount(c.UserContext(), c.Params("productId")); err != nil && !errors.Is(err, productform.ErrStaleResponse) {
		logFailure(c, "product.load", err, map[string]any{"product": c.Params("productId")})
		status = statusFor(err)
	}
	return h.renderForm(c, form, status, nil)
}

func (h *ProductHandler) Update(c *fiber.Ctx) error {
	form := h.Forms.Edit(clientID(c))
	if err := form.Load(c.UserContext(), c.Params("productId")); err != nil && !errors.Is(err, productform.ErrStaleResponse) {
		logFailure(c, "product.load", err, map[string]any{"product": c.Params("productId")})
	}
	return h.submit(c, form, "product.update")
}

func (h *ProductHandler) submit(c *fiber.Ctx, form *productform.Form, action string) error {
	if form.Outcome().InFlight() {
		log.Info(c, action+".ignored", map[string]any{"reason": productform.ErrSubmitInFlight.Error()})
		return h.renderForm(c, form, fiber.StatusConflict, nil)
	}
	if err := h.apply(c, form); err != nil {
		log.Security(c, "validation.fail", map[string]any{"form": form.Mode().String(), "err": err.Error()})
		out := domain.Failed(domain.Describe("save product", err))
		return h.renderForm(c, form, statusFor(err), &out)
	}
	if c.FormValue("intent") == "apply" {
		return h.renderForm(c, form, fiber.StatusOK, nil)
	}

	out, err := form.Submit(c.UserContext())
	switch {
	case errors.Is(err, productform.ErrSubmitInFlight):
		log.Info(c, action+".ignored", map[string]any{"reason": err.Error()})
		return h.renderForm(c, form, fiber.StatusConflict, nil)
	case errors.Is(err, productform.ErrStaleResponse):
		// the form was reopened meanwhile; the backend still has the result
		if out.IsError() {
			logFailure(c, action, err, map[string]any{"stale": true})
			return h.renderForm(c, form, statusFor(err), &out)
		}
		log.Audit(c, action, map[string]any{"message": out.Message, "stale": true})
		return h.renderForm(c, form, fiber.StatusOK, &out)
	case err != nil:
		logFailure(c, action, err, map[string]any{"product": form.View().ProductID})
		return h.renderForm(c, form, statusFor(err), &out)
	}
	log.Audit(c, action, map[string]any{"product": form.View().ProductID, "message": out.Message})
	return h.renderForm(c, form, fiber.StatusOK, &out)
}

// apply copies posted values and files into the form.
func (h *ProductHandler) apply(c *fiber.Ctx, form *productform.Form) error {
	for _, name := range productform.TextFieldNames() {
		if err := form.SetText(name, c.FormValue(name)); err != nil {
			return err
		}
	}
	for _, name := range productform.FlagFieldNames() {
		if err := form.SetFlag(name, checked(c.FormValue(name))); err != nil {
			return err
		}
	}
	if form.Draft().BidProduct {
		form.SetBidDate(c.FormValue("bidDate"))
		form.SetBidTime(c.FormValue("bidTime"))
	}

	mf, err := c.MultipartForm()
	if err != nil {
		// url-encoded posts carry no files
		mf = nil
	}
	view := form.View()
	for _, sv := range append(view.Images, view.Videos...) {
		switch c.FormValue(sv.Field + "_action") {
		case "clear":
			if err := form.Clear(sv.Kind, sv.Index); err != nil {
				return err
			}
		case "revert":
			if err := form.Revert(sv.Kind, sv.Index); err != nil {
				return err
			}
		}
		if mf == nil || len(mf.File[sv.Field]) == 0 {
			continue
		}
		f, err := media.Read(mf.File[sv.Field][0], h.MaxUpload)
		if errors.Is(err, media.ErrEmpty) {
			continue
		}
		if err != nil {
			return domain.Invalid(err.Error())
		}
		if err := form.Select(sv.Kind, sv.Index, f); err != nil {
			return err
		}
	}
	return nil
}

func checked(v string) bool {
	return v == "true" || v == "on" || v == "1"
}

func (h *ProductHandler) renderForm(c *fiber.Ctx, form *productform.Form, status int, override *domain.Outcome) error {
	view := form.View()
	out := view.Outcome
	if override != nil {
		out = *override
	}
	action := "/add-to-product"
	title := "Add Product"
	if form.Mode() == productform.Edit {
		action = "/update-product/" + view.ProductID
		title = "Edit Product"
	}
	return c.Status(status).Render("product_form", withCommon(c, fiber.Map{
		"Title":   title,
		"Action":  action,
		"Form":    view,
		"Outcome": out,
	}))
}
