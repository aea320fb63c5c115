package handlers

import (
	"shopadmin/internal/productform"
	"shopadmin/internal/services"
)

type Deps struct {
	AuthHandler      *AuthHandler
	DashboardHandler *DashboardHandler
	ProductHandler   *ProductHandler
	ImportHandler    *ImportHandler
}

func NewDeps(auth *services.AuthService, catalog *services.CatalogService, forms *productform.Registry,
	imports *services.ImportService, ck Cookies, maxUpload int64) *Deps {
	return &Deps{
		AuthHandler:      &AuthHandler{Auth: auth, Cookies: ck},
		DashboardHandler: &DashboardHandler{Auth: auth, Catalog: catalog},
		ProductHandler:   &ProductHandler{Auth: auth, Catalog: catalog, Forms: forms, MaxUpload: maxUpload},
		ImportHandler:    &ImportHandler{Auth: auth, Import: imports, MaxUpload: maxUpload},
	}
}
