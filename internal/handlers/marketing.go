package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/snowstore/internal/models"
	"github.com/example/snowstore/internal/services"
	"github.com/example/snowstore/internal/utils"
)

// MarketingHandler manages popup banners.
type MarketingHandler struct {
	banners *services.BannerService
}

// NewMarketingHandler constructs MarketingHandler.
func NewMarketingHandler(banners *services.BannerService) *MarketingHandler {
	return &MarketingHandler{banners: banners}
}

func bannerInputFromForm(c *fiber.Ctx) (services.BannerInput, error) {
	order, err := formInt(c, "displayOrder")
	if err != nil {
		return services.BannerInput{}, err
	}
	return services.BannerInput{
		Title:        c.FormValue("title"),
		Description:  c.FormValue("description"),
		DisplayOrder: order,
		Active:       formBool(c, "isActive"),
	}, nil
}

// ListBanners filters by ?status=all|active|inactive.
func (h *MarketingHandler) ListBanners(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c, services.AdminPageSize, false)
	items, total, err := h.banners.List(c.UserContext(), c.Query("status", services.BannerFilterAll), pg.Page, pg.Limit)
	if err != nil {
		return err
	}
	return c.JSON(ListResponse[models.PopupBanner]{
		Success:    true,
		Data:       items,
		Pagination: utils.NewPaginationMeta(pg, total),
	})
}

func (h *MarketingHandler) GetBanner(c *fiber.Ctx) error {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		return err
	}
	item, err := h.banners.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(DataResponse[*models.PopupBanner]{Success: true, Data: item})
}

func (h *MarketingHandler) CreateBanner(c *fiber.Ctx) error {
	in, err := bannerInputFromForm(c)
	if err != nil {
		return err
	}
	item, err := h.banners.Create(c.UserContext(), in, formFile(c, "image"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(DataResponse[*models.PopupBanner]{Success: true, Data: item})
}

func (h *MarketingHandler) UpdateBanner(c *fiber.Ctx) error {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		return err
	}
	in, err := bannerInputFromForm(c)
	if err != nil {
		return err
	}
	item, err := h.banners.Update(c.UserContext(), id, in, formFile(c, "image"))
	if err != nil {
		return err
	}
	return c.JSON(DataResponse[*models.PopupBanner]{Success: true, Data: item})
}

func (h *MarketingHandler) ToggleBanner(c *fiber.Ctx) error {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		return err
	}
	item, err := h.banners.ToggleStatus(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "status": item.Status, "data": item})
}

func (h *MarketingHandler) DeleteBanner(c *fiber.Ctx) error {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		return err
	}
	issue, err := h.banners.Delete(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(messageWithIssue("banner deleted", issue))
}

func (h *MarketingHandler) BulkDeleteBanners(c *fiber.Ctx) error {
	req, err := parseBulkRequest(c)
	if err != nil {
		return err
	}
	return c.JSON(batchResponse(h.banners.BulkDelete(c.UserContext(), req.IDs), "banners"))
}
