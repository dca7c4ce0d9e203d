package handlers

import (
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/example/snowstore/internal/services"
)

type bulkRequest struct {
	IDs    []uint `json:"ids"`
	Action string `json:"action"`
}

type reorderRequest struct {
	ImageIDs []uint `json:"imageIds"`
}

func parseBulkRequest(c *fiber.Ctx) (bulkRequest, error) {
	var req bulkRequest
	if err := c.BodyParser(&req); err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.IDs) == 0 {
		return req, &services.ValidationError{Field: "ids", Message: "no items selected"}
	}
	return req, nil
}

func formBool(c *fiber.Ctx, key string) bool {
	switch strings.ToLower(strings.TrimSpace(c.FormValue(key))) {
	case "true", "on", "1", "yes":
		return true
	default:
		return false
	}
}

func formInt(c *fiber.Ctx, key string) (int, error) {
	raw := strings.TrimSpace(c.FormValue(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &services.ValidationError{Field: key, Message: "must be a whole number"}
	}
	return v, nil
}

func formOptionalID(c *fiber.Ctx, key string) (*uint, error) {
	raw := strings.TrimSpace(c.FormValue(key))
	if raw == "" || raw == "0" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, &services.ValidationError{Field: key, Message: "invalid id"}
	}
	id := uint(v)
	return &id, nil
}

// formIDs accepts repeated fields as well as comma separated values.
func formIDs(c *fiber.Ctx, key string) []uint {
	var raw []string
	if form, err := c.MultipartForm(); err == nil {
		raw = append(raw, form.Value[key]...)
	} else if v := c.FormValue(key); v != "" {
		raw = append(raw, v)
	}

	var ids []uint
	for _, value := range raw {
		for _, part := range strings.Split(value, ",") {
			if v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64); err == nil && v > 0 {
				ids = append(ids, uint(v))
			}
		}
	}
	return ids
}

func formFile(c *fiber.Ctx, key string) *multipart.FileHeader {
	fh, err := c.FormFile(key)
	if err != nil || fh.Size == 0 {
		return nil
	}
	return fh
}

func formFiles(c *fiber.Ctx, key string) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil {
		return nil
	}
	var files []*multipart.FileHeader
	for _, fh := range form.File[key] {
		if fh.Size > 0 {
			files = append(files, fh)
		}
	}
	return files
}

func productInputFromForm(c *fiber.Ctx) (services.ProductInput, error) {
	in := services.ProductInput{
		Name:         c.FormValue("name"),
		Description:  c.FormValue("description"),
		IsHot:        formBool(c, "isHot"),
		IsBestSeller: formBool(c, "isBestSeller"),
	}

	price, err := decimal.NewFromString(strings.TrimSpace(c.FormValue("price", "0")))
	if err != nil {
		return in, &services.ValidationError{Field: "price", Message: "must be a number"}
	}
	in.Price = price

	if in.StockQuantity, err = formInt(c, "stockQuantity"); err != nil {
		return in, err
	}
	if in.CategoryID, err = formOptionalID(c, "categoryId"); err != nil {
		return in, err
	}
	if in.BrandID, err = formOptionalID(c, "brandId"); err != nil {
		return in, err
	}
	return in, nil
}
